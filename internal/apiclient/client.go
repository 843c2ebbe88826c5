// Package apiclient is a typed client for the dashboard API endpoints the
// environment session depends on.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

// ErrNoToken is returned when the switch endpoint answers without a token.
var ErrNoToken = errors.New("switch response carried no token")

// TokenSource supplies the bearer credential for each request.
type TokenSource interface {
	Token() string
}

// Client provides typed access to the dashboard API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, tokens TokenSource, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:3000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("apiclient: token source required")
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

// envelope is the {"data": ...} wrapper every endpoint responds with.
type envelope[T any] struct {
	Data T `json:"data"`
}

// ListMyEnvironments returns the environments the current identity may use.
func (c *Client) ListMyEnvironments(ctx context.Context) ([]models.Environment, error) {
	var resp envelope[[]models.Environment]
	if err := c.do(ctx, http.MethodGet, "/v1/environments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CurrentEnvironment returns the environment bound to the active token.
func (c *Client) CurrentEnvironment(ctx context.Context) (models.Environment, error) {
	var resp envelope[models.Environment]
	if err := c.do(ctx, http.MethodGet, "/v1/environments/me", nil, &resp); err != nil {
		return models.Environment{}, err
	}
	return resp.Data, nil
}

// SwitchEnvironment exchanges the active token for one scoped to environmentID.
func (c *Client) SwitchEnvironment(ctx context.Context, environmentID string) (string, error) {
	path := fmt.Sprintf("/v1/auth/environments/%s/switch", url.PathEscape(environmentID))
	var resp envelope[struct {
		Token string `json:"token"`
	}]
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Data.Token) == "" {
		return "", ErrNoToken
	}
	return resp.Data.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any) error {
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(c.tokens.Token()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	if payload.Message != "" {
		return strings.TrimSpace(payload.Message)
	}
	return strings.TrimSpace(payload.Error)
}
