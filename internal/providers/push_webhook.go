package providers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

const (
	// PushWebhookID is the provider key of the push-webhook adapter.
	PushWebhookID = "push-webhook"

	// SignatureHeader carries the hex HMAC-SHA256 of the request body.
	SignatureHeader = "X-Webhook-Signature"
)

// PushWebhookConfig is the adapter configuration derived from stored credentials.
type PushWebhookConfig struct {
	WebhookURL    string
	HMACSecretKey string
}

// PushWebhookProvider delivers push messages by POSTing a signed JSON document
// to a customer-owned URL.
type PushWebhookProvider struct {
	cfg    PushWebhookConfig
	client *http.Client
}

type webhookMessage struct {
	ID        string                 `json:"id"`
	Target    []string               `json:"target"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Payload   map[string]string      `json:"payload,omitempty"`
	Overrides map[string]interface{} `json:"overrides,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewPushWebhookProvider returns an adapter for cfg. A nil client gets a
// default one with the given timeout.
func NewPushWebhookProvider(cfg PushWebhookConfig, client *http.Client, timeout time.Duration) *PushWebhookProvider {
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PushWebhookProvider{cfg: cfg, client: client}
}

func (p *PushWebhookProvider) ID() string      { return PushWebhookID }
func (p *PushWebhookProvider) Channel() string { return "push" }

// Config returns the configuration the adapter was built with.
func (p *PushWebhookProvider) Config() PushWebhookConfig {
	return p.cfg
}

func (p *PushWebhookProvider) Send(ctx context.Context, payload *Payload) ([]models.PushResult, error) {
	targets := make([]string, 0, len(payload.Tokens))
	for _, token := range payload.Tokens {
		if token.Token == "" {
			continue
		}
		targets = append(targets, token.Token)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("push-webhook: %w", ErrNoTargets)
	}

	msg := webhookMessage{
		ID:        uuid.NewString(),
		Target:    targets,
		Title:     payload.Title,
		Content:   payload.Body,
		Payload:   payload.Data,
		Overrides: providerOverrides(payload.Overrides, PushWebhookID),
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("push-webhook: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("push-webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(p.cfg.HMACSecretKey, body))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push-webhook: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("push-webhook: unexpected status %d", resp.StatusCode)
	}

	results := make([]models.PushResult, 0, len(targets))
	for _, token := range targets {
		results = append(results, models.PushResult{
			Token:     token,
			Provider:  PushWebhookID,
			Status:    models.ResultDelivered,
			MessageID: msg.ID,
		})
	}
	return results, nil
}

// Sign returns the hex HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
