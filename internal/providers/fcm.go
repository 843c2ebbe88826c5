package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

const (
	// FCMID is the provider key of the Firebase Cloud Messaging adapter.
	FCMID = "fcm"

	DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"
)

// FCMConfig is built from an integration's apiKey and optional baseUrl.
type FCMConfig struct {
	ServerKey string
	Endpoint  string
}

// FCMProvider sends notifications via Firebase Cloud Messaging.
type FCMProvider struct {
	cfg    FCMConfig
	client *http.Client
}

func NewFCMProvider(cfg FCMConfig, client *http.Client, timeout time.Duration) *FCMProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultFCMEndpoint
	}
	if client == nil {
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &FCMProvider{cfg: cfg, client: client}
}

func (p *FCMProvider) ID() string      { return FCMID }
func (p *FCMProvider) Channel() string { return "push" }

func (p *FCMProvider) Config() FCMConfig {
	return p.cfg
}

func (p *FCMProvider) Send(ctx context.Context, payload *Payload) ([]models.PushResult, error) {
	regIDs := make([]string, 0, len(payload.Tokens))
	for _, token := range payload.Tokens {
		if token.Token == "" || models.PlatformCategory(token.Platform) != models.PlatformMobile {
			continue
		}
		regIDs = append(regIDs, token.Token)
	}
	if len(regIDs) == 0 {
		return nil, fmt.Errorf("fcm: no mobile tokens: %w", ErrNoTargets)
	}

	reqMap := map[string]interface{}{
		"registration_ids": regIDs,
		"notification": map[string]string{
			"title": payload.Title,
			"body":  payload.Body,
		},
	}
	if len(payload.Data) > 0 {
		reqMap["data"] = payload.Data
	}
	if overrides := providerOverrides(payload.Overrides, FCMID); overrides != nil {
		mergeMaps(reqMap, overrides)
	}

	body, err := json.Marshal(reqMap)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+p.cfg.ServerKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fcm: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fcm: received status %d", resp.StatusCode)
	}

	var fcmResp fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&fcmResp); err != nil {
		return nil, fmt.Errorf("fcm: decode response: %w", err)
	}

	results := make([]models.PushResult, 0, len(fcmResp.Results))
	for idx, res := range fcmResp.Results {
		token := ""
		if idx < len(regIDs) {
			token = regIDs[idx]
		}
		status := models.ResultDelivered
		if res.Error != "" {
			status = models.ResultFailed
		}
		results = append(results, models.PushResult{
			Token:     token,
			Provider:  FCMID,
			Status:    status,
			MessageID: res.MessageID,
			Error:     res.Error,
		})
	}
	return results, nil
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}
