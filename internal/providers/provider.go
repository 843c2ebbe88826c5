// Package providers holds the adapters over third-party delivery transports.
package providers

import (
	"context"
	"errors"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

// ErrNoTargets is returned by Send when none of the payload tokens can be
// delivered by that provider.
var ErrNoTargets = errors.New("no deliverable tokens")

// Payload is the fully rendered message handed to a provider.
type Payload struct {
	Tokens    []models.PushToken
	Title     string
	Body      string
	Data      map[string]string
	Overrides map[string]interface{}
}

// Provider represents a downstream delivery provider (push-webhook, FCM, ...).
type Provider interface {
	ID() string
	Channel() string
	Send(ctx context.Context, payload *Payload) ([]models.PushResult, error)
}

func providerOverrides(overrides map[string]interface{}, key string) map[string]interface{} {
	if overrides == nil {
		return nil
	}
	if raw, ok := overrides[key]; ok {
		if cast, ok := raw.(map[string]interface{}); ok {
			return cast
		}
	}
	return nil
}

func mergeMaps(dst map[string]interface{}, src map[string]interface{}) {
	for key, value := range src {
		if nestedSrc, ok := value.(map[string]interface{}); ok {
			if nestedDst, ok := dst[key].(map[string]interface{}); ok {
				mergeMaps(nestedDst, nestedSrc)
				continue
			}
		}
		dst[key] = value
	}
}
