package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/repository"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/metrics"
)

var ErrInactiveIntegration = errors.New("integration is not active")

// IntegrationSource loads stored integrations.
type IntegrationSource interface {
	Get(ctx context.Context, id string) (*models.Integration, error)
}

// ProviderFactory resolves an integration id to a ready provider. Every call
// builds a fresh handler, so credential changes apply to the next delivery.
type ProviderFactory struct {
	integrations IntegrationSource
	registry     *handlers.Registry
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewProviderFactory(integrations IntegrationSource, registry *handlers.Registry, metrics *metrics.Metrics, l *slog.Logger) *ProviderFactory {
	return &ProviderFactory{
		integrations: integrations,
		registry:     registry,
		metrics:      metrics,
		logger:       logger.OrDiscard(l),
	}
}

// Resolve loads the integration and builds its provider. Missing, inactive
// or misconfigured integrations come back as terminal errors.
func (f *ProviderFactory) Resolve(ctx context.Context, integrationID string) (*models.Integration, providers.Provider, error) {
	integration, err := f.integrations.Get(ctx, integrationID)
	if err != nil {
		if errors.Is(err, repository.ErrIntegrationNotFound) {
			return nil, nil, Terminal(err)
		}
		return nil, nil, fmt.Errorf("load integration %s: %w", integrationID, err)
	}
	if !integration.Active {
		return integration, nil, Terminal(fmt.Errorf("%w: %s", ErrInactiveIntegration, integrationID))
	}

	provider, err := f.Build(integration)
	if err != nil {
		return integration, nil, Terminal(err)
	}
	return integration, provider, nil
}

// Build runs the handler for an already loaded integration.
func (f *ProviderFactory) Build(integration *models.Integration) (providers.Provider, error) {
	handler, err := f.registry.Handler(integration.ProviderID, handlers.Channel(integration.Channel))
	if err != nil {
		return nil, err
	}

	err = handler.BuildProvider(integration.Credentials)
	if f.metrics != nil {
		f.metrics.ObserveBuild(integration.ProviderID, integration.Channel, err == nil)
	}
	if err != nil {
		f.logger.Warn("provider build failed",
			slog.String("integration_id", integration.ID),
			slog.String("provider", integration.ProviderID),
			slog.Any("error", err))
		return nil, err
	}

	provider, _ := handler.Provider()
	return provider, nil
}
