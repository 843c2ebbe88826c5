package routes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/repository"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/services"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/metrics"
)

// IntegrationChecker builds the provider behind a stored integration.
// *services.ProviderFactory satisfies it.
type IntegrationChecker interface {
	Resolve(ctx context.Context, integrationID string) (*models.Integration, providers.Provider, error)
}

// IntegrationLister lists the integrations of an environment.
// *repository.IntegrationStore satisfies it.
type IntegrationLister interface {
	ListByEnvironment(ctx context.Context, environmentID, channel string) ([]models.Integration, error)
}

// integrationSummary is an integration without its credentials.
type integrationSummary struct {
	ID            string    `json:"_id"`
	EnvironmentID string    `json:"_environmentId"`
	ProviderID    string    `json:"providerId"`
	Channel       string    `json:"channel"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

type checkResult struct {
	IntegrationID string   `json:"integration_id"`
	Provider      string   `json:"provider,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Missing       []string `json:"missing,omitempty"`
}

// NewRouter wires health, metrics and the integration endpoints.
func NewRouter(m *metrics.Metrics, checker IntegrationChecker, integrations IntegrationLister, started time.Time, l *slog.Logger) http.Handler {
	log := logger.OrDiscard(l)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{
			Success: true,
			Message: "integration service healthy",
			Meta: map[string]interface{}{
				"uptime_seconds": int(time.Since(started).Seconds()),
				"timestamp":      time.Now().UTC(),
			},
		})
	})
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /v1/environments/{id}/integrations", func(w http.ResponseWriter, r *http.Request) {
		envID := r.PathValue("id")
		list, err := integrations.ListByEnvironment(r.Context(), envID, r.URL.Query().Get("channel"))
		if err != nil {
			log.Error("failed to list integrations", slog.String("environment_id", envID), slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "failed to list integrations"})
			return
		}
		out := make([]integrationSummary, 0, len(list))
		for _, in := range list {
			out = append(out, integrationSummary{
				ID:            in.ID,
				EnvironmentID: in.EnvironmentID,
				ProviderID:    in.ProviderID,
				Channel:       in.Channel,
				Active:        in.Active,
				UpdatedAt:     in.UpdatedAt,
			})
		}
		writeJSON(w, http.StatusOK, response{Success: true, Message: "integrations listed", Data: out})
	})
	mux.HandleFunc("POST /v1/integrations/{id}/check", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		integration, provider, err := checker.Resolve(r.Context(), id)
		if err == nil {
			writeJSON(w, http.StatusOK, response{
				Success: true,
				Message: "integration is ready",
				Data:    checkResult{IntegrationID: id, Provider: provider.ID(), Channel: provider.Channel()},
			})
			return
		}

		status, result := classify(id, integration, err)
		if status == http.StatusInternalServerError {
			log.Error("integration check failed", slog.String("integration_id", id), slog.Any("error", err))
		}
		writeJSON(w, status, response{Success: false, Message: err.Error(), Data: result})
	})
	return mux
}

func classify(id string, integration *models.Integration, err error) (int, checkResult) {
	result := checkResult{IntegrationID: id}
	if integration != nil {
		result.Provider = integration.ProviderID
		result.Channel = integration.Channel
	}

	var cfgErr *handlers.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		for _, f := range cfgErr.Missing {
			result.Missing = append(result.Missing, string(f))
		}
		return http.StatusUnprocessableEntity, result
	case errors.Is(err, handlers.ErrUnknownProvider):
		return http.StatusUnprocessableEntity, result
	case errors.Is(err, repository.ErrIntegrationNotFound):
		return http.StatusNotFound, result
	case errors.Is(err, services.ErrInactiveIntegration):
		return http.StatusConflict, result
	default:
		return http.StatusInternalServerError, result
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
