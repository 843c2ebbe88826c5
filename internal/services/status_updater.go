package services

import (
	"context"
	"log/slog"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
)

const (
	StatusProcessing = "processing"
	StatusDelivered  = "delivered"
	StatusFailed     = "failed"
)

// StatusRecorder persists delivery status; *repository.StatusStore satisfies it.
type StatusRecorder interface {
	UpdateStatus(ctx context.Context, requestID, integrationID, status, provider, detail string) error
}

// StatusUpdater records status transitions and logs, rather than returns,
// persistence failures.
type StatusUpdater struct {
	store  StatusRecorder
	logger *slog.Logger
}

func NewStatusUpdater(store StatusRecorder, l *slog.Logger) *StatusUpdater {
	return &StatusUpdater{
		store:  store,
		logger: logger.OrDiscard(l),
	}
}

func (s *StatusUpdater) MarkProcessing(ctx context.Context, requestID, integrationID string) {
	s.update(ctx, requestID, integrationID, StatusProcessing, "", "")
}

func (s *StatusUpdater) MarkDelivered(ctx context.Context, requestID, integrationID, provider string) {
	s.update(ctx, requestID, integrationID, StatusDelivered, provider, "")
}

func (s *StatusUpdater) MarkFailed(ctx context.Context, requestID, integrationID, provider, detail string) {
	s.update(ctx, requestID, integrationID, StatusFailed, provider, detail)
}

func (s *StatusUpdater) update(ctx context.Context, requestID, integrationID, status, provider, detail string) {
	if err := s.store.UpdateStatus(ctx, requestID, integrationID, status, provider, detail); err != nil {
		s.logger.Error("failed to update status",
			slog.String("request_id", requestID),
			slog.String("status", status),
			slog.Any("error", err))
	}
}
