package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/metrics"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/retry"
)

// TokenSuppressor remembers device tokens a provider rejected permanently;
// *repository.RedisRepository satisfies it.
type TokenSuppressor interface {
	IsTokenSuppressed(ctx context.Context, integrationID, token string) (bool, error)
	SuppressToken(ctx context.Context, integrationID, token string, ttl time.Duration) error
}

type PushProcessor struct {
	factory       *ProviderFactory
	statusUpdater *StatusUpdater
	suppressor    TokenSuppressor
	metrics       *metrics.Metrics
	logger        *slog.Logger
	retryCfg      retry.Config
}

// NewPushProcessor wires a processor. suppressor may be nil when Redis is not
// configured.
func NewPushProcessor(
	factory *ProviderFactory,
	statusUpdater *StatusUpdater,
	suppressor TokenSuppressor,
	metrics *metrics.Metrics,
	l *slog.Logger,
	retryCfg retry.Config,
) *PushProcessor {
	p := &PushProcessor{
		factory:       factory,
		statusUpdater: statusUpdater,
		suppressor:    suppressor,
		metrics:       metrics,
		logger:        logger.OrDiscard(l),
		retryCfg:      retryCfg,
	}
	p.retryCfg.OnRetry = func(attempt int, err error) {
		p.metrics.IncRetried()
		if retryCfg.OnRetry != nil {
			retryCfg.OnRetry(attempt, err)
		}
	}
	return p
}

// Process delivers one push job through the integration it names.
func (p *PushProcessor) Process(ctx context.Context, envelope *models.MessageEnvelope) error {
	if envelope.Channel != "push" {
		return Terminal(fmt.Errorf("unexpected channel %s", envelope.Channel))
	}
	if envelope.RequestID == "" {
		envelope.RequestID = uuid.NewString()
	}
	p.metrics.IncConsumed()
	log := p.logger.With(
		slog.String("request_id", envelope.RequestID),
		slog.String("integration_id", envelope.IntegrationID),
	)

	integration, provider, err := p.factory.Resolve(ctx, envelope.IntegrationID)
	if err != nil {
		providerID := ""
		if integration != nil {
			providerID = integration.ProviderID
		}
		if IsTerminal(err) {
			p.statusUpdater.MarkFailed(ctx, envelope.RequestID, envelope.IntegrationID, providerID, err.Error())
			p.metrics.IncFailed()
		}
		log.Error("failed to resolve provider", slog.Any("error", err))
		return err
	}

	activeTokens, err := p.filterTokens(ctx, integration.ID, envelope.User.PushTokens)
	if err != nil {
		log.Error("failed to filter tokens", slog.Any("error", err))
		return err
	}
	if len(activeTokens) == 0 {
		err := Terminal(fmt.Errorf("no valid push tokens"))
		p.statusUpdater.MarkFailed(ctx, envelope.RequestID, integration.ID, provider.ID(), err.Error())
		p.metrics.IncFailed()
		return err
	}

	titleTemplate := envelope.Template.Subject
	if titleTemplate == "" {
		titleTemplate = envelope.Template.Slug
	}
	payload := &providers.Payload{
		Tokens:    activeTokens,
		Title:     RenderTemplate(titleTemplate, envelope.Variables),
		Body:      RenderTemplate(envelope.Template.Body, envelope.Variables),
		Data:      toStringMap(envelope.Variables),
		Overrides: envelope.ProviderOverrides,
	}

	p.statusUpdater.MarkProcessing(ctx, envelope.RequestID, integration.ID)
	sendErr := retry.Do(ctx, p.retryCfg, func() error {
		results, err := provider.Send(ctx, payload)
		if errors.Is(err, providers.ErrNoTargets) {
			return retry.Permanent(err)
		}
		if err != nil {
			log.Warn("provider send failed", slog.String("provider", provider.ID()), slog.Any("error", err))
			return err
		}
		return p.handleResults(ctx, integration.ID, results)
	})

	if sendErr != nil {
		if errors.Is(sendErr, providers.ErrNoTargets) {
			sendErr = Terminal(sendErr)
		}
		p.metrics.IncFailed()
		p.statusUpdater.MarkFailed(ctx, envelope.RequestID, integration.ID, provider.ID(), sendErr.Error())
		return sendErr
	}

	p.statusUpdater.MarkDelivered(ctx, envelope.RequestID, integration.ID, provider.ID())
	p.metrics.IncDelivered()
	return nil
}

func (p *PushProcessor) filterTokens(ctx context.Context, integrationID string, tokens []models.PushToken) ([]models.PushToken, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	filtered := make([]models.PushToken, 0, len(tokens))
	for _, token := range tokens {
		if token.Token == "" {
			continue
		}
		if p.suppressor != nil {
			suppressed, err := p.suppressor.IsTokenSuppressed(ctx, integrationID, token.Token)
			if err != nil {
				return nil, err
			}
			if suppressed {
				continue
			}
		}
		filtered = append(filtered, token)
	}
	return filtered, nil
}

func (p *PushProcessor) handleResults(ctx context.Context, integrationID string, results []models.PushResult) error {
	if len(results) == 0 {
		return fmt.Errorf("provider returned no results")
	}

	var failures []string
	for _, res := range results {
		if res.Delivered() {
			continue
		}
		failures = append(failures, fmt.Sprintf("%s:%s", res.Token, res.Error))
		if p.suppressor != nil && isTokenFatal(res.Error) {
			if err := p.suppressor.SuppressToken(ctx, integrationID, res.Token, 0); err != nil {
				p.logger.Warn("failed to suppress token", slog.String("integration_id", integrationID), slog.Any("error", err))
			}
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("failed tokens: %s", strings.Join(failures, ", "))
	}
	return nil
}

func isTokenFatal(err string) bool {
	switch err {
	case "NotRegistered", "InvalidRegistration", "MismatchSenderId", "MessageTooBig":
		return true
	default:
		return false
	}
}

func toStringMap(vars map[string]interface{}) map[string]string {
	result := make(map[string]string, len(vars))
	for k, v := range vars {
		result[k] = fmt.Sprint(v)
	}
	return result
}
