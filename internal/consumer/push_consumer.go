package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/services"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
	"github.com/streadway/amqp"
)

// Processor handles one decoded push job.
type Processor interface {
	Process(ctx context.Context, envelope *models.MessageEnvelope) error
}

// PushConsumer decodes push jobs and settles each delivery: ack on success,
// dead-letter on terminal errors or too many attempts, requeue otherwise.
type PushConsumer struct {
	base          *BaseConsumer
	processor     Processor
	logger        *slog.Logger
	maxDeliveries int
}

func NewPushConsumer(base *BaseConsumer, processor Processor, l *slog.Logger, maxDeliveries int) *PushConsumer {
	if maxDeliveries <= 0 {
		maxDeliveries = 5
	}
	return &PushConsumer{
		base:          base,
		processor:     processor,
		logger:        logger.OrDiscard(l),
		maxDeliveries: maxDeliveries,
	}
}

func (p *PushConsumer) Start(ctx context.Context) error {
	return p.base.Start(ctx, p.handleDelivery)
}

// Acknowledger is the settle surface of an amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
	Reject(requeue bool) error
}

func (p *PushConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) error {
	return p.settle(ctx, msg.Body, deliveryAttempts(&msg), msg)
}

func (p *PushConsumer) settle(ctx context.Context, body []byte, attempts int, ack Acknowledger) error {
	var envelope models.MessageEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		p.logger.Error("failed to unmarshal envelope", slog.Any("error", err))
		_ = ack.Reject(false)
		return err
	}

	if err := p.processor.Process(ctx, &envelope); err != nil {
		requeue := p.shouldRetry(err, attempts)
		if requeue {
			p.logger.Warn("processing failed, message requeued", slog.String("request_id", envelope.RequestID), slog.Any("error", err))
		} else {
			p.logger.Error("processing failed, message dead-lettered", slog.String("request_id", envelope.RequestID), slog.Any("error", err))
		}
		_ = ack.Nack(false, requeue)
		return err
	}

	return ack.Ack(false)
}

func (p *PushConsumer) shouldRetry(err error, attempts int) bool {
	if services.IsTerminal(err) {
		return false
	}
	return attempts < p.maxDeliveries
}

func deliveryAttempts(msg *amqp.Delivery) int {
	if msg.Headers == nil {
		if msg.Redelivered {
			return 1
		}
		return 0
	}
	if raw, ok := msg.Headers["x-death"]; ok {
		if deaths, ok := raw.([]interface{}); ok && len(deaths) > 0 {
			if table, ok := deaths[0].(amqp.Table); ok {
				if count, ok := table["count"].(int64); ok {
					return int(count)
				}
			}
		}
	}
	if msg.Redelivered {
		return 1
	}
	return 0
}
