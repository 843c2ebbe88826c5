package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/logger"
)

// Options describes the queue topology a BaseConsumer declares and reads.
type Options struct {
	Queue       string
	DeadLetter  string
	Exchange    string
	RoutingKey  string
	Prefetch    int
	WorkerCount int
}

func (o Options) withDefaults() Options {
	if o.Prefetch <= 0 {
		o.Prefetch = 50
	}
	if o.WorkerCount <= 0 {
		o.WorkerCount = 5
	}
	if o.Exchange == "" {
		o.Exchange = "notifications.direct"
	}
	if o.RoutingKey == "" {
		o.RoutingKey = "push"
	}
	return o
}

// BaseConsumer wires RabbitMQ connectivity, queue declaration and worker handling.
type BaseConsumer struct {
	conn   *amqp.Connection
	opts   Options
	logger *slog.Logger
}

func NewBaseConsumer(conn *amqp.Connection, opts Options, l *slog.Logger) *BaseConsumer {
	return &BaseConsumer{
		conn:   conn,
		opts:   opts.withDefaults(),
		logger: logger.OrDiscard(l),
	}
}

// Start consumes until ctx is cancelled or the delivery channel closes, then
// waits for in-flight handlers to return.
func (c *BaseConsumer) Start(ctx context.Context, handler func(context.Context, amqp.Delivery) error) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := c.setupQueue(ch); err != nil {
		return fmt.Errorf("queue setup failed: %w", err)
	}

	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		return fmt.Errorf("qos configuration failed: %w", err)
	}

	deliveries, err := ch.Consume(
		c.opts.Queue,
		"",
		false, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < c.opts.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-deliveries:
					if !ok {
						return
					}
					if err := handler(ctx, msg); err != nil {
						c.logger.Error("handler returned error", slog.Int("worker", id), slog.Any("error", err))
					}
				}
			}
		}(i)
	}

	wg.Wait()
	if ctx.Err() == nil {
		return fmt.Errorf("delivery channel for %s closed", c.opts.Queue)
	}
	return nil
}

func (c *BaseConsumer) setupQueue(ch *amqp.Channel) error {
	args := amqp.Table{}
	if c.opts.DeadLetter != "" {
		args["x-dead-letter-exchange"] = ""
		args["x-dead-letter-routing-key"] = c.opts.DeadLetter
	}

	if err := ch.ExchangeDeclare(c.opts.Exchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.opts.Queue, true, false, false, false, args); err != nil {
		return err
	}
	if err := ch.QueueBind(c.opts.Queue, c.opts.RoutingKey, c.opts.Exchange, false, nil); err != nil {
		return err
	}
	if c.opts.DeadLetter != "" {
		if _, err := ch.QueueDeclare(c.opts.DeadLetter, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}
