package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// disposition is what the consumer does with a delivery once it is handled.
type disposition int

const (
	dispositionAck disposition = iota
	dispositionRequeue
	dispositionDeadLetter
)

func (d disposition) String() string {
	switch d {
	case dispositionAck:
		return "ack"
	case dispositionRequeue:
		return "requeue"
	case dispositionDeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// settle picks the disposition for a handler result. A change message is
// retried once; a permanent failure or a second failure goes to the DLQ.
func settle(handlerErr error, redelivered bool) disposition {
	switch {
	case handlerErr == nil:
		return dispositionAck
	case IsPermanent(handlerErr) || redelivered:
		return dispositionDeadLetter
	default:
		return dispositionRequeue
	}
}

// RabbitMQConsumer reads change messages with manual acknowledgement. Each
// Consume call owns one channel and reopens it when the broker drops it.
type RabbitMQConsumer struct {
	client   *RabbitMQ
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQConsumer(client *RabbitMQ, prefetch int, logger *zap.Logger) *RabbitMQConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQConsumer{
		client:   client,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Consume blocks until ctx is canceled.
func (c *RabbitMQConsumer) Consume(ctx context.Context, queue string, handler MessageHandler) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if queue == "" {
		return fmt.Errorf("queue name is required")
	}
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}

	wait := reconnectBackoff
	for {
		err := c.consumeOnce(ctx, queue, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			wait = reconnectBackoff
			continue
		}

		c.logger.Warn("change consumer interrupted, retrying",
			zap.String("queue", queue),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait = nextBackoff(wait)
	}
}

func (c *RabbitMQConsumer) consumeOnce(ctx context.Context, queue string, handler MessageHandler) error {
	ch, err := c.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for %q closed", queue)
			}
			if err := c.handleDelivery(ctx, d, handler); err != nil {
				return err
			}
		}
	}
}

func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler MessageHandler) error {
	msg, err := decodeChangeMessage(d.Body)
	if err != nil {
		c.logger.Warn("dead-lettering undecodable change message",
			zap.String("messageId", d.MessageId),
			zap.Error(err),
		)
		return c.apply(d, dispositionDeadLetter)
	}

	handlerErr := handler(ctx, msg)
	outcome := settle(handlerErr, d.Redelivered)
	if outcome == dispositionDeadLetter {
		c.logger.Warn("dead-lettering change message",
			zap.String("eventId", msg.EventID),
			zap.String("kind", msg.Kind.String()),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(handlerErr),
		)
	}
	return c.apply(d, outcome)
}

func (c *RabbitMQConsumer) apply(d amqp.Delivery, outcome disposition) error {
	var err error
	switch outcome {
	case dispositionAck:
		err = d.Ack(false)
	case dispositionRequeue:
		err = d.Nack(false, true)
	default:
		err = d.Reject(false)
	}
	if err != nil {
		return fmt.Errorf("failed to settle delivery as %s: %w", outcome, err)
	}
	return nil
}

func decodeChangeMessage(body []byte) (ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return ChangeMessage{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return ChangeMessage{}, err
	}
	return msg, nil
}

func (c *RabbitMQConsumer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
