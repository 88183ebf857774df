package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/aura-storefront/pkg/email"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	"github.com/angelmondragon/aura-storefront/pkg/events"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/metrics"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
)

const orderEmailConsumer = "order-emails"

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

type ConsumerParams struct {
	Source      events.Source
	Sender      email.Sender
	Idempotency idempotencyGuard
	Decoders    payloadDecoder
	Logger      *logger.Logger
	Metrics     *metrics.Consumer
}

// Consumer turns order events into customer emails.
type Consumer struct {
	source      events.Source
	sender      email.Sender
	idempotency idempotencyGuard
	decoders    payloadDecoder
	logg        *logger.Logger
	metrics     *metrics.Consumer
}

// NewConsumer builds the order email consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Source == nil {
		return nil, fmt.Errorf("events source required")
	}
	if params.Sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Decoders == nil {
		return nil, fmt.Errorf("payload decoders required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		source:      params.Source,
		sender:      params.Sender,
		idempotency: params.Idempotency,
		decoders:    params.Decoders,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.source.Receive(ctx, func(ctx context.Context, d *events.Delivery) {
		result := c.process(ctx, d.Message)
		if result.nack {
			d.Nack()
			return
		}
		d.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg events.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes[events.AttrEventType])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultSkipped)
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultSkipped)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Warn(logCtx, "envelope missing event id")
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", envelope.EventID)

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderEmailConsumer, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultDuplicate)
		return processResult{ack: true}
	}

	version := envelope.Version
	if version == 0 {
		version = 1
	}
	payload, err := c.decoders.Decode(eventType, version, envelope.Data)
	if err != nil {
		// a payload we cannot read will never succeed on redelivery
		c.logg.Error(logCtx, "failed to parse payload", err)
		c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultSkipped)
		return processResult{ack: true}
	}

	msgOut, err := render(payload)
	if err != nil {
		c.logg.Error(logCtx, "failed to render email", err)
		c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultSkipped)
		return processResult{ack: true}
	}

	if err := c.sender.Send(ctx, msgOut); err != nil {
		c.logg.Error(logCtx, "order email failed", err)
		c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultFailed)
		var statusErr *email.StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return processResult{ack: true}
		}
		_ = c.idempotency.Delete(ctx, orderEmailConsumer, envelope.EventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order email sent")
	c.metrics.Observe(orderEmailConsumer, string(eventType), metrics.ConsumerResultHandled)
	return processResult{ack: true}
}
