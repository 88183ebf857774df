package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/pubsub"
)

const logTopic = "order-events"

// Backend normalizes the configured backend name.
func Backend(cfg config.EventsConfig) string {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		return config.EventsBackendLog
	}
	return backend
}

// OrdersTopic returns the topic order events are published to for the configured backend.
func OrdersTopic(cfg *config.Config) string {
	switch Backend(cfg.Events) {
	case config.EventsBackendPubSub:
		return cfg.PubSub.OrdersTopic
	case config.EventsBackendKafka:
		return cfg.Kafka.OrdersTopic
	default:
		return logTopic
	}
}

// NewSink builds the publisher for the configured backend.
func NewSink(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Sink, error) {
	switch Backend(cfg.Events) {
	case config.EventsBackendLog:
		return NewLogSink(logg), nil
	case config.EventsBackendPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, err
		}
		return NewPubSubSink(client), nil
	case config.EventsBackendKafka:
		return NewKafkaSink(cfg.Kafka)
	default:
		return nil, fmt.Errorf("unsupported events backend %q", cfg.Events.Backend)
	}
}

// NewSource builds the consumer for the configured backend. The log backend cannot receive.
func NewSource(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Source, error) {
	switch Backend(cfg.Events) {
	case config.EventsBackendPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, err
		}
		return NewPubSubSource(client), nil
	case config.EventsBackendKafka:
		return NewKafkaSource(cfg.Kafka, logg)
	case config.EventsBackendLog:
		return nil, ErrReceiveUnsupported
	default:
		return nil, fmt.Errorf("unsupported events backend %q", cfg.Events.Backend)
	}
}
