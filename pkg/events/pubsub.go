package events

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/aura-storefront/pkg/pubsub"
)

type pubsubClient interface {
	Ping(ctx context.Context) error
	Publisher(name string) *gcppubsub.Publisher
	OrdersSubscription() *gcppubsub.Subscriber
	Close() error
}

// PubSubSink publishes through Google Cloud Pub/Sub publishers, one per topic.
type PubSubSink struct {
	client pubsubClient
}

func NewPubSubSink(client *pubsub.Client) *PubSubSink {
	return &PubSubSink{client: client}
}

func (s *PubSubSink) Publish(ctx context.Context, msg Message) (string, error) {
	publisher := s.client.Publisher(msg.Topic)
	if publisher == nil {
		return "", errors.New("pubsub publisher unavailable for topic " + msg.Topic)
	}
	result := publisher.Publish(ctx, &gcppubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	return result.Get(ctx)
}

func (s *PubSubSink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *PubSubSink) Close() error { return s.client.Close() }

// PubSubSource receives from the configured order events subscription.
type PubSubSource struct {
	client pubsubClient
}

func NewPubSubSource(client *pubsub.Client) *PubSubSource {
	return &PubSubSource{client: client}
}

func (s *PubSubSource) Receive(ctx context.Context, handler Handler) error {
	sub := s.client.OrdersSubscription()
	if sub == nil {
		return errors.New("orders subscription not configured")
	}
	return sub.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		handler(ctx, NewDelivery(Message{
			ID:         msg.ID,
			Data:       msg.Data,
			Attributes: msg.Attributes,
		}, msg.Ack, msg.Nack))
	})
}

func (s *PubSubSource) Close() error { return s.client.Close() }
