package outbox

import (
	"context"
	"errors"

	"github.com/angelmondragon/aura-storefront/pkg/enums"
	"github.com/angelmondragon/aura-storefront/pkg/events"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// Message builds the wire message for an encoded envelope. The aggregate id
// is the partition key so events for one order stay ordered.
func Message(topic string, eventID string, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID string, envelope []byte) events.Message {
	return events.Message{
		ID:    eventID,
		Topic: topic,
		Key:   aggregateID,
		Data:  envelope,
		Attributes: map[string]string{
			events.AttrEventID:       eventID,
			events.AttrEventType:     string(eventType),
			events.AttrAggregateType: string(aggregateType),
			events.AttrAggregateID:   aggregateID,
		},
	}
}

// DirectPublisher sends events straight to the sink. It serves stores with
// no transactional outbox table (MongoDB); delivery is at-most-once.
type DirectPublisher struct {
	sink  events.Sink
	topic string
	logg  *logger.Logger
}

func NewDirectPublisher(sink events.Sink, topic string, logg *logger.Logger) (*DirectPublisher, error) {
	if sink == nil {
		return nil, errors.New("events sink required")
	}
	if topic == "" {
		return nil, errors.New("topic required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &DirectPublisher{sink: sink, topic: topic, logg: logg}, nil
}

func (p *DirectPublisher) Publish(ctx context.Context, event DomainEvent) error {
	if event.AggregateID == "" {
		return errors.New("aggregate id required")
	}
	envelope, encoded, err := BuildEnvelope(event)
	if err != nil {
		return err
	}
	msg := Message(p.topic, envelope.EventID, event.EventType, event.AggregateType, event.AggregateID, encoded)
	if _, err := p.sink.Publish(ctx, msg); err != nil {
		return err
	}
	p.logg.Info(p.logg.WithFields(ctx, map[string]any{
		"event_id":     envelope.EventID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}), "event published directly")
	return nil
}
