// Package events moves order domain events between processes over Pub/Sub or Kafka.
package events

import (
	"context"
	"errors"
)

// Attribute keys set on every published event.
const (
	AttrEventID       = "event_id"
	AttrEventType     = "event_type"
	AttrAggregateType = "aggregate_type"
	AttrAggregateID   = "aggregate_id"
)

var ErrReceiveUnsupported = errors.New("events backend does not support receiving")

// Message is a transport-neutral event.
type Message struct {
	ID         string
	Topic      string
	Key        string
	Data       []byte
	Attributes map[string]string
}

// Sink publishes messages to a topic.
type Sink interface {
	Publish(ctx context.Context, msg Message) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Delivery is a received message that must be settled with Ack or Nack.
type Delivery struct {
	Message
	ack  func()
	nack func()
}

// NewDelivery wraps msg with its settlement callbacks. Nil callbacks are no-ops.
func NewDelivery(msg Message, ack, nack func()) *Delivery {
	return &Delivery{Message: msg, ack: ack, nack: nack}
}

func (d *Delivery) Ack() {
	if d.ack != nil {
		d.ack()
	}
}

func (d *Delivery) Nack() {
	if d.nack != nil {
		d.nack()
	}
}

// Handler processes one delivery.
type Handler func(ctx context.Context, d *Delivery)

// Source receives messages until ctx is canceled.
type Source interface {
	Receive(ctx context.Context, handler Handler) error
	Close() error
}
