package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutboxResultPublished    = "published"
	OutboxResultRetry        = "retry"
	OutboxResultDeadLettered = "dead_lettered"

	ConsumerResultHandled   = "handled"
	ConsumerResultDuplicate = "duplicate"
	ConsumerResultFailed    = "failed"
	ConsumerResultSkipped   = "skipped"
)

// Outbox counts relay outcomes per event type.
type Outbox struct {
	results *prometheus.CounterVec
}

// NewOutbox registers the outbox relay counters.
func NewOutbox(reg prometheus.Registerer) *Outbox {
	if reg == nil {
		return &Outbox{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_total",
		Help: "Outbox relay outcomes by event type.",
	}, []string{"event_type", "result"})
	reg.MustRegister(results)
	return &Outbox{results: results}
}

// Observe increments the counter for the event type and result.
func (o *Outbox) Observe(eventType, result string) {
	if o == nil || o.results == nil {
		return
	}
	o.results.WithLabelValues(normalizeLabel(eventType), result).Inc()
}

// Consumer counts worker outcomes per consumer and event type.
type Consumer struct {
	results *prometheus.CounterVec
}

// NewConsumer registers the consumer counters.
func NewConsumer(reg prometheus.Registerer) *Consumer {
	if reg == nil {
		return &Consumer{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_events_total",
		Help: "Consumed events by consumer, event type and result.",
	}, []string{"consumer", "event_type", "result"})
	reg.MustRegister(results)
	return &Consumer{results: results}
}

// Observe increments the counter for the consumer, event type and result.
func (c *Consumer) Observe(consumer, eventType, result string) {
	if c == nil || c.results == nil {
		return
	}
	c.results.WithLabelValues(normalizeLabel(consumer), normalizeLabel(eventType), result).Inc()
}
