package events

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

func TestDeliverySettlement(t *testing.T) {
	var acked, nacked int
	d := NewDelivery(Message{ID: "m1"}, func() { acked++ }, func() { nacked++ })
	d.Ack()
	d.Nack()
	if acked != 1 || nacked != 1 {
		t.Fatalf("expected one ack and one nack, got %d/%d", acked, nacked)
	}

	// nil callbacks must not panic
	NewDelivery(Message{}, nil, nil).Ack()
}

func TestLogSinkWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	sink := NewLogSink(logg)

	id, err := sink.Publish(context.Background(), Message{
		Topic:      "order-events",
		Data:       []byte(`{"orderId":"o1"}`),
		Attributes: map[string]string{AttrEventType: "order_created"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated message id")
	}
	out := buf.String()
	if !strings.Contains(out, "order_created") || !strings.Contains(out, "event published") {
		t.Fatalf("unexpected log output %s", out)
	}
}

type stubWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *stubWriter) Close() error { return nil }

func TestKafkaSinkPublishCarriesHeaders(t *testing.T) {
	writer := &stubWriter{}
	sink := &KafkaSink{brokers: []string{"localhost:9092"}, writer: writer}

	id, err := sink.Publish(context.Background(), Message{
		ID:         "evt-1",
		Topic:      "aura.order-events",
		Key:        "order-1",
		Data:       []byte("{}"),
		Attributes: map[string]string{AttrEventID: "evt-1"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if id != "evt-1" {
		t.Fatalf("expected id evt-1, got %q", id)
	}
	if len(writer.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(writer.msgs))
	}
	got := kafkaToMessage(writer.msgs[0])
	if got.ID != "evt-1" || got.Key != "order-1" || got.Topic != "aura.order-events" {
		t.Fatalf("unexpected round trip %+v", got)
	}

	if _, err := sink.Publish(context.Background(), Message{}); err == nil {
		t.Fatal("expected missing topic to fail")
	}

	writer.err = errors.New("broker down")
	if _, err := sink.Publish(context.Background(), Message{Topic: "t"}); err == nil {
		t.Fatal("expected writer error to propagate")
	}
}

type stubReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *stubReader) Close() error { return nil }

func TestKafkaSourceCommitsOnAck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &stubReader{
		cancel: cancel,
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte("a"), Headers: []kafka.Header{{Key: AttrEventID, Value: []byte("e1")}}},
			{Offset: 2, Value: []byte("b")},
		},
	}
	source := &KafkaSource{reader: reader, logg: logger.Nop()}

	var seen []string
	err := source.Receive(ctx, func(_ context.Context, d *Delivery) {
		seen = append(seen, string(d.Data))
		if d.ID == "e1" {
			d.Ack()
			return
		}
		d.Nack()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 deliveries, got %v", seen)
	}
	if len(reader.committed) != 1 || reader.committed[0].Offset != 1 {
		t.Fatalf("expected only offset 1 committed, got %+v", reader.committed)
	}
}

func TestOrdersTopicAndSourceSelection(t *testing.T) {
	cfg := &config.Config{
		PubSub: config.PubSubConfig{OrdersTopic: "ps-topic"},
		Kafka:  config.KafkaConfig{OrdersTopic: "kafka-topic"},
	}
	if got := OrdersTopic(cfg); got != logTopic {
		t.Fatalf("expected log topic by default, got %q", got)
	}
	cfg.Events.Backend = "KAFKA"
	if got := OrdersTopic(cfg); got != "kafka-topic" {
		t.Fatalf("expected kafka topic, got %q", got)
	}
	cfg.Events.Backend = config.EventsBackendPubSub
	if got := OrdersTopic(cfg); got != "ps-topic" {
		t.Fatalf("expected pubsub topic, got %q", got)
	}

	cfg.Events.Backend = config.EventsBackendLog
	if _, err := NewSource(context.Background(), cfg, nil); !errors.Is(err, ErrReceiveUnsupported) {
		t.Fatalf("expected ErrReceiveUnsupported, got %v", err)
	}
	sink, err := NewSink(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("log sink: %v", err)
	}
	if _, ok := sink.(*LogSink); !ok {
		t.Fatalf("expected *LogSink, got %T", sink)
	}
}
