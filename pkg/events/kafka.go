package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes with a shared kafka-go writer; the topic is set per message.
type KafkaSink struct {
	brokers []string
	writer  kafkaWriter
}

func NewKafkaSink(cfg config.KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &KafkaSink{brokers: cfg.Brokers, writer: writer}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, msg Message) (string, error) {
	if msg.Topic == "" {
		return "", errors.New("kafka topic is required")
	}
	headers := make([]kafka.Header, 0, len(msg.Attributes))
	for k, v := range msg.Attributes {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	err := s.writer.WriteMessages(ctx, kafka.Message{
		Topic:   msg.Topic,
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("kafka write: %w", err)
	}
	return msg.ID, nil
}

// Ping dials the first reachable broker.
func (s *KafkaSink) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range s.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("kafka brokers unreachable: %w", lastErr)
}

func (s *KafkaSink) Close() error { return s.writer.Close() }

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource consumes the order events topic as part of a consumer group.
// Offsets are committed on Ack; a Nack leaves the offset uncommitted.
type KafkaSource struct {
	reader kafkaReader
	logg   *logger.Logger
}

func NewKafkaSource(cfg config.KafkaConfig, logg *logger.Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.OrdersTopic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka orders topic and group id are required")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.OrdersTopic,
		GroupID: cfg.GroupID,
	})
	if logg == nil {
		logg = logger.Nop()
	}
	return &KafkaSource{reader: reader, logg: logg}, nil
}

func (s *KafkaSource) Receive(ctx context.Context, handler Handler) error {
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logg.Error(ctx, "kafka fetch failed", err)
			continue
		}

		delivery := NewDelivery(kafkaToMessage(msg), func() {
			if err := s.reader.CommitMessages(ctx, msg); err != nil {
				s.logg.Error(ctx, "kafka commit failed", err)
			}
		}, func() {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"topic":     msg.Topic,
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}), "kafka message nacked; offset left uncommitted")
		})
		handler(ctx, delivery)
	}
}

func (s *KafkaSource) Close() error { return s.reader.Close() }

func kafkaToMessage(msg kafka.Message) Message {
	attrs := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		attrs[h.Key] = string(h.Value)
	}
	return Message{
		ID:         attrs[AttrEventID],
		Topic:      msg.Topic,
		Key:        string(msg.Key),
		Data:       msg.Value,
		Attributes: attrs,
	}
}
