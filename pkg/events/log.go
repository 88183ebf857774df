package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// LogSink writes events to the structured log. It backs local development
// where no broker is running.
type LogSink struct {
	logg *logger.Logger
}

func NewLogSink(logg *logger.Logger) *LogSink {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSink{logg: logg}
}

func (s *LogSink) Publish(ctx context.Context, msg Message) (string, error) {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}
	fields := map[string]any{
		"topic":      msg.Topic,
		"key":        msg.Key,
		"message_id": id,
		"payload":    string(msg.Data),
	}
	for k, v := range msg.Attributes {
		fields[k] = v
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "event published")
	return id, nil
}

func (s *LogSink) Ping(context.Context) error { return nil }

func (s *LogSink) Close() error { return nil }
