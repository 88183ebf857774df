package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/pkg/db/dbtest"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	"github.com/angelmondragon/aura-storefront/pkg/events"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

func orderEvent(id string) DomainEvent {
	return DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   id,
		Actor:         &ActorRef{UserID: "admin-1", Role: "admin"},
		Data:          map[string]string{"orderId": id},
	}
}

func TestEmitIfNotExistsQueuesOnce(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := client.WithTx(ctx, func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(ctx, tx, orderEvent("order-1"))
		})
		require.NoError(t, err)
	}

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal([]byte(rows[0].Payload), &envelope))
	assert.Equal(t, rows[0].ID, envelope.EventID)
	assert.Equal(t, 1, envelope.Version)
	assert.Equal(t, "admin-1", envelope.Actor.UserID)
	assert.JSONEq(t, `{"orderId":"order-1"}`, string(envelope.Data))
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	assert.Error(t, svc.Emit(context.Background(), nil, orderEvent("o")))
	assert.Error(t, svc.EmitIfNotExists(context.Background(), nil, orderEvent("o")))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	dlq := NewDLQRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, orderEvent("order-a")); err != nil {
			return err
		}
		return svc.Emit(ctx, tx, orderEvent("order-b"))
	}))

	var batch []models.OutboxEvent
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		batch, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	require.Len(t, batch, 2)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, batch[0].ID); err != nil {
			return err
		}
		return repo.MarkFailedTx(tx, batch[1].ID, errors.New("broker down"))
	}))

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		batch, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	require.Len(t, batch, 1)
	assert.Equal(t, 1, batch[0].AttemptCount)
	require.NotNil(t, batch[0].LastError)
	assert.Equal(t, "broker down", *batch[0].LastError)

	failed := batch[0]
	msg := "gave up"
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       failed.ID,
			EventType:     failed.EventType,
			AggregateType: failed.AggregateType,
			AggregateID:   failed.AggregateID,
			Payload:       failed.Payload,
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &msg,
			AttemptCount:  failed.AttemptCount + 1,
		}); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, failed.ID, errors.New(msg))
	}))

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		batch, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		return err
	}))
	assert.Empty(t, batch)

	entry, err := dlq.FindByEventID(ctx, failed.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, entry.ErrorReason)

	missing, err := dlq.FindByEventID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	deleted, err := repo.DeletePublishedBefore(nil, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestTruncateDLQError(t *testing.T) {
	long := make([]byte, maxDLQErrorLen+10)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncateDLQError(string(long)), maxDLQErrorLen)
	assert.Equal(t, "short", truncateDLQError("short"))
}

type captureSink struct {
	msgs []events.Message
	err  error
}

func (s *captureSink) Publish(_ context.Context, msg events.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.msgs = append(s.msgs, msg)
	return msg.ID, nil
}

func (s *captureSink) Ping(context.Context) error { return nil }
func (s *captureSink) Close() error               { return nil }

func TestDirectPublisher(t *testing.T) {
	sink := &captureSink{}
	pub, err := NewDirectPublisher(sink, "order-events", nil)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), orderEvent("order-7")))
	require.Len(t, sink.msgs, 1)
	msg := sink.msgs[0]
	assert.Equal(t, "order-events", msg.Topic)
	assert.Equal(t, "order-7", msg.Key)
	assert.Equal(t, string(enums.EventOrderPaid), msg.Attributes[events.AttrEventType])
	assert.Equal(t, msg.ID, msg.Attributes[events.AttrEventID])

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &envelope))
	assert.Equal(t, msg.ID, envelope.EventID)

	sink.err = errors.New("down")
	assert.Error(t, pub.Publish(context.Background(), orderEvent("order-8")))
	assert.Error(t, pub.Publish(context.Background(), orderEvent("")))

	_, err = NewDirectPublisher(nil, "t", nil)
	assert.Error(t, err)
}
