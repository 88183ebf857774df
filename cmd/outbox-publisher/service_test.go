package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/enums"
	"github.com/angelmondragon/aura-storefront/pkg/events"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
	"github.com/angelmondragon/aura-storefront/pkg/outbox/payloads"
	"github.com/angelmondragon/aura-storefront/pkg/outbox/registry"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			newOutboxRow(t, 0),
			newOutboxRow(t, 0),
		},
	}
	sink := &fakeSink{errs: []error{errors.New("transient"), nil}}
	service := newTestService(t, repo, sink, &fakeRegistry{resolved: resolvedEvent()}, &fakeDLQRepo{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestPublishResolvedCarriesAttributes(t *testing.T) {
	row := newOutboxRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	sink := &fakeSink{}
	service := newTestService(t, repo, sink, &fakeRegistry{resolved: resolvedEvent()}, &fakeDLQRepo{}, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sink.sent))
	}
	msg := sink.sent[0]
	if msg.Topic != "orders-topic" {
		t.Fatalf("unexpected topic %q", msg.Topic)
	}
	if msg.Key != row.AggregateID {
		t.Fatalf("expected aggregate id as key, got %q", msg.Key)
	}
	if msg.Attributes[events.AttrEventType] != string(enums.EventOrderCreated) {
		t.Fatalf("missing event type attribute %+v", msg.Attributes)
	}
	if msg.Attributes[events.AttrEventID] != row.ID {
		t.Fatalf("expected event id %s, got %s", row.ID, msg.Attributes[events.AttrEventID])
	}
	if string(msg.Data) != row.Payload {
		t.Fatalf("expected envelope forwarded verbatim")
	}
}

func TestServiceProcessBatchWritesDLQOnNonRetryable(t *testing.T) {
	row := newOutboxRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	dlqRepo := &fakeDLQRepo{}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	service := newTestService(t, repo, &fakeSink{}, reg, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != row.ID {
		t.Fatalf("dlq event_id mismatch: %s", entry.EventID)
	}
	if entry.Payload != row.Payload {
		t.Fatalf("dlq payload mismatch")
	}
	if entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected row marked terminal")
	}
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	row := newOutboxRow(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	sink := &fakeSink{errs: []error{errors.New("transient")}}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, sink, &fakeRegistry{resolved: resolvedEvent()}, dlqRepo, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	if dlqRepo.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", dlqRepo.entries[0].ErrorReason)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("terminal rows must not be marked failed")
	}
}

func TestMaybePruneRunsOncePerInterval(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeSink{}, &fakeRegistry{}, &fakeDLQRepo{}, &config.OutboxConfig{
		Retention: 24 * time.Hour,
	})
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	service.maybePrune(context.Background())
	service.maybePrune(context.Background())
	if repo.prunes != 1 {
		t.Fatalf("expected one prune, got %d", repo.prunes)
	}
	if want := now.Add(-24 * time.Hour); !repo.lastCutoff.Equal(want) {
		t.Fatalf("unexpected cutoff %v", repo.lastCutoff)
	}

	now = now.Add(pruneInterval)
	service.maybePrune(context.Background())
	if repo.prunes != 2 {
		t.Fatalf("expected second prune after interval, got %d", repo.prunes)
	}
}

func TestBackoffHelpers(t *testing.T) {
	if got := nextBackoff(0, time.Second, maxBackoff); got != 2*time.Second {
		t.Fatalf("unexpected backoff %v", got)
	}
	if got := nextBackoff(8*time.Second, time.Second, maxBackoff); got != maxBackoff {
		t.Fatalf("expected cap at %v, got %v", maxBackoff, got)
	}
	if got := withJitter(time.Second); got < time.Second || got >= time.Second+jitterWindow {
		t.Fatalf("jitter out of range: %v", got)
	}
	if withJitter(0) != 0 {
		t.Fatal("expected zero duration to stay zero")
	}
}

func TestNewServiceRequiresSink(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:        &config.Config{},
		Logger:        logger.Nop(),
		DB:            &fakeDB{},
		Repository:    &fakeRepo{},
		Registry:      &fakeRegistry{},
		DLQRepository: &fakeDLQRepo{},
	})
	if err == nil {
		t.Fatal("expected missing sink to fail")
	}
}

func newTestService(t *testing.T, repo outboxRepository, sink events.Sink, reg registryResolver, dlq dlqRepository, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logg,
		DB:            &fakeDB{},
		Sink:          sink,
		Repository:    repo,
		Registry:      reg,
		DLQRepository: dlq,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func newOutboxRow(tb testing.TB, attempts int) models.OutboxEvent {
	tb.Helper()
	id := uuid.NewString()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    id,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{"orderId":"o-1"}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.NewString(),
		Payload:       string(payload),
		AttemptCount:  attempts,
		CreatedAt:     time.Now(),
	}
}

func resolvedEvent() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			Topic:         "orders-topic",
		},
		Payload: &payloads.OrderCreatedEvent{},
	}
}

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []string
	failed     []string
	terminal   []string
	prunes     int
	lastCutoff time.Time
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id string) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id string, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id string, err error) error {
	f.terminal = append(f.terminal, id)
	return nil
}

func (f *fakeRepo) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.prunes++
	f.lastCutoff = cutoff
	return 0, nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeSink struct {
	errs []error
	sent []events.Message
}

func (f *fakeSink) Publish(_ context.Context, msg events.Message) (string, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	f.sent = append(f.sent, msg)
	return msg.ID, nil
}

func (f *fakeSink) Ping(context.Context) error { return nil }
func (f *fakeSink) Close() error               { return nil }

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Descriptor.AggregateType = event.AggregateType
	resolved.Envelope.EventID = event.ID
	resolved.Envelope.OccurredAt = time.Now()
	return &resolved, f.err
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
