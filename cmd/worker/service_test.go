package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubRunner struct{ err error }

func (s stubRunner) Run(context.Context) error { return s.err }

func newTestWorker(t *testing.T, redisErr, runErr error) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:             &config.Config{},
		Logger:             logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		Redis:              stubPinger{err: redisErr},
		OrderEmailConsumer: stubRunner{err: runErr},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRunFailsWhenRedisUnavailable(t *testing.T) {
	svc := newTestWorker(t, errors.New("refused"), nil)
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected readiness failure")
	}
}

func TestRunPropagatesConsumerError(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc := newTestWorker(t, nil, boom)
	if err := svc.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logger.Nop(),
		Redis:  stubPinger{},
	})
	if err == nil {
		t.Fatal("expected missing consumer to fail")
	}
}
