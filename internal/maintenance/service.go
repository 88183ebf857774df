package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/metrics"
)

const defaultInterval = 6 * time.Hour

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.Jobs
	Interval time.Duration
}

// Service sweeps every registered job on a fixed interval, once per cluster.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.Jobs
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	s.sweep(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs every job in order. A failing job does not stop the others.
func (s *Service) sweep(ctx context.Context) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "failed to acquire maintenance lock", err)
		return
	}
	if !locked {
		s.logg.Info(ctx, "maintenance already running elsewhere, skipping sweep")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "failed to release maintenance lock", err)
		}
	}()

	for _, job := range s.registry.Jobs() {
		jobCtx := s.logg.WithField(ctx, "job", job.Name())
		start := time.Now()
		err := job.Run(jobCtx)
		elapsed := time.Since(start)
		s.metrics.Observe(job.Name(), elapsed, err)

		jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
		if err != nil {
			s.logg.Error(jobCtx, "maintenance job failed", err)
			continue
		}
		s.logg.Info(jobCtx, "maintenance job completed")
	}
}
