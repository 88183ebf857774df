package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/aura-storefront/internal/maintenance"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/db"
	"github.com/angelmondragon/aura-storefront/pkg/instance"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/metrics"
	"github.com/angelmondragon/aura-storefront/pkg/migrate"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
	"github.com/angelmondragon/aura-storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "maintenance-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "maintenance-worker"

	logg = logger.New(logger.Options{
		ServiceName: "maintenance-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.DB.UsesMongo() {
		logg.Warn(context.Background(), "maintenance worker only prunes the sql outbox, exiting")
		return
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := maintenance.NewRedisLock(redisClient, redisClient.LockKey("maintenance:"+env), cfg.Maintenance.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}

	outboxJob, err := maintenance.OutboxRetentionJob(logg, dbClient, outbox.NewRepository(dbClient.DB()).DeletePublishedBefore, cfg.Outbox.Retention)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	dlqJob, err := maintenance.DLQRetentionJob(logg, dbClient, outbox.NewDLQRepository(dbClient.DB()).DeleteFailedBefore, cfg.Maintenance.DLQRetention)
	if err != nil {
		logg.Error(context.Background(), "failed to create dlq retention job", err)
		os.Exit(1)
	}

	service, err := maintenance.NewService(maintenance.ServiceParams{
		Logger:   logg,
		Registry: maintenance.NewRegistry(outboxJob, dlqJob),
		Lock:     lock,
		Metrics:  metrics.NewJobs(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "starting maintenance worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "maintenance worker shutting down gracefully")
}
