package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/aura-storefront/api/controllers"
	"github.com/angelmondragon/aura-storefront/api/routes"
	"github.com/angelmondragon/aura-storefront/internal/auth"
	"github.com/angelmondragon/aura-storefront/internal/orders"
	"github.com/angelmondragon/aura-storefront/internal/products"
	"github.com/angelmondragon/aura-storefront/internal/seed"
	"github.com/angelmondragon/aura-storefront/internal/wishlist"
	"github.com/angelmondragon/aura-storefront/pkg/auth/session"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/metrics"
	"github.com/angelmondragon/aura-storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	store, err := openBackend(context.Background(), cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	if cfg.FeatureFlags.SeedOnBoot && !cfg.App.IsProd() {
		if _, err := seed.Run(context.Background(), seed.Params{
			Users:    store.users,
			Products: store.products,
			Password: cfg.Password,
			Logger:   logg,
		}); err != nil {
			return err
		}
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserStore:      store.users,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}
	productService, err := products.NewService(store.products)
	if err != nil {
		return err
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		WishlistStore: store.wishlist,
		ProductStore:  store.products,
	})
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		OrderStore: store.orders,
		UserStore:  store.users,
	})
	if err != nil {
		return err
	}

	checks := append(store.checks, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	api := routes.NewRouter(routes.Params{
		Config:          cfg,
		Logger:          logg,
		Readiness:       checks,
		Sessions:        sessionManager,
		Redis:           redisClient,
		AuthService:     authService,
		ProductService:  productService,
		WishlistService: wishlistService,
		OrderService:    orderService,
		HTTPMetrics:     metrics.NewHTTP(prometheus.DefaultRegisterer),
	})

	root := chi.NewRouter()
	root.Handle("/metrics", promhttp.Handler())
	root.Mount("/", api)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"driver":  cfg.DB.Driver,
		"service": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
