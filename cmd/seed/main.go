package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/aura-storefront/internal/products"
	"github.com/angelmondragon/aura-storefront/internal/seed"
	"github.com/angelmondragon/aura-storefront/internal/users"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/db"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/mongodb"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to seed a production environment")
		os.Exit(1)
	}

	params := seed.Params{Password: cfg.Password, Logger: logg}
	if cfg.DB.UsesMongo() {
		client, err := mongodb.New(ctx, cfg.Mongo, logg)
		requireResource(ctx, logg, "mongo", err)
		defer client.Close()
		requireResource(ctx, logg, "mongo indexes", client.EnsureIndexes(ctx))
		params.Users = users.NewMongoRepository(client)
		params.Products = products.NewMongoRepository(client)
	} else {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		defer dbClient.Close()
		params.Users = users.NewRepository(dbClient.DB())
		params.Products = products.NewRepository(dbClient.DB())
	}

	res, err := seed.Run(ctx, params)
	requireResource(ctx, logg, "seed", err)
	logg.Info(logg.WithFields(ctx, map[string]any{
		"admin_created":    res.AdminCreated,
		"products_created": res.ProductsCreated,
	}), "data imported")
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to initialize "+name, err)
	os.Exit(1)
}
