package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/angelmondragon/aura-storefront/api/controllers"
	"github.com/angelmondragon/aura-storefront/internal/orders"
	"github.com/angelmondragon/aura-storefront/internal/products"
	"github.com/angelmondragon/aura-storefront/internal/users"
	"github.com/angelmondragon/aura-storefront/internal/wishlist"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/db"
	"github.com/angelmondragon/aura-storefront/pkg/db/models"
	"github.com/angelmondragon/aura-storefront/pkg/events"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/migrate"
	"github.com/angelmondragon/aura-storefront/pkg/mongodb"
	"github.com/angelmondragon/aura-storefront/pkg/outbox"
)

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// backend is the document store selected by AURA_DB_DRIVER.
type backend struct {
	users    userStore
	products products.Store
	wishlist wishlist.Store
	orders   orders.Store
	checks   []controllers.ReadinessCheck
	closers  []io.Closer
}

func (b *backend) Close() error {
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i].Close())
	}
	return err
}

func openBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	if cfg.DB.UsesMongo() {
		return openMongo(ctx, cfg, logg)
	}
	return openSQL(ctx, cfg, logg)
}

// openSQL serves every store from gorm. Order events go through the outbox
// table and are relayed by cmd/outbox-publisher.
func openSQL(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	b := &backend{
		checks:  []controllers.ReadinessCheck{{Name: "database", Pinger: dbClient}},
		closers: []io.Closer{dbClient},
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return nil, multierr.Append(fmt.Errorf("dev migrations: %w", err), b.Close())
	}

	conn := dbClient.DB()
	orderRepo, err := orders.NewRepository(conn, outbox.NewService(outbox.NewRepository(conn), logg))
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	b.users = users.NewRepository(conn)
	b.products = products.NewRepository(conn)
	b.wishlist = wishlist.NewRepository(conn)
	b.orders = orderRepo
	return b, nil
}

// openMongo serves every store from MongoDB. There is no outbox table, so
// order events are published straight to the configured sink.
func openMongo(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	client, err := mongodb.New(ctx, cfg.Mongo, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap mongo: %w", err)
	}
	b := &backend{
		checks:  []controllers.ReadinessCheck{{Name: "mongo", Pinger: client}},
		closers: []io.Closer{client},
	}

	if err := client.EnsureIndexes(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("ensure indexes: %w", err), b.Close())
	}

	sink, err := events.NewSink(ctx, cfg, logg)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("bootstrap events sink: %w", err), b.Close())
	}
	b.closers = append(b.closers, sink)
	b.checks = append(b.checks, controllers.ReadinessCheck{Name: "events", Pinger: sink})

	publisher, err := outbox.NewDirectPublisher(sink, events.OrdersTopic(cfg), logg)
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	orderRepo, err := orders.NewMongoRepository(client, publisher, logg)
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	b.users = users.NewMongoRepository(client)
	b.products = products.NewMongoRepository(client)
	b.wishlist = wishlist.NewMongoRepository(client)
	b.orders = orderRepo
	return b, nil
}
