// Package storefront assembles the client-side managers into one App.
package storefront

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/angelmondragon/aura-storefront/internal/storefront/cart"
	"github.com/angelmondragon/aura-storefront/internal/storefront/checkout"
	"github.com/angelmondragon/aura-storefront/internal/storefront/notify"
	"github.com/angelmondragon/aura-storefront/internal/storefront/session"
	"github.com/angelmondragon/aura-storefront/internal/storefront/wishlist"
	"github.com/angelmondragon/aura-storefront/pkg/apiclient"
	"github.com/angelmondragon/aura-storefront/pkg/clientstore"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type Options struct {
	Store      clientstore.Store
	Notifier   notify.Notifier
	Logger     *logger.Logger
	HTTPClient *http.Client
}

// App owns the client store and every manager built on it.
type App struct {
	cfg      *config.ClientConfig
	logg     *logger.Logger
	store    clientstore.Store
	notifier notify.Notifier

	API      *apiclient.Client
	Cart     *cart.Manager
	Session  *session.Manager
	Wishlist *wishlist.Manager
	Admin    *checkout.Admin
}

func New(ctx context.Context, cfg *config.ClientConfig, opts Options) (*App, error) {
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client config is required")
	}
	if opts.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client store is required")
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop()
	}

	clientOpts := []apiclient.Option{apiclient.WithLogger(logg), apiclient.WithTimeout(cfg.RequestTimeout)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(opts.HTTPClient))
	}
	api, err := apiclient.New(cfg.APIURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	sessions, err := session.New(ctx, session.Params{API: api, Store: opts.Store, Logger: logg})
	if err != nil {
		return nil, err
	}
	carts := cart.New(ctx, opts.Store, logg)

	// Signing out empties the cart, including a cart built while anonymous.
	sessions.OnChange(func(ctx context.Context, _, next *session.Session) {
		if next == nil {
			carts.Clear(ctx)
		}
	})

	wishlists, err := wishlist.New(ctx, wishlist.Params{
		API:      api,
		Sessions: sessions,
		Notifier: notifier,
		Logger:   logg,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		logg:     logg,
		store:    opts.Store,
		notifier: notifier,
		API:      api,
		Cart:     carts,
		Session:  sessions,
		Wishlist: wishlists,
		Admin:    checkout.NewAdmin(api, sessions, logg),
	}, nil
}

// NewCheckout starts a fresh checkout flow over the app's cart and session.
func (a *App) NewCheckout() (*checkout.Flow, error) {
	return checkout.New(checkout.Params{
		API:                 a.API,
		Cart:                a.Cart,
		Sessions:            a.Session,
		Logger:              a.logg,
		CardProcessingDelay: a.cfg.CardProcessingDelay,
		SubmitTimeout:       a.cfg.SubmitTimeout,
	})
}

// Notify forwards a message to the app's notifier.
func (a *App) Notify(ctx context.Context, level notify.Level, msg string) {
	a.notifier.Notify(ctx, notify.Notification{Level: level, Message: msg})
}

// Close waits for background wishlist work and closes the store.
func (a *App) Close() error {
	var err error
	err = multierr.Append(err, a.Wishlist.Close())
	err = multierr.Append(err, a.store.Close())
	return err
}
