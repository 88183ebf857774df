package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/aura-storefront/api/controllers"
	ordercontrollers "github.com/angelmondragon/aura-storefront/api/controllers/orders"
	"github.com/angelmondragon/aura-storefront/api/middleware"
	"github.com/angelmondragon/aura-storefront/internal/auth"
	"github.com/angelmondragon/aura-storefront/internal/orders"
	"github.com/angelmondragon/aura-storefront/internal/products"
	"github.com/angelmondragon/aura-storefront/internal/wishlist"
	"github.com/angelmondragon/aura-storefront/pkg/auth/session"
	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/metrics"
	pkgredis "github.com/angelmondragon/aura-storefront/pkg/redis"
	"github.com/go-chi/chi/v5"
)

// RedisStore is the slice of the redis client the router needs: idempotency
// records for order placement and fixed-window counters for auth throttling.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Params bundles everything NewRouter wires.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	Readiness       []controllers.ReadinessCheck
	Sessions        session.AccessSessionChecker
	Redis           RedisStore
	AuthService     auth.Service
	ProductService  products.Service
	WishlistService wishlist.Service
	OrderService    orders.Service
	HTTPMetrics     *metrics.HTTP
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if p.HTTPMetrics != nil {
		r.Use(middleware.Metrics(p.HTTPMetrics))
	}
	r.Use(middleware.CORS(cfg.CORS))

	requireAuth := middleware.Auth(cfg.JWT, p.Sessions, logg)
	requireAdmin := middleware.RequireAdmin(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness...))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), p.Redis, logg)).
			Post("/", controllers.UsersRegister(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), p.Redis, logg)).
			Post("/login", controllers.UsersLogin(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", controllers.UsersLogout(p.AuthService, logg))
			r.Get("/profile", controllers.UsersProfile(p.AuthService, logg))
			r.Get("/wishlist", controllers.WishlistList(p.WishlistService, logg))
			r.Post("/wishlist", controllers.WishlistToggle(p.WishlistService, logg))
		})
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.ProductService, logg))
		r.Get("/{id}", controllers.ProductGet(p.ProductService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/", controllers.AdminCreateProduct(p.ProductService, logg))
			r.Put("/{id}", controllers.AdminUpdateProduct(p.ProductService, logg))
			r.Delete("/{id}", controllers.AdminDeleteProduct(p.ProductService, logg))
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(middleware.Idempotency(p.Redis, cfg.Idempotency.OrderTTL, logg)).
			Post("/", ordercontrollers.Create(p.OrderService, logg))
		r.Get("/myorders", ordercontrollers.Mine(p.OrderService, logg))
		r.Get("/{id}", ordercontrollers.Get(p.OrderService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", ordercontrollers.AdminList(p.OrderService, logg))
			r.Put("/{id}/pay", ordercontrollers.MarkPaid(p.OrderService, logg))
			r.Put("/{id}/deliver", ordercontrollers.MarkDelivered(p.OrderService, logg))
		})
	})

	return r
}
