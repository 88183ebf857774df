package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aura-storefront/api/middleware"
	"github.com/angelmondragon/aura-storefront/api/responses"
	"github.com/angelmondragon/aura-storefront/api/validators"
	internalorders "github.com/angelmondragon/aura-storefront/internal/orders"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

func actorFrom(r *http.Request) internalorders.Actor {
	return internalorders.Actor{
		UserID:  middleware.UserIDFromContext(r.Context()),
		IsAdmin: middleware.IsAdminFromContext(r.Context()),
	}
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
}

// Create places an order for the caller.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}

		var body internalorders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), actorFrom(r), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithOrderID(r.Context(), order.ID)
			logg.Info(logg.WithField(ctx, "payment_method", order.PaymentMethod), "order placed")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Mine lists the caller's orders, newest first.
func Mine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		orders, err := svc.ListMine(r.Context(), actorFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// Get returns one order with its purchaser.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		order, err := svc.Get(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminList returns every order.
func AdminList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		orders, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// MarkPaid flags an order as paid.
func MarkPaid(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		order, err := svc.MarkPaid(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// MarkDelivered flags an order as delivered.
func MarkDelivered(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		order, err := svc.MarkDelivered(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
