package controllers

import (
	"net/http"

	"github.com/angelmondragon/aura-storefront/api/responses"
	"github.com/angelmondragon/aura-storefront/api/validators"
	"github.com/angelmondragon/aura-storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// UsersRegister creates a customer account and signs it in.
func UsersRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithUserID(r.Context(), result.ID), "user registered")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
