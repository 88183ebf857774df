package controllers

import (
	"net/http"

	"github.com/angelmondragon/aura-storefront/api/responses"
	"github.com/angelmondragon/aura-storefront/api/validators"
	"github.com/angelmondragon/aura-storefront/internal/auth"
	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

// UsersLogin exchanges credentials for a bearer token.
func UsersLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
