package middleware

import (
	"errors"
	"net/http"

	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain"
)

// RequireRole returns middleware that admits callers satisfying any of reqs.
func RequireRole(gate *authz.Gate, reqs ...authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := gate.Check(r.Context(), reqs...)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			var denied *authz.DeniedError
			switch {
			case errors.Is(err, domain.ErrAuthenticationRequired):
				writeError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "authentication required")
			case errors.As(err, &denied):
				writeError(w, http.StatusForbidden, "ACCESS_DENIED", denied.Message)
			default:
				writeError(w, http.StatusForbidden, "ACCESS_DENIED", "forbidden")
			}
		})
	}
}
