package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// publicPaths accept callers without a principal. Only these honor the
// tenant key header and subdomain.
var publicPaths = map[string]bool{
	"/health":               true,
	"/api/v1/auth/login":    true,
	"/api/v1/public/tenant": true,
}

// IsPublic reports whether path is served without authentication.
func IsPublic(path string) bool {
	return publicPaths[path]
}

// ResolutionObserver is told which strategy identified each request.
type ResolutionObserver interface {
	Resolved(ctx context.Context, source string)
}

// Authenticate installs the caller's identity for the lifetime of the request.
// The identity is cleared when the handler returns, however it returns.
// Public paths admit anonymous callers; every other path requires a resolved
// identity. observer may be nil.
func Authenticate(res *Resolver, observer ResolutionObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, holder := tenancy.Begin(r.Context())
			defer holder.Clear()
			r = r.WithContext(ctx)

			public := IsPublic(r.URL.Path)
			id, err := res.Resolve(r, public)
			switch {
			case err == nil:
				if err := holder.Set(id); err != nil {
					slog.ErrorContext(ctx, "install identity", "error", err)
					writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
					return
				}
				if observer != nil {
					observer.Resolved(ctx, string(id.Source))
				}
			case public && errors.Is(err, errNoCredentials):
				// anonymous
			case errors.Is(err, domain.ErrIdentityUnresolved):
				slog.InfoContext(ctx, "identity unresolved", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, "IDENTITY_UNRESOLVED", "identity could not be resolved")
				return
			default:
				slog.ErrorContext(ctx, "identity resolution failed", "error", err)
				writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
