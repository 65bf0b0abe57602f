package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/middleware"
)

var (
	requireManager       = authz.Require("only managers can publish announcements", user.RoleManager, user.RoleTenantAdmin)
	requireTenantAdmin   = authz.Require("only tenant administrators can manage users", user.RoleTenantAdmin)
	requirePlatformAdmin = authz.Require("only platform administrators can manage tenants", user.RolePlatformAdmin)
)

// MountRoutes registers all API routes on the given chi router. The router
// must already run middleware.Authenticate; paths listed as public there are
// the only ones reachable without a principal. limiter may be nil.
func MountRoutes(r chi.Router, h *Handlers, gate *authz.Gate, limiter *middleware.RateLimiter) {
	public := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		public = limiter.Handler
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
		})

		// Public
		r.With(public).Post("/auth/login", h.Login)
		r.With(public).Get("/public/tenant", h.PublicTenant)

		r.Get("/auth/me", h.Me)

		// Bookings: any principal of the tenant; ownership checked by the service.
		r.Get("/bookings", h.ListBookings)
		r.Post("/bookings", h.CreateBooking)
		r.Get("/bookings/{id}", h.GetBooking)
		r.Put("/bookings/{id}", h.UpdateBooking)
		r.Delete("/bookings/{id}", h.DeleteBooking)

		// Announcements
		r.Get("/announcements", h.ListAnnouncements)
		r.Get("/announcements/{id}", h.GetAnnouncement)
		r.With(middleware.RequireRole(gate, requireManager)).Post("/announcements", h.PublishAnnouncement)
		r.With(middleware.RequireRole(gate, requireManager)).Delete("/announcements/{id}", h.DeleteAnnouncement)

		// Users of the caller's tenant
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(gate, requireTenantAdmin))
			r.Get("/", h.ListUsers)
			r.Post("/", h.RegisterUser)
		})

		// Platform administration
		r.Route("/admin/tenants", func(r chi.Router) {
			r.Use(middleware.RequireRole(gate, requirePlatformAdmin))
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Put("/{id}", h.UpdateTenant)
			r.Post("/{id}/deactivate", h.DeactivateTenant)
			r.Delete("/{id}", h.DeleteTenant)
		})
	})
}
