package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/service"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Auth          *service.AuthService
	Tenants       *service.TenantService
	Directory     *service.TenantDirectory
	Bookings      *service.BookingService
	Announcements *service.AnnouncementService
	BodyLimit     int64
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login handles POST /api/v1/auth/login. The tenant comes from the tenant key
// header or subdomain; without one the login is for a platform account.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	resp, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// PublicTenant handles GET /api/v1/public/tenant
func (h *Handlers) PublicTenant(w http.ResponseWriter, r *http.Request) {
	tid, err := tenancy.RequireTenantID(r.Context())
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	t, err := h.Directory.ActiveByID(r.Context(), tid)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, t.Public())
}

// RegisterUser handles POST /api/v1/users
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.BodyLimit, h.Auth.RegisterUser)(w, r)
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	handleList(h.Auth.ListUsers)(w, r)
}
