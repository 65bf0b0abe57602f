package http

import "net/http"

// ListTenants handles GET /api/v1/admin/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	handleList(h.Tenants.List)(w, r)
}

// CreateTenant handles POST /api/v1/admin/tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.BodyLimit, h.Tenants.Create)(w, r)
}

// GetTenant handles GET /api/v1/admin/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Get, "tenant not found")(w, r)
}

// UpdateTenant handles PUT /api/v1/admin/tenants/{id}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.BodyLimit, h.Tenants.Update, "tenant not found")(w, r)
}

// DeactivateTenant handles POST /api/v1/admin/tenants/{id}/deactivate
func (h *Handlers) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Deactivate, "tenant not found")(w, r)
}

// DeleteTenant handles DELETE /api/v1/admin/tenants/{id}
func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Tenants.Delete, "tenant not found")(w, r)
}
