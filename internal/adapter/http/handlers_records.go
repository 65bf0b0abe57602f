package http

import "net/http"

// ListBookings handles GET /api/v1/bookings
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	handleList(h.Bookings.List)(w, r)
}

// CreateBooking handles POST /api/v1/bookings
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.BodyLimit, h.Bookings.Create)(w, r)
}

// GetBooking handles GET /api/v1/bookings/{id}
func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Bookings.Get, "booking not found")(w, r)
}

// UpdateBooking handles PUT /api/v1/bookings/{id}
func (h *Handlers) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.BodyLimit, h.Bookings.Update, "booking not found")(w, r)
}

// DeleteBooking handles DELETE /api/v1/bookings/{id}
func (h *Handlers) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Bookings.Delete, "booking not found")(w, r)
}

// ListAnnouncements handles GET /api/v1/announcements
func (h *Handlers) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	handleList(h.Announcements.List)(w, r)
}

// GetAnnouncement handles GET /api/v1/announcements/{id}
func (h *Handlers) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Announcements.Get, "announcement not found")(w, r)
}

// PublishAnnouncement handles POST /api/v1/announcements
func (h *Handlers) PublishAnnouncement(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.BodyLimit, h.Announcements.Publish)(w, r)
}

// DeleteAnnouncement handles DELETE /api/v1/announcements/{id}
func (h *Handlers) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Announcements.Delete, "announcement not found")(w, r)
}

