// Package booking defines amenity bookings, an illustrative tenant-scoped record.
package booking

import (
	"time"

	"github.com/Strob0t/PropertyHub/internal/domain"
)

// Booking reserves an amenity for a time window.
type Booking struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenant_id"`
	AmenityID  int64     `json:"amenity_id"`
	ResidentID string    `json:"resident_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (b *Booking) RecordID() int64       { return b.ID }
func (b *Booking) SetRecordID(id int64)  { b.ID = id }
func (b *Booking) OwnerTenant() int64    { return b.TenantID }
func (b *Booking) AssignTenant(id int64) { b.TenantID = id }

// Overlaps reports whether b and other reserve the same amenity at the same time.
// Windows are half-open, so back-to-back bookings do not overlap.
func (b *Booking) Overlaps(other *Booking) bool {
	if b.ID != 0 && b.ID == other.ID {
		return false
	}
	return b.AmenityID == other.AmenityID &&
		b.StartsAt.Before(other.EndsAt) &&
		other.StartsAt.Before(b.EndsAt)
}

// CreateRequest is the input for booking an amenity.
// TenantID is accepted on the wire only so that spoofing attempts can be detected;
// it never determines ownership.
type CreateRequest struct {
	TenantID  int64     `json:"tenant_id,omitempty"`
	AmenityID int64     `json:"amenity_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Notes     string    `json:"notes,omitempty"`
}

// Validate checks the booking window and amenity.
func (r *CreateRequest) Validate() error {
	if r.AmenityID <= 0 {
		return domain.Validationf("amenity_id is required")
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return domain.Validationf("starts_at and ends_at are required")
	}
	if !r.EndsAt.After(r.StartsAt) {
		return domain.Validationf("ends_at must be after starts_at")
	}
	return nil
}

// UpdateRequest changes the window or notes of a booking.
type UpdateRequest struct {
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}
