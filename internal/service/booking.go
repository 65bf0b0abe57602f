package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	photel "github.com/Strob0t/PropertyHub/internal/adapter/otel"
	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/booking"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// Roles that may change any booking of their tenant, not only their own.
var bookingManagers = user.Roles{user.RoleManager, user.RoleTenantAdmin, user.RoleStaff}

// BookingService manages amenity bookings. Any authenticated principal of a
// tenant may book; residents may only change their own bookings.
type BookingService struct {
	store *tenancy.Store[*booking.Booking]
	mu    sync.Mutex // serializes overlap check and write
	now   func() time.Time
}

// NewBookingService creates a BookingService on store.
func NewBookingService(store *tenancy.Store[*booking.Booking]) *BookingService {
	return &BookingService{store: store, now: time.Now}
}

// Create books an amenity for the calling principal. A tenant id in req is
// ignored; the booking always belongs to the caller's tenant.
func (s *BookingService) Create(ctx context.Context, req booking.CreateRequest) (*booking.Booking, error) {
	ctx, span := photel.StartServiceSpan(ctx, "booking.create", attribute.Int64("amenity.id", req.AmenityID))
	defer span.End()

	id, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := &booking.Booking{
		TenantID:   req.TenantID,
		AmenityID:  req.AmenityID,
		ResidentID: id.UserID,
		StartsAt:   req.StartsAt.UTC(),
		EndsAt:     req.EndsAt.UTC(),
		Notes:      req.Notes,
		CreatedAt:  s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOverlap(ctx, b); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "booking created", "booking_id", b.ID, "amenity_id", b.AmenityID)
	return b, nil
}

// Get returns a booking of the caller's tenant.
func (s *BookingService) Get(ctx context.Context, id int64) (*booking.Booking, error) {
	return s.store.Get(ctx, id)
}

// List returns the bookings of the caller's tenant.
func (s *BookingService) List(ctx context.Context) ([]*booking.Booking, error) {
	return s.store.List(ctx)
}

// Update reschedules or annotates a booking.
func (s *BookingService) Update(ctx context.Context, bookingID int64, req booking.UpdateRequest) (*booking.Booking, error) {
	ctx, span := photel.StartServiceSpan(ctx, "booking.update", attribute.Int64("booking.id", bookingID))
	defer span.End()

	id, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Update(ctx, bookingID, func(b *booking.Booking) error {
		if err := mayModify(id, b); err != nil {
			return err
		}
		if req.StartsAt != nil {
			b.StartsAt = req.StartsAt.UTC()
		}
		if req.EndsAt != nil {
			b.EndsAt = req.EndsAt.UTC()
		}
		if req.Notes != nil {
			b.Notes = *req.Notes
		}
		if !b.EndsAt.After(b.StartsAt) {
			return domain.Validationf("ends_at must be after starts_at")
		}
		return s.checkOverlap(ctx, b)
	})
}

// Delete cancels a booking.
func (s *BookingService) Delete(ctx context.Context, bookingID int64) error {
	id, err := principal(ctx)
	if err != nil {
		return err
	}
	b, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := mayModify(id, b); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, bookingID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "booking cancelled", "booking_id", bookingID)
	return nil
}

// checkOverlap must be called with s.mu held.
func (s *BookingService) checkOverlap(ctx context.Context, b *booking.Booking) error {
	existing, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if b.Overlaps(other) {
			return fmt.Errorf("amenity %d already booked from %s to %s: %w",
				b.AmenityID, other.StartsAt.Format(time.RFC3339), other.EndsAt.Format(time.RFC3339), domain.ErrConflict)
		}
	}
	return nil
}

func mayModify(id tenancy.Identity, b *booking.Booking) error {
	if b.ResidentID == id.UserID || id.Roles.Intersects(bookingManagers) {
		return nil
	}
	return &authz.DeniedError{Message: "residents can only change their own bookings"}
}

// principal returns the authenticated caller of ctx.
func principal(ctx context.Context) (tenancy.Identity, error) {
	id, ok := tenancy.FromContext(ctx)
	if !ok || !id.Authenticated() {
		return tenancy.Identity{}, domain.ErrAuthenticationRequired
	}
	return id, nil
}
