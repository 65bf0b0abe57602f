package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/booking"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// BookingBackend implements tenancy.Backend for bookings. Every statement
// carries the scope's tenant in its WHERE clause.
type BookingBackend struct {
	pool *pgxpool.Pool
}

// NewBookingBackend creates a BookingBackend on pool.
func NewBookingBackend(pool *pgxpool.Pool) *BookingBackend {
	return &BookingBackend{pool: pool}
}

const bookingColumns = `id, tenant_id, amenity_id, resident_id, starts_at, ends_at, notes, created_at`

func scanBooking(row scannable) (*booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(&b.ID, &b.TenantID, &b.AmenityID, &b.ResidentID, &b.StartsAt, &b.EndsAt, &b.Notes, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookingBackend) Insert(ctx context.Context, scope tenancy.Scope, b *booking.Booking) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	if b.TenantID != scope.TenantID() {
		return fmt.Errorf("insert booking for tenant %d: %w", b.TenantID, domain.ErrCrossTenant)
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (tenant_id, amenity_id, resident_id, starts_at, ends_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		scope.TenantID(), b.AmenityID, b.ResidentID, b.StartsAt, b.EndsAt, b.Notes,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *BookingBackend) Get(ctx context.Context, scope tenancy.Scope, id int64) (*booking.Booking, error) {
	if !scope.Valid() {
		return nil, domain.ErrTenantNotSet
	}
	b, err := scanBooking(r.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1 AND tenant_id = $2`,
		id, scope.TenantID()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, classifyMiss(ctx, r.pool, "bookings", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

func (r *BookingBackend) List(ctx context.Context, scope tenancy.Scope) ([]*booking.Booking, error) {
	if !scope.Valid() {
		return nil, domain.ErrTenantNotSet
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE tenant_id = $1 ORDER BY starts_at, id`,
		scope.TenantID())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BookingBackend) Update(ctx context.Context, scope tenancy.Scope, b *booking.Booking) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET starts_at = $3, ends_at = $4, notes = $5
		WHERE id = $1 AND tenant_id = $2`,
		b.ID, scope.TenantID(), b.StartsAt, b.EndsAt, b.Notes)
	if err != nil {
		return fmt.Errorf("update booking %d: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return classifyMiss(ctx, r.pool, "bookings", b.ID)
	}
	return nil
}

func (r *BookingBackend) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1 AND tenant_id = $2`, id, scope.TenantID())
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return classifyMiss(ctx, r.pool, "bookings", id)
	}
	return nil
}
