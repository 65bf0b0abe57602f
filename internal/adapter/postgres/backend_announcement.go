package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/announcement"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// AnnouncementBackend implements tenancy.Backend for announcements.
type AnnouncementBackend struct {
	pool *pgxpool.Pool
}

// NewAnnouncementBackend creates an AnnouncementBackend on pool.
func NewAnnouncementBackend(pool *pgxpool.Pool) *AnnouncementBackend {
	return &AnnouncementBackend{pool: pool}
}

const announcementColumns = `id, tenant_id, title, body, published_by, created_at`

func scanAnnouncement(row scannable) (*announcement.Announcement, error) {
	var a announcement.Announcement
	if err := row.Scan(&a.ID, &a.TenantID, &a.Title, &a.Body, &a.PublishedBy, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementBackend) Insert(ctx context.Context, scope tenancy.Scope, a *announcement.Announcement) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	if a.TenantID != scope.TenantID() {
		return fmt.Errorf("insert announcement for tenant %d: %w", a.TenantID, domain.ErrCrossTenant)
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO announcements (tenant_id, title, body, published_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		scope.TenantID(), a.Title, a.Body, a.PublishedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

func (r *AnnouncementBackend) Get(ctx context.Context, scope tenancy.Scope, id int64) (*announcement.Announcement, error) {
	if !scope.Valid() {
		return nil, domain.ErrTenantNotSet
	}
	a, err := scanAnnouncement(r.pool.QueryRow(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1 AND tenant_id = $2`,
		id, scope.TenantID()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, classifyMiss(ctx, r.pool, "announcements", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement %d: %w", id, err)
	}
	return a, nil
}

func (r *AnnouncementBackend) List(ctx context.Context, scope tenancy.Scope) ([]*announcement.Announcement, error) {
	if !scope.Valid() {
		return nil, domain.ErrTenantNotSet
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC`,
		scope.TenantID())
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var out []*announcement.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnnouncementBackend) Update(ctx context.Context, scope tenancy.Scope, a *announcement.Announcement) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements SET title = $3, body = $4 WHERE id = $1 AND tenant_id = $2`,
		a.ID, scope.TenantID(), a.Title, a.Body)
	if err != nil {
		return fmt.Errorf("update announcement %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return classifyMiss(ctx, r.pool, "announcements", a.ID)
	}
	return nil
}

func (r *AnnouncementBackend) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1 AND tenant_id = $2`, id, scope.TenantID())
	if err != nil {
		return fmt.Errorf("delete announcement %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return classifyMiss(ctx, r.pool, "announcements", id)
	}
	return nil
}
