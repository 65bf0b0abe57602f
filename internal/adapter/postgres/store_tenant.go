package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
)

const tenantColumns = `id, key, name, description, active, created_at, updated_at`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Key, &t.Name, &t.Description, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *Store) CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (key, name, description) VALUES ($1, $2, $3)
		 RETURNING `+tenantColumns,
		req.Key, req.Name, req.Description)
	t, err := scanTenant(row)
	if err != nil {
		return nil, conflictWrap(err, "create tenant %s", req.Key)
	}
	return &t, nil
}

func (s *Store) GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %d", id)
	}
	return &t, nil
}

func (s *Store) GetTenantByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE key = $1`, key))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %q", key)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	row := s.pool.QueryRow(ctx,
		`UPDATE tenants SET name = $2, description = $3, active = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+tenantColumns,
		t.ID, t.Name, t.Description, t.Active)
	updated, err := scanTenant(row)
	if err != nil {
		return notFoundWrap(err, "update tenant %d", t.ID)
	}
	*t = updated
	return nil
}

func (s *Store) DeleteTenant(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete tenant %d", id)
}
