package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/PropertyHub/internal/domain/user"
)

const userColumns = `id, tenant_id, email, name, password_hash, roles, enabled, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var (
		u        user.User
		tenantID *int64
		roles    []string
	)
	err := row.Scan(&u.ID, &tenantID, &u.Email, &u.Name, &u.PasswordHash, &roles, &u.Enabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if tenantID != nil {
		u.TenantID = *tenantID
	}
	u.Roles = rolesFromDB(roles)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, name, password_hash, roles, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, nullTenant(u.TenantID), u.Email, u.Name, u.PasswordHash, u.Roles.Strings(), u.Enabled, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return conflictWrap(err, "create user %s", u.Email)
	}
	return nil
}

// GetUser returns the user with id inside tenantID. Users of other tenants
// are reported as not found.
func (s *Store) GetUser(ctx context.Context, tenantID int64, id string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1 AND COALESCE(tenant_id, 0) = $2`, id, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, tenantID int64, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE lower(email) = lower($1) AND COALESCE(tenant_id, 0) = $2`, email, tenantID))
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, tenantID int64) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE COALESCE(tenant_id, 0) = $1 ORDER BY email`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
