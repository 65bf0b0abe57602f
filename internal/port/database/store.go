// Package database defines the database store ports (interfaces).
//
// Tenant-scoped records are not listed here: they are reached through
// tenancy.Backend implementations wrapped in a tenancy.Store.
package database

import (
	"context"

	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
)

// TenantStore persists tenants. It is not tenant-scoped; access is gated to
// platform admins by the services that use it.
type TenantStore interface {
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id int64) (*tenant.Tenant, error)
	GetTenantByKey(ctx context.Context, key string) (*tenant.Tenant, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error
	DeleteTenant(ctx context.Context, id int64) error
}

// UserStore persists users. Every lookup names the tenant explicitly;
// tenantID 0 addresses platform admins.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, tenantID int64, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, tenantID int64, email string) (*user.User, error)
	ListUsers(ctx context.Context, tenantID int64) ([]user.User, error)
}
