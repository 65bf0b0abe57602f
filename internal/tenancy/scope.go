package tenancy

import "context"

// Record is a persisted entity owned by exactly one tenant.
// The owner is assigned once, by the store, from the ambient identity.
type Record interface {
	RecordID() int64
	SetRecordID(id int64)
	OwnerTenant() int64
	AssignTenant(tenantID int64)
}

// Scope is the tenant filter applied to a backend call. Backends receive one on
// every method, so a query cannot be issued without it. It can only be obtained
// from an ambient identity.
type Scope struct {
	tenantID int64
}

// ScopeFrom derives the scope of ctx, failing with ErrTenantNotSet when the
// request carries no tenant.
func ScopeFrom(ctx context.Context) (Scope, error) {
	tid, err := RequireTenantID(ctx)
	if err != nil {
		return Scope{}, err
	}
	return Scope{tenantID: tid}, nil
}

// TenantID returns the tenant every row touched under this scope must belong to.
func (s Scope) TenantID() int64 {
	return s.tenantID
}

// Valid reports whether s was derived from an identity. The zero Scope is invalid.
func (s Scope) Valid() bool {
	return s.tenantID > 0
}

// Owns reports whether rec belongs to the scope's tenant.
func (s Scope) Owns(rec Record) bool {
	return s.Valid() && rec.OwnerTenant() == s.tenantID
}
