package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PropertyHub/internal/domain"
)

// Backend persists records of one kind. Every method takes the Scope it must
// filter on; rows outside the scope are neither returned nor modified.
//
// Get, Update and Delete return domain.ErrNotFound for a missing row and may
// return domain.ErrCrossTenant when they can tell the row exists under another
// tenant.
type Backend[T Record] interface {
	Insert(ctx context.Context, scope Scope, rec T) error
	Get(ctx context.Context, scope Scope, id int64) (T, error)
	List(ctx context.Context, scope Scope) ([]T, error)
	Update(ctx context.Context, scope Scope, rec T) error
	Delete(ctx context.Context, scope Scope, id int64) error
}

// Observer is notified of isolation events. Implementations must not block.
type Observer interface {
	CrossTenantAccess(ctx context.Context, resource string)
	TenantNotSet(ctx context.Context, resource string)
}

// Store is the only way services reach tenant-scoped records. It derives the
// scope from the ambient identity, stamps the owner on create, and turns
// cross-tenant hits into plain not-found errors.
type Store[T Record] struct {
	resource string
	backend  Backend[T]
	observer Observer
}

// NewStore wraps backend. resource names the record kind in logs and errors.
// observer may be nil.
func NewStore[T Record](resource string, backend Backend[T], observer Observer) *Store[T] {
	return &Store[T]{resource: resource, backend: backend, observer: observer}
}

// Create stamps rec with the ambient tenant and inserts it. Any owner already
// present on rec is overwritten.
func (s *Store[T]) Create(ctx context.Context, rec T) error {
	scope, err := s.scope(ctx)
	if err != nil {
		return err
	}

	if owner := rec.OwnerTenant(); owner != 0 && owner != scope.TenantID() {
		slog.WarnContext(ctx, "client-supplied tenant ignored",
			"resource", s.resource,
			"supplied_tenant_id", owner,
		)
		s.crossTenant(ctx)
	}
	rec.AssignTenant(scope.TenantID())

	if err := s.backend.Insert(ctx, scope, rec); err != nil {
		return fmt.Errorf("create %s: %w", s.resource, err)
	}
	return nil
}

// Get returns the record with id if it belongs to the ambient tenant.
func (s *Store[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	scope, err := s.scope(ctx)
	if err != nil {
		return zero, err
	}

	rec, err := s.backend.Get(ctx, scope, id)
	if err != nil {
		return zero, s.hide(ctx, "get", id, err)
	}
	if !scope.Owns(rec) {
		return zero, s.hide(ctx, "get", id, domain.ErrCrossTenant)
	}
	return rec, nil
}

// List returns every record of the ambient tenant.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	scope, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.backend.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.resource, err)
	}

	out := recs[:0]
	for _, rec := range recs {
		if !scope.Owns(rec) {
			slog.ErrorContext(ctx, "backend returned foreign row",
				"resource", s.resource,
				"id", rec.RecordID(),
			)
			s.crossTenant(ctx)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Update loads the record under the ambient scope, applies mutate, and writes
// it back. The owner is carried over from the stored row whatever mutate does.
func (s *Store[T]) Update(ctx context.Context, id int64, mutate func(T) error) (T, error) {
	var zero T
	scope, err := s.scope(ctx)
	if err != nil {
		return zero, err
	}

	rec, err := s.backend.Get(ctx, scope, id)
	if err != nil {
		return zero, s.hide(ctx, "update", id, err)
	}
	if !scope.Owns(rec) {
		return zero, s.hide(ctx, "update", id, domain.ErrCrossTenant)
	}

	owner := rec.OwnerTenant()
	if err := mutate(rec); err != nil {
		return zero, err
	}
	rec.SetRecordID(id)
	rec.AssignTenant(owner)

	if err := s.backend.Update(ctx, scope, rec); err != nil {
		return zero, s.hide(ctx, "update", id, err)
	}
	return rec, nil
}

// Delete removes the record with id if it belongs to the ambient tenant.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	scope, err := s.scope(ctx)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, scope, id); err != nil {
		return s.hide(ctx, "delete", id, err)
	}
	return nil
}

func (s *Store[T]) scope(ctx context.Context) (Scope, error) {
	scope, err := ScopeFrom(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "tenant-scoped operation without tenant", "resource", s.resource)
		if s.observer != nil {
			s.observer.TenantNotSet(ctx, s.resource)
		}
		return Scope{}, fmt.Errorf("%s: %w", s.resource, err)
	}
	return scope, nil
}

// hide reports cross-tenant hits and strips them down to not-found, so the
// caller learns nothing about rows it does not own.
func (s *Store[T]) hide(ctx context.Context, op string, id int64, err error) error {
	if errors.Is(err, domain.ErrCrossTenant) {
		slog.WarnContext(ctx, "cross-tenant access blocked",
			"resource", s.resource,
			"op", op,
			"id", id,
		)
		s.crossTenant(ctx)
		return fmt.Errorf("%s %s %d: %w", op, s.resource, id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s %s %d: %w", op, s.resource, id, err)
}

func (s *Store[T]) crossTenant(ctx context.Context) {
	if s.observer != nil {
		s.observer.CrossTenantAccess(ctx, s.resource)
	}
}
