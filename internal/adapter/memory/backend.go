// Package memory provides in-process implementations of the store ports.
// They back the test suites and the "memory" storage driver for local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// Backend is a mutex-guarded tenancy.Backend. Records are cloned on the way in
// and out so callers never share state with the map.
type Backend[T tenancy.Record] struct {
	mu    sync.RWMutex
	seq   int64
	rows  map[int64]T
	clone func(T) T
}

// NewBackend creates an empty backend. clone must return a deep copy.
func NewBackend[T tenancy.Record](clone func(T) T) *Backend[T] {
	return &Backend[T]{rows: make(map[int64]T), clone: clone}
}

func (b *Backend[T]) Insert(_ context.Context, scope tenancy.Scope, rec T) error {
	if !scope.Valid() {
		return domain.ErrTenantNotSet
	}
	if rec.OwnerTenant() != scope.TenantID() {
		return fmt.Errorf("insert for tenant %d under scope %d: %w", rec.OwnerTenant(), scope.TenantID(), domain.ErrCrossTenant)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	rec.SetRecordID(b.seq)
	b.rows[b.seq] = b.clone(rec)
	return nil
}

func (b *Backend[T]) Get(_ context.Context, scope tenancy.Scope, id int64) (T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var zero T
	row, err := b.lookup(scope, id)
	if err != nil {
		return zero, err
	}
	return b.clone(row), nil
}

func (b *Backend[T]) List(_ context.Context, scope tenancy.Scope) ([]T, error) {
	if !scope.Valid() {
		return nil, domain.ErrTenantNotSet
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []T
	for _, row := range b.rows {
		if row.OwnerTenant() == scope.TenantID() {
			out = append(out, b.clone(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

func (b *Backend[T]) Update(_ context.Context, scope tenancy.Scope, rec T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, err := b.lookup(scope, rec.RecordID())
	if err != nil {
		return err
	}
	next := b.clone(rec)
	next.AssignTenant(row.OwnerTenant())
	b.rows[rec.RecordID()] = next
	return nil
}

func (b *Backend[T]) Delete(_ context.Context, scope tenancy.Scope, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.lookup(scope, id); err != nil {
		return err
	}
	delete(b.rows, id)
	return nil
}

// lookup must be called with b.mu held.
func (b *Backend[T]) lookup(scope tenancy.Scope, id int64) (T, error) {
	var zero T
	if !scope.Valid() {
		return zero, domain.ErrTenantNotSet
	}
	row, ok := b.rows[id]
	if !ok {
		return zero, domain.ErrNotFound
	}
	if row.OwnerTenant() != scope.TenantID() {
		return zero, domain.ErrCrossTenant
	}
	return row, nil
}
