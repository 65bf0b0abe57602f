package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
)

// TenantStore keeps tenants in a map keyed by id.
type TenantStore struct {
	mu      sync.RWMutex
	seq     int64
	tenants map[int64]tenant.Tenant
}

// NewTenantStore creates an empty TenantStore.
func NewTenantStore() *TenantStore {
	return &TenantStore{tenants: make(map[int64]tenant.Tenant)}
}

func (s *TenantStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Key == req.Key {
			return nil, fmt.Errorf("create tenant %s: %w", req.Key, domain.ErrConflict)
		}
	}
	now := time.Now().UTC()
	s.seq++
	t := tenant.Tenant{
		ID:          s.seq,
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tenants[t.ID] = t
	return &t, nil
}

func (s *TenantStore) GetTenant(_ context.Context, id int64) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant %d: %w", id, domain.ErrNotFound)
	}
	return &t, nil
}

func (s *TenantStore) GetTenantByKey(_ context.Context, key string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.Key == key {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("get tenant %q: %w", key, domain.ErrNotFound)
}

func (s *TenantStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *TenantStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tenants[t.ID]
	if !ok {
		return fmt.Errorf("update tenant %d: %w", t.ID, domain.ErrNotFound)
	}
	cur.Name = t.Name
	cur.Description = t.Description
	cur.Active = t.Active
	cur.UpdatedAt = time.Now().UTC()
	s.tenants[t.ID] = cur
	*t = cur
	return nil
}

func (s *TenantStore) DeleteTenant(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenants[id]; !ok {
		return fmt.Errorf("delete tenant %d: %w", id, domain.ErrNotFound)
	}
	delete(s.tenants, id)
	return nil
}
