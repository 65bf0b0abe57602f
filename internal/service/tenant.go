package service

import (
	"context"
	"encoding/json"
	"log/slog"

	photel "github.com/Strob0t/PropertyHub/internal/adapter/otel"
	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
	"github.com/Strob0t/PropertyHub/internal/port/database"
	"github.com/Strob0t/PropertyHub/internal/port/messagequeue"
	"github.com/Strob0t/PropertyHub/internal/resilience"
)

// TenantInvalidator drops cached copies of a tenant on this replica.
type TenantInvalidator interface {
	Invalidate(ctx context.Context, ev tenant.ChangeEvent)
}

// TenantService manages the tenant lifecycle. Every operation is restricted
// to platform administrators.
type TenantService struct {
	store   database.TenantStore
	gate    *authz.Gate
	local   TenantInvalidator
	queue   messagequeue.Queue
	breaker *resilience.Breaker
}

// NewTenantService creates a new TenantService. queue and breaker may be nil
// for single-replica deployments; local may be nil when nothing caches tenants.
func NewTenantService(store database.TenantStore, gate *authz.Gate, local TenantInvalidator, queue messagequeue.Queue, breaker *resilience.Breaker) *TenantService {
	return &TenantService{store: store, gate: gate, local: local, queue: queue, breaker: breaker}
}

// Create validates and creates a new tenant.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if err := s.gate.Check(ctx, platformAdminOnly); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t, err := s.store.CreateTenant(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "tenant created", "tenant", t.ID, "key", t.Key)
	return t, nil
}

// Get returns a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id int64) (*tenant.Tenant, error) {
	if err := s.gate.Check(ctx, platformAdminOnly); err != nil {
		return nil, err
	}
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	if err := s.gate.Check(ctx, platformAdminOnly); err != nil {
		return nil, err
	}
	return s.store.ListTenants(ctx)
}

// Update modifies an existing tenant. The key is immutable.
func (s *TenantService) Update(ctx context.Context, id int64, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	if err := s.gate.Check(ctx, platformAdminOnly); err != nil {
		return nil, err
	}
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}
	s.changed(ctx, t)
	return t, nil
}

// Deactivate marks a tenant inactive. Its users can no longer log in and its
// outstanding tokens stop resolving.
func (s *TenantService) Deactivate(ctx context.Context, id int64) (*tenant.Tenant, error) {
	inactive := false
	return s.Update(ctx, id, tenant.UpdateRequest{Active: &inactive})
}

// Delete removes a tenant and, through the schema, everything it owns.
func (s *TenantService) Delete(ctx context.Context, id int64) error {
	if err := s.gate.Check(ctx, platformAdminOnly); err != nil {
		return err
	}
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTenant(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "tenant deleted", "tenant", id, "key", t.Key)
	s.changed(ctx, t)
	return nil
}

// changed evicts the tenant locally and tells the other replicas. Publishing
// failures are logged and never fail the admin operation.
func (s *TenantService) changed(ctx context.Context, t *tenant.Tenant) {
	ev := tenant.ChangeEvent{ID: t.ID, Key: t.Key}
	if s.local != nil {
		s.local.Invalidate(ctx, ev)
	}
	if s.queue == nil {
		return
	}

	ctx, span := photel.StartEventSpan(ctx, messagequeue.SubjectTenantChanged)
	defer span.End()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "marshal tenant event", "error", err)
		return
	}
	publish := func() error {
		return s.queue.Publish(ctx, messagequeue.SubjectTenantChanged, data)
	}
	if s.breaker != nil {
		err = s.breaker.Execute(publish)
	} else {
		err = publish()
	}
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "tenant change event not published", "tenant", t.ID, "error", err)
	}
}
