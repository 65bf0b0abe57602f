package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "propertyhub"

// Metrics holds the isolation and authorization counters. It satisfies
// tenancy.Observer and authz.Observer.
type Metrics struct {
	crossTenant      metric.Int64Counter
	tenantNotSet     metric.Int64Counter
	accessDenied     metric.Int64Counter
	identityResolved metric.Int64Counter
	cacheLookups     metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.crossTenant, err = meter.Int64Counter("propertyhub.tenancy.cross_tenant_blocked",
		metric.WithDescription("Accesses to records owned by another tenant that were hidden"))
	if err != nil {
		return nil, err
	}

	m.tenantNotSet, err = meter.Int64Counter("propertyhub.tenancy.tenant_not_set",
		metric.WithDescription("Tenant-scoped operations attempted without a tenant"))
	if err != nil {
		return nil, err
	}

	m.accessDenied, err = meter.Int64Counter("propertyhub.authz.denied",
		metric.WithDescription("Operations refused by role gating"))
	if err != nil {
		return nil, err
	}

	m.identityResolved, err = meter.Int64Counter("propertyhub.identity.resolved",
		metric.WithDescription("Requests by identity resolution source"))
	if err != nil {
		return nil, err
	}

	m.cacheLookups, err = meter.Int64Counter("propertyhub.tenant_cache.lookups",
		metric.WithDescription("Tenant directory cache lookups by result"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveLogDrops exports the running count of log records dropped by the
// async log handler.
func (m *Metrics) ObserveLogDrops(dropped func() int64) error {
	_, err := otel.Meter(meterName).Int64ObservableCounter("propertyhub.log.records_dropped",
		metric.WithDescription("Log records discarded because the async buffer was full"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(dropped())
			return nil
		}),
	)
	return err
}

// CrossTenantAccess implements tenancy.Observer.
func (m *Metrics) CrossTenantAccess(ctx context.Context, resource string) {
	m.crossTenant.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

// TenantNotSet implements tenancy.Observer.
func (m *Metrics) TenantNotSet(ctx context.Context, resource string) {
	m.tenantNotSet.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", resource)))
}

// AccessDenied implements authz.Observer.
func (m *Metrics) AccessDenied(ctx context.Context, reason string) {
	m.accessDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Resolved records the strategy that identified a request; "none" for anonymous.
func (m *Metrics) Resolved(ctx context.Context, source string) {
	m.identityResolved.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// CacheLookup records a tenant cache hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
