package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
	"github.com/Strob0t/PropertyHub/internal/port/cache"
	"github.com/Strob0t/PropertyHub/internal/port/database"
	"github.com/Strob0t/PropertyHub/internal/port/messagequeue"
)

// ErrTenantInactive is returned for tenants that exist but are deactivated.
var ErrTenantInactive = errors.New("tenant is inactive")

// A key that can never exist is reported like an unknown one.
var errMalformedKey = fmt.Errorf("malformed tenant key: %w", domain.ErrNotFound)

// CacheObserver is notified of tenant cache hits and misses.
type CacheObserver interface {
	CacheLookup(ctx context.Context, hit bool)
}

// lookupTimeout bounds a shared store load, which outlives any single caller.
const lookupTimeout = 5 * time.Second

// TenantDirectory resolves tenants by key or id for identity resolution.
// Lookups are cached and concurrent misses for the same key share one query.
// Only found tenants are cached.
type TenantDirectory struct {
	store    database.TenantStore
	cache    cache.Cache
	ttl      time.Duration
	group    singleflight.Group
	observer CacheObserver

	// gens counts evictions per cache key. A load that started before an
	// eviction must not write its result back.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewTenantDirectory creates a TenantDirectory. observer may be nil.
func NewTenantDirectory(store database.TenantStore, c cache.Cache, ttl time.Duration, observer CacheObserver) *TenantDirectory {
	return &TenantDirectory{store: store, cache: c, ttl: ttl, observer: observer, gens: make(map[string]uint64)}
}

func keyCacheKey(key string) string { return "tenant:key:" + key }
func idCacheKey(id int64) string    { return "tenant:id:" + strconv.FormatInt(id, 10) }

// ByKey returns the tenant with key.
func (d *TenantDirectory) ByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	if !tenant.ValidKey(key) {
		return nil, fmt.Errorf("tenant %q: %w", key, errMalformedKey)
	}
	return d.lookup(ctx, keyCacheKey(key), func(ctx context.Context) (*tenant.Tenant, error) {
		return d.store.GetTenantByKey(ctx, key)
	})
}

// ByID returns the tenant with id.
func (d *TenantDirectory) ByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	return d.lookup(ctx, idCacheKey(id), func(ctx context.Context) (*tenant.Tenant, error) {
		return d.store.GetTenant(ctx, id)
	})
}

// ActiveByKey returns the tenant with key, failing with ErrTenantInactive when deactivated.
func (d *TenantDirectory) ActiveByKey(ctx context.Context, key string) (*tenant.Tenant, error) {
	t, err := d.ByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, fmt.Errorf("tenant %q: %w", key, ErrTenantInactive)
	}
	return t, nil
}

// ActiveByID returns the tenant with id, failing with ErrTenantInactive when deactivated.
func (d *TenantDirectory) ActiveByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	t, err := d.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, fmt.Errorf("tenant %d: %w", id, ErrTenantInactive)
	}
	return t, nil
}

// Invalidate evicts both cache entries of the changed tenant. Loads already
// in flight for either entry still answer their callers but are not cached.
func (d *TenantDirectory) Invalidate(ctx context.Context, ev tenant.ChangeEvent) {
	d.bump(idCacheKey(ev.ID))
	if ev.Key != "" {
		d.bump(keyCacheKey(ev.Key))
	}
	if err := d.cache.Delete(ctx, idCacheKey(ev.ID)); err != nil {
		slog.WarnContext(ctx, "tenant cache evict failed", "tenant", ev.ID, "error", err)
	}
	if ev.Key != "" {
		if err := d.cache.Delete(ctx, keyCacheKey(ev.Key)); err != nil {
			slog.WarnContext(ctx, "tenant cache evict failed", "key", ev.Key, "error", err)
		}
	}
	slog.DebugContext(ctx, "tenant cache evicted", "tenant", ev.ID, "key", ev.Key)
}

// Subscribe evicts cache entries whenever any replica publishes a tenant change.
func (d *TenantDirectory) Subscribe(ctx context.Context, q messagequeue.Queue) (func(), error) {
	return q.Subscribe(ctx, messagequeue.SubjectTenantChanged, func(ctx context.Context, _ string, data []byte) error {
		var ev tenant.ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// A malformed event can never succeed; ack it.
			slog.ErrorContext(ctx, "discarding malformed tenant event", "error", err)
			return nil
		}
		d.Invalidate(ctx, ev)
		return nil
	})
}

func (d *TenantDirectory) lookup(ctx context.Context, cacheKey string, load func(context.Context) (*tenant.Tenant, error)) (*tenant.Tenant, error) {
	if data, ok, err := d.cache.Get(ctx, cacheKey); err == nil && ok {
		var t tenant.Tenant
		if err := json.Unmarshal(data, &t); err == nil {
			d.observe(ctx, true)
			return &t, nil
		}
	}
	d.observe(ctx, false)

	v, err, _ := d.group.Do(cacheKey, func() (any, error) {
		gen := d.generation(cacheKey)

		// Waiters share this load; one of them going away must not fail the rest.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		t, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(t); err == nil && !d.storeIfCurrent(loadCtx, cacheKey, gen, data) {
			slog.DebugContext(ctx, "tenant changed during lookup, not caching", "cache_key", cacheKey)
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	t := *v.(*tenant.Tenant)
	return &t, nil
}

func (d *TenantDirectory) generation(cacheKey string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gens[cacheKey]
}

// storeIfCurrent caches data unless cacheKey was evicted since gen was read.
// The check and the write happen under the same lock bump takes, so an
// eviction either precedes the check or follows the write.
func (d *TenantDirectory) storeIfCurrent(ctx context.Context, cacheKey string, gen uint64, data []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gens[cacheKey] != gen {
		return false
	}
	_ = d.cache.Set(ctx, cacheKey, data, d.ttl)
	return true
}

// bump marks cacheKey changed and detaches callers from any load in flight.
func (d *TenantDirectory) bump(cacheKey string) {
	d.mu.Lock()
	d.gens[cacheKey]++
	d.mu.Unlock()
	d.group.Forget(cacheKey)
}

func (d *TenantDirectory) observe(ctx context.Context, hit bool) {
	if d.observer != nil {
		d.observer.CacheLookup(ctx, hit)
	}
}
