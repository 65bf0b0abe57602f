package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/port/messagequeue"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

func testAuthConfig() config.Auth {
	return config.Auth{
		JWTSecret:         "test-secret-key-must-be-long-enough",
		AccessTokenExpiry: 15 * time.Minute,
		Issuer:            "propertyhub-test",
		Audience:          "propertyhub",
		BcryptCost:        4, // low cost for fast tests
	}
}

// as returns a context carrying an authenticated principal.
func as(tenantID int64, userID string, roles ...user.Role) context.Context {
	return tenancy.WithIdentity(context.Background(), tenancy.Identity{
		TenantID: tenantID,
		UserID:   userID,
		Roles:    roles,
		Source:   tenancy.SourceBearer,
	})
}

// publicTenant returns a context carrying only a tenant, as resolved from the tenant header.
func publicTenant(tenantID int64) context.Context {
	return tenancy.WithIdentity(context.Background(), tenancy.Identity{
		TenantID: tenantID,
		Source:   tenancy.SourceHeader,
	})
}

// fakeQueue delivers published messages synchronously to subscribers.
type fakeQueue struct {
	mu        sync.Mutex
	handlers  map[string][]messagequeue.Handler
	published []string
	fail      error
}

var _ messagequeue.Queue = (*fakeQueue)(nil)

func (q *fakeQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	if q.fail != nil {
		q.mu.Unlock()
		return q.fail
	}
	q.published = append(q.published, subject)
	hs := append([]messagequeue.Handler(nil), q.handlers[subject]...)
	q.mu.Unlock()

	for _, h := range hs {
		if err := h(ctx, subject, data); err != nil {
			return err
		}
	}
	return nil
}

func (q *fakeQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers == nil {
		q.handlers = make(map[string][]messagequeue.Handler)
	}
	q.handlers[subject] = append(q.handlers[subject], h)
	return func() {}, nil
}

func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.published)
}

// fakeCache is a synchronous map cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

var errBrokerDown = errors.New("broker unavailable")
