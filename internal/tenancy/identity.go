// Package tenancy carries the caller's identity through a request and enforces
// tenant scoping on every store operation.
//
// An identity is installed once per request into a Holder bound to the request
// context and cleared when the request ends. Code anywhere below the request
// boundary reads it through the context; it is never passed as a parameter and
// never stored in package state.
package tenancy

import (
	"context"
	"errors"
	"sync"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
)

// Source names the resolution strategy that produced an identity.
type Source string

const (
	SourceBearer    Source = "bearer"
	SourceHeader    Source = "header"
	SourceSubdomain Source = "subdomain"
	SourceInternal  Source = "internal"
)

// Identity is the resolved caller of one request.
// A zero TenantID means no tenant; an empty UserID means no authenticated principal.
type Identity struct {
	TenantID int64
	UserID   string
	Roles    user.Roles
	Source   Source
}

// Tenant returns the tenant id and whether one is set.
func (i Identity) Tenant() (int64, bool) {
	return i.TenantID, i.TenantID > 0
}

// Authenticated reports whether the identity carries a verified principal.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// ErrHolderCleared is returned when an identity is installed after its request ended.
var ErrHolderCleared = errors.New("identity holder already cleared")

// Holder is the per-request identity slot. It accepts exactly one identity and
// returns nothing once cleared.
type Holder struct {
	mu      sync.RWMutex
	id      Identity
	set     bool
	cleared bool
}

// Set installs id. Only one identity may be installed per request.
func (h *Holder) Set(id Identity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cleared {
		return ErrHolderCleared
	}
	if h.set {
		return domain.ErrIdentityAlreadySet
	}
	h.id = id
	h.set = true
	return nil
}

// Get returns the installed identity, or false before Set and after Clear.
func (h *Holder) Get() (Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.set || h.cleared {
		return Identity{}, false
	}
	return h.id, true
}

// Clear drops the identity. Contexts that outlive the request observe absence.
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.id = Identity{}
	h.set = false
	h.cleared = true
}

type holderCtxKey struct{}

// Begin opens an empty identity holder bound to the returned context.
// The caller must Clear the holder when the request ends.
func Begin(ctx context.Context) (context.Context, *Holder) {
	h := &Holder{}
	return context.WithValue(ctx, holderCtxKey{}, h), h
}

// WithIdentity opens a holder already carrying id. It is meant for work that
// does not enter through the HTTP pipeline, such as CLI commands.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx, h := Begin(ctx)
	_ = h.Set(id) // fresh holder, cannot fail
	return ctx
}

func holderFrom(ctx context.Context) *Holder {
	if ctx == nil {
		return nil
	}
	h, _ := ctx.Value(holderCtxKey{}).(*Holder)
	return h
}

// FromContext returns the ambient identity of ctx.
func FromContext(ctx context.Context) (Identity, bool) {
	h := holderFrom(ctx)
	if h == nil {
		return Identity{}, false
	}
	return h.Get()
}

// CurrentTenantID returns the ambient tenant id, if any.
func CurrentTenantID(ctx context.Context) (int64, bool) {
	id, ok := FromContext(ctx)
	if !ok {
		return 0, false
	}
	return id.Tenant()
}

// RequireTenantID returns the ambient tenant id or ErrTenantNotSet.
func RequireTenantID(ctx context.Context) (int64, error) {
	tid, ok := CurrentTenantID(ctx)
	if !ok {
		return 0, domain.ErrTenantNotSet
	}
	return tid, nil
}

// CurrentRoles returns the roles of the ambient principal, or nil.
func CurrentRoles(ctx context.Context) user.Roles {
	id, ok := FromContext(ctx)
	if !ok || !id.Authenticated() {
		return nil
	}
	return id.Roles
}
