package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/service"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// errNoCredentials is returned when every strategy declined.
var errNoCredentials = fmt.Errorf("no credentials presented: %w", domain.ErrIdentityUnresolved)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*user.TokenClaims, error)
}

// TenantLookup resolves active tenants.
type TenantLookup interface {
	ActiveByID(ctx context.Context, id int64) (*tenant.Tenant, error)
	ActiveByKey(ctx context.Context, key string) (*tenant.Tenant, error)
}

// Strategy derives an identity from one kind of request evidence.
// It returns ok=false with a nil error to let the next strategy try, and a
// non-nil error to stop resolution.
type Strategy interface {
	Resolve(r *http.Request, public bool) (id tenancy.Identity, ok bool, err error)
}

// Resolver runs strategies in order; the first to resolve or fail wins.
type Resolver struct {
	strategies []Strategy
}

// NewResolver creates a Resolver. Order matters: put authoritative strategies first.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Resolve returns the identity of r. public reports whether the route accepts
// tenant-only identities.
func (res *Resolver) Resolve(r *http.Request, public bool) (tenancy.Identity, error) {
	for _, s := range res.strategies {
		id, ok, err := s.Resolve(r, public)
		if err != nil {
			return tenancy.Identity{}, err
		}
		if ok {
			return id, nil
		}
	}
	return tenancy.Identity{}, errNoCredentials
}

// BearerStrategy resolves a verified principal from "Authorization: Bearer".
type BearerStrategy struct {
	Tokens  TokenVerifier
	Tenants TenantLookup
}

func (s BearerStrategy) Resolve(r *http.Request, _ bool) (tenancy.Identity, bool, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return tenancy.Identity{}, false, nil
	}
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return tenancy.Identity{}, false, fmt.Errorf("%w: invalid authorization header", domain.ErrIdentityUnresolved)
	}

	claims, err := s.Tokens.Verify(raw)
	if err != nil {
		return tenancy.Identity{}, false, err
	}
	if claims.TenantID > 0 {
		if _, err := s.Tenants.ActiveByID(r.Context(), claims.TenantID); err != nil {
			return tenancy.Identity{}, false, tenantUnresolved(err)
		}
	}

	return tenancy.Identity{
		TenantID: claims.TenantID,
		UserID:   claims.Subject,
		Roles:    claims.Roles,
		Source:   tenancy.SourceBearer,
	}, true, nil
}

// HeaderStrategy resolves a tenant, without a principal, from a public key
// header. It is ignored on non-public routes.
type HeaderStrategy struct {
	Header  string
	Tenants TenantLookup
}

func (s HeaderStrategy) Resolve(r *http.Request, public bool) (tenancy.Identity, bool, error) {
	if !public {
		return tenancy.Identity{}, false, nil
	}
	key := r.Header.Get(s.Header)
	if key == "" {
		return tenancy.Identity{}, false, nil
	}
	t, err := s.Tenants.ActiveByKey(r.Context(), key)
	if err != nil {
		return tenancy.Identity{}, false, tenantUnresolved(err)
	}
	return tenancy.Identity{TenantID: t.ID, Source: tenancy.SourceHeader}, true, nil
}

// SubdomainStrategy resolves a tenant from hosts of the form <key>.<BaseDomain>
// on public routes. An empty BaseDomain disables it.
type SubdomainStrategy struct {
	BaseDomain string
	Tenants    TenantLookup
}

func (s SubdomainStrategy) Resolve(r *http.Request, public bool) (tenancy.Identity, bool, error) {
	if s.BaseDomain == "" || !public {
		return tenancy.Identity{}, false, nil
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	key, found := strings.CutSuffix(strings.ToLower(host), "."+strings.ToLower(s.BaseDomain))
	if !found || key == "" || strings.Contains(key, ".") {
		return tenancy.Identity{}, false, nil
	}
	t, err := s.Tenants.ActiveByKey(r.Context(), key)
	if err != nil {
		return tenancy.Identity{}, false, tenantUnresolved(err)
	}
	return tenancy.Identity{TenantID: t.ID, Source: tenancy.SourceSubdomain}, true, nil
}

// tenantUnresolved hides whether a tenant is unknown or inactive. Store
// failures pass through unchanged.
func tenantUnresolved(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, service.ErrTenantInactive) {
		return fmt.Errorf("%w: unknown or inactive tenant", domain.ErrIdentityUnresolved)
	}
	return err
}
