// Package authz gates operations on the roles of the ambient principal.
//
// A guarded operation declares one or more Requirements when it is registered.
// The principal passes if it holds at least one role of at least one
// Requirement; the check runs once, before the operation body, and mutates
// nothing.
package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

// Requirement is a set of roles, any one of which admits the caller.
type Requirement struct {
	Roles   user.Roles
	Message string
}

// Require builds a Requirement. message is returned to callers that are denied.
func Require(message string, roles ...user.Role) Requirement {
	return Requirement{Roles: roles, Message: message}
}

// DeniedError is returned when the principal holds none of the required roles.
type DeniedError struct {
	Message string
}

func (e *DeniedError) Error() string {
	return domain.ErrAccessDenied.Error() + ": " + e.Message
}

// Unwrap lets errors.Is match domain.ErrAccessDenied.
func (e *DeniedError) Unwrap() error {
	return domain.ErrAccessDenied
}

// Observer is notified of every denial. Implementations must not block.
type Observer interface {
	AccessDenied(ctx context.Context, reason string)
}

// Gate checks requirements against the ambient identity.
type Gate struct {
	observer Observer
}

// NewGate creates a Gate. observer may be nil.
func NewGate(observer Observer) *Gate {
	return &Gate{observer: observer}
}

// Check returns nil when the ambient principal satisfies any of reqs.
// It fails with domain.ErrAuthenticationRequired when there is no principal and
// with a *DeniedError when no requirement matches.
func (g *Gate) Check(ctx context.Context, reqs ...Requirement) error {
	id, ok := tenancy.FromContext(ctx)
	if !ok || !id.Authenticated() {
		g.deny(ctx, "unauthenticated")
		return domain.ErrAuthenticationRequired
	}

	for _, req := range reqs {
		if id.Roles.Intersects(req.Roles) {
			return nil
		}
	}

	msg := "insufficient role"
	if len(reqs) > 0 && reqs[0].Message != "" {
		msg = reqs[0].Message
	}
	slog.InfoContext(ctx, "access denied",
		"roles", id.Roles.Strings(),
		"reason", msg,
	)
	g.deny(ctx, "role")
	return &DeniedError{Message: msg}
}

func (g *Gate) deny(ctx context.Context, reason string) {
	if g != nil && g.observer != nil {
		g.observer.AccessDenied(ctx, reason)
	}
}

// Operation is any request/response service call.
type Operation[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Guard wraps op so that it runs only for principals satisfying reqs.
// It panics at registration if reqs is empty, since an unguarded Guard is a bug.
func Guard[Req, Res any](g *Gate, op Operation[Req, Res], reqs ...Requirement) Operation[Req, Res] {
	if len(reqs) == 0 {
		panic("authz: Guard requires at least one requirement")
	}
	for _, r := range reqs {
		if len(r.Roles) == 0 {
			panic(fmt.Sprintf("authz: requirement %q has no roles", r.Message))
		}
	}
	return func(ctx context.Context, req Req) (Res, error) {
		if err := g.Check(ctx, reqs...); err != nil {
			var zero Res
			return zero, err
		}
		return op(ctx, req)
	}
}
