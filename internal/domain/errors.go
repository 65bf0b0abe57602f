// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the write collides with existing state.
var ErrConflict = errors.New("conflict")

// ErrValidation indicates the caller supplied invalid input.
var ErrValidation = errors.New("validation failed")

// ErrIdentityUnresolved indicates no valid credential, header or origin identified the caller.
var ErrIdentityUnresolved = errors.New("identity unresolved")

// ErrTenantNotSet indicates a tenant-scoped operation ran without an ambient tenant.
// It is always fatal to the operation and never defaulted.
var ErrTenantNotSet = errors.New("tenant not set")

// ErrAuthenticationRequired indicates a gated operation ran without an authenticated principal.
var ErrAuthenticationRequired = errors.New("authentication required")

// ErrAccessDenied indicates the principal holds none of the required roles.
var ErrAccessDenied = errors.New("access denied")

// ErrIdentityAlreadySet indicates a second identity was installed into the same request.
var ErrIdentityAlreadySet = errors.New("identity already set for this request")

// ErrCrossTenant marks an attempt to reach a record owned by another tenant.
// It wraps ErrNotFound so callers outside the store cannot tell it apart.
var ErrCrossTenant = fmt.Errorf("cross-tenant access: %w", ErrNotFound)

// Validationf returns an ErrValidation carrying a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
