// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"regexp"
	"time"

	"github.com/Strob0t/PropertyHub/internal/domain"
)

// Tenant is an isolated customer organization sharing the deployment.
type Tenant struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public is the subset of a tenant exposed to unauthenticated callers.
type Public struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Public returns the unauthenticated view of t.
func (t *Tenant) Public() Public {
	return Public{Key: t.Key, Name: t.Name, Description: t.Description}
}

var keyRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// ValidKey reports whether key is a well-formed public tenant key.
func ValidKey(key string) bool {
	return keyRegex.MatchString(key)
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Name == "" {
		return domain.Validationf("tenant name is required")
	}
	if !ValidKey(r.Key) {
		return domain.Validationf("invalid key %q: must be 3-64 lowercase alphanumeric characters or hyphens", r.Key)
	}
	return nil
}

// UpdateRequest holds the fields that can be updated on a tenant.
// The key is immutable once issued.
type UpdateRequest struct {
	Name        string  `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// ChangeEvent is published whenever a tenant's resolvable state changes.
type ChangeEvent struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}
