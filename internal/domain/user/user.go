// Package user defines the user domain model for authentication and authorization.
package user

import (
	"errors"
	"net/mail"
	"slices"
	"time"
)

// Role is a coarse-grained permission tag used for operation-level gating.
type Role string

const (
	RolePlatformAdmin Role = "platform_admin"
	RoleTenantAdmin   Role = "tenant_admin"
	RoleManager       Role = "manager"
	RoleStaff         Role = "staff"
	RoleResident      Role = "resident"
)

// ValidRoles is the closed set of roles.
var ValidRoles = map[Role]bool{
	RolePlatformAdmin: true,
	RoleTenantAdmin:   true,
	RoleManager:       true,
	RoleStaff:         true,
	RoleResident:      true,
}

// Roles is a set of roles held by a principal or required by an operation.
type Roles []Role

// Has reports whether r contains role.
func (r Roles) Has(role Role) bool {
	return slices.Contains(r, role)
}

// Intersects reports whether r and other share at least one role.
func (r Roles) Intersects(other Roles) bool {
	for _, role := range other {
		if r.Has(role) {
			return true
		}
	}
	return false
}

// Validate checks that r is non-empty and contains only known roles.
func (r Roles) Validate() error {
	if len(r) == 0 {
		return errors.New("at least one role is required")
	}
	for _, role := range r {
		if !ValidRoles[role] {
			return errors.New("invalid role: " + string(role))
		}
	}
	return nil
}

// Strings returns the roles as plain strings, for logging.
func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}

// User represents a registered principal. Platform admins have no tenant (TenantID 0).
type User struct {
	ID           string    `json:"id"`
	TenantID     int64     `json:"tenant_id,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialized
	Roles        Roles     `json:"roles"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest is the input for registering a new user.
// The tenant is taken from the caller's identity, never from the request body.
type CreateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
	Roles    Roles  `json:"roles"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	if len(r.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return r.Roles.Validate()
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken string `json:"access_token"` //nolint:gosec // response field, not a hardcoded secret
	ExpiresIn   int    `json:"expires_in"`   // seconds until access token expires
	User        User   `json:"user"`
}
