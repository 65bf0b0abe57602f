package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/port/database"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrIdentityUnresolved)

var (
	tenantAdminOnly   = authz.Require("only tenant administrators can manage users", user.RoleTenantAdmin)
	platformAdminOnly = authz.Require("only platform administrators can manage tenants", user.RolePlatformAdmin)
)

// AuthService handles login, the current principal and user registration.
type AuthService struct {
	users      database.UserStore
	tokens     *TokenIssuer
	gate       *authz.Gate
	bcryptCost int
	dummyHash  []byte // compared against on unknown emails to keep timing flat
}

// NewAuthService creates a new authentication service.
func NewAuthService(users database.UserStore, tokens *TokenIssuer, gate *authz.Gate, cfg config.Auth) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("propertyhub-timing-guard"), cost)
	return &AuthService{
		users:      users,
		tokens:     tokens,
		gate:       gate,
		bcryptCost: cost,
		dummyHash:  dummy,
	}
}

// Login authenticates a user of the ambient tenant, or a platform user when
// the request carries no tenant, and returns an access token.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	tenantID, _ := tenancy.CurrentTenantID(ctx)
	u, err := s.users.GetUserByEmail(ctx, tenantID, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			slog.InfoContext(ctx, "login failed", "reason", "unknown email")
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		slog.InfoContext(ctx, "login failed", "reason", "bad password", "login_user_id", u.ID)
		return nil, errInvalidCredentials
	}
	if !u.Enabled {
		slog.InfoContext(ctx, "login failed", "reason", "disabled", "login_user_id", u.ID)
		return nil, errInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "login succeeded", "login_user_id", u.ID, "login_tenant_id", u.TenantID)
	return &user.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.tokens.Expiry().Seconds()),
		User:        *u,
	}, nil
}

// Me returns the authenticated principal of the request.
func (s *AuthService) Me(ctx context.Context) (*user.User, error) {
	id, ok := tenancy.FromContext(ctx)
	if !ok || !id.Authenticated() {
		return nil, domain.ErrAuthenticationRequired
	}
	return s.users.GetUser(ctx, id.TenantID, id.UserID)
}

// RegisterUser creates a user in the ambient tenant. Tenant users can never
// hold platform_admin.
func (s *AuthService) RegisterUser(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := s.gate.Check(ctx, tenantAdminOnly, platformAdminOnly); err != nil {
		return nil, err
	}
	tenantID, err := tenancy.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Roles.Has(user.RolePlatformAdmin) {
		return nil, &authz.DeniedError{Message: "platform_admin cannot be granted to tenant users"}
	}
	return s.create(ctx, tenantID, req)
}

// CreatePlatformAdmin creates a user outside any tenant holding platform_admin.
// Only an existing platform administrator (or the admin CLI) may call it.
func (s *AuthService) CreatePlatformAdmin(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := s.gate.Check(ctx, platformAdminOnly); err != nil {
		return nil, err
	}
	req.Roles = user.Roles{user.RolePlatformAdmin}
	return s.create(ctx, 0, req)
}

// ListUsers returns the users of the ambient tenant.
func (s *AuthService) ListUsers(ctx context.Context) ([]user.User, error) {
	if err := s.gate.Check(ctx, tenantAdminOnly, platformAdminOnly); err != nil {
		return nil, err
	}
	tenantID, err := tenancy.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx, tenantID)
}

func (s *AuthService) create(ctx context.Context, tenantID int64, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Roles:        req.Roles,
		Enabled:      true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "user created", "new_user_id", u.ID, "roles", u.Roles.Strings())
	return u, nil
}
