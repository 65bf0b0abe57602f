package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/PropertyHub/internal/adapter/memory"
	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

func newTestAuthService() (*AuthService, *memory.UserStore) {
	users := memory.NewUserStore()
	cfg := testAuthConfig()
	return NewAuthService(users, NewTokenIssuer(cfg), authz.NewGate(nil), cfg), users
}

func register(t *testing.T, svc *AuthService, tenantID int64, email string, roles ...user.Role) *user.User {
	t.Helper()
	u, err := svc.RegisterUser(as(tenantID, "admin", user.RoleTenantAdmin), user.CreateRequest{
		Email:    email,
		Name:     "Test User",
		Password: "Password123",
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	u := register(t, svc, 7, "pm@acme.test", user.RoleManager)
	if u.TenantID != 7 {
		t.Errorf("tenant = %d, want 7", u.TenantID)
	}

	resp, err := svc.Login(publicTenant(7), user.LoginRequest{Email: "pm@acme.test", Password: "Password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("access token is empty")
	}
	if resp.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", resp.ExpiresIn)
	}

	claims, err := svc.tokens.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.TenantID != 7 || claims.Subject != u.ID {
		t.Errorf("claims = tid %d sub %s, want tid 7 sub %s", claims.TenantID, claims.Subject, u.ID)
	}
}

func TestAuthService_LoginIsTenantScoped(t *testing.T) {
	svc, _ := newTestAuthService()
	register(t, svc, 7, "pm@acme.test", user.RoleManager)

	tests := []struct {
		name string
		ctx  context.Context
		req  user.LoginRequest
	}{
		{"other tenant", publicTenant(9), user.LoginRequest{Email: "pm@acme.test", Password: "Password123"}},
		{"no tenant", context.Background(), user.LoginRequest{Email: "pm@acme.test", Password: "Password123"}},
		{"wrong password", publicTenant(7), user.LoginRequest{Email: "pm@acme.test", Password: "wrong-password"}},
		{"unknown email", publicTenant(7), user.LoginRequest{Email: "ghost@acme.test", Password: "Password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(tt.ctx, tt.req)
			if !errors.Is(err, domain.ErrIdentityUnresolved) {
				t.Fatalf("expected ErrIdentityUnresolved, got %v", err)
			}
			if err.Error() != errInvalidCredentials.Error() {
				t.Errorf("error should not reveal the cause, got %q", err)
			}
		})
	}
}

func TestAuthService_LoginValidation(t *testing.T) {
	svc, _ := newTestAuthService()
	_, err := svc.Login(publicTenant(7), user.LoginRequest{Email: "pm@acme.test"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthService_DisabledUser(t *testing.T) {
	svc, users := newTestAuthService()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := users.CreateUser(context.Background(), &user.User{
		ID:           "u-off",
		TenantID:     7,
		Email:        "gone@acme.test",
		PasswordHash: string(hash),
		Roles:        user.Roles{user.RoleResident},
		Enabled:      false,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(publicTenant(7), user.LoginRequest{Email: "gone@acme.test", Password: "Password123"}); !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("expected ErrIdentityUnresolved for disabled user, got %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	svc, _ := newTestAuthService()
	u := register(t, svc, 7, "res@acme.test", user.RoleResident)

	me, err := svc.Me(as(7, u.ID, user.RoleResident))
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "res@acme.test" {
		t.Errorf("email = %q", me.Email)
	}

	if _, err := svc.Me(publicTenant(7)); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Errorf("anonymous Me: expected ErrAuthenticationRequired, got %v", err)
	}
	// A token for another tenant never finds the user.
	if _, err := svc.Me(as(9, u.ID, user.RoleResident)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign Me: expected ErrNotFound, got %v", err)
	}
}

func TestAuthService_RegisterGating(t *testing.T) {
	svc, _ := newTestAuthService()
	req := user.CreateRequest{Email: "new@acme.test", Name: "New", Password: "Password123", Roles: user.Roles{user.RoleResident}}

	if _, err := svc.RegisterUser(as(7, "m-1", user.RoleManager), req); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("manager: expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.RegisterUser(publicTenant(7), req); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Errorf("anonymous: expected ErrAuthenticationRequired, got %v", err)
	}
	// A platform admin acting outside any tenant has no tenant to register into.
	if _, err := svc.RegisterUser(as(0, "root", user.RolePlatformAdmin), req); !errors.Is(err, domain.ErrTenantNotSet) {
		t.Errorf("platform admin without tenant: expected ErrTenantNotSet, got %v", err)
	}

	escalate := req
	escalate.Roles = user.Roles{user.RolePlatformAdmin}
	_, err := svc.RegisterUser(as(7, "admin", user.RoleTenantAdmin), escalate)
	var denied *authz.DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("escalation: expected DeniedError, got %v", err)
	}

	bad := req
	bad.Password = "short"
	if _, err := svc.RegisterUser(as(7, "admin", user.RoleTenantAdmin), bad); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bad password: expected ErrValidation, got %v", err)
	}

	if _, err := svc.RegisterUser(as(7, "admin", user.RoleTenantAdmin), req); err != nil {
		t.Fatalf("tenant admin register: %v", err)
	}
	if _, err := svc.RegisterUser(as(7, "admin", user.RoleTenantAdmin), req); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate: expected ErrConflict, got %v", err)
	}
	// Same email in another tenant is a different user.
	if _, err := svc.RegisterUser(as(9, "admin", user.RoleTenantAdmin), req); err != nil {
		t.Errorf("same email in tenant 9: %v", err)
	}
}

func TestAuthService_PlatformAdmin(t *testing.T) {
	svc, _ := newTestAuthService()
	root := tenancy.WithIdentity(context.Background(), tenancy.Identity{
		UserID: "cli",
		Roles:  user.Roles{user.RolePlatformAdmin},
		Source: tenancy.SourceInternal,
	})

	admin, err := svc.CreatePlatformAdmin(root, user.CreateRequest{
		Email: "ops@propertyhub.test", Name: "Ops", Password: "Password123",
	})
	if err != nil {
		t.Fatalf("CreatePlatformAdmin: %v", err)
	}
	if admin.TenantID != 0 || !admin.Roles.Has(user.RolePlatformAdmin) {
		t.Fatalf("platform admin = %+v", admin)
	}

	resp, err := svc.Login(context.Background(), user.LoginRequest{Email: "ops@propertyhub.test", Password: "Password123"})
	if err != nil {
		t.Fatalf("platform login: %v", err)
	}
	if resp.User.TenantID != 0 {
		t.Errorf("platform admin logged in with tenant %d", resp.User.TenantID)
	}

	if _, err := svc.CreatePlatformAdmin(as(7, "admin", user.RoleTenantAdmin), user.CreateRequest{
		Email: "x@y.test", Name: "X", Password: "Password123",
	}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("tenant admin minting platform admin: expected ErrAccessDenied, got %v", err)
	}
}

func TestAuthService_ListUsers(t *testing.T) {
	svc, _ := newTestAuthService()
	register(t, svc, 7, "a@acme.test", user.RoleResident)
	register(t, svc, 7, "b@acme.test", user.RoleStaff)
	register(t, svc, 9, "c@other.test", user.RoleResident)

	got, err := svc.ListUsers(as(7, "admin", user.RoleTenantAdmin))
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("tenant 7 sees %d users, want 2", len(got))
	}
	for _, u := range got {
		if u.TenantID != 7 {
			t.Errorf("foreign user %s in tenant 7 listing", u.Email)
		}
	}

	if _, err := svc.ListUsers(as(7, "r", user.RoleResident)); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("resident: expected ErrAccessDenied, got %v", err)
	}
}
