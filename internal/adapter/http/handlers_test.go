package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	phhttp "github.com/Strob0t/PropertyHub/internal/adapter/http"
	"github.com/Strob0t/PropertyHub/internal/adapter/memory"
	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/domain/announcement"
	"github.com/Strob0t/PropertyHub/internal/domain/booking"
	"github.com/Strob0t/PropertyHub/internal/domain/tenant"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/middleware"
	"github.com/Strob0t/PropertyHub/internal/service"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

const testPassword = "correct-horse-battery"

// mapCache is a synchronous cache.Cache for tests.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type testEnv struct {
	t      *testing.T
	router http.Handler
	auth   *service.AuthService
	acme   *tenant.Tenant
	globex *tenant.Tenant
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authCfg := config.Auth{
		JWTSecret:         "test-secret-key-for-http-handlers",
		AccessTokenExpiry: 15 * time.Minute,
		Issuer:            "propertyhub-test",
		Audience:          "propertyhub",
		BcryptCost:        4,
	}
	gate := authz.NewGate(nil)
	tokens := service.NewTokenIssuer(authCfg)
	tenants := memory.NewTenantStore()
	dir := service.NewTenantDirectory(tenants, &mapCache{data: map[string][]byte{}}, time.Minute, nil)

	h := &phhttp.Handlers{
		Auth:          service.NewAuthService(memory.NewUserStore(), tokens, gate, authCfg),
		Tenants:       service.NewTenantService(tenants, gate, dir, nil, nil),
		Directory:     dir,
		Bookings:      service.NewBookingService(tenancy.NewStore("booking", memory.NewBookingBackend(), nil)),
		Announcements: service.NewAnnouncementService(tenancy.NewStore("announcement", memory.NewAnnouncementBackend(), nil), gate),
		BodyLimit:     1 << 20,
	}

	resolver := middleware.NewResolver(
		middleware.BearerStrategy{Tokens: tokens, Tenants: dir},
		middleware.HeaderStrategy{Header: "X-Tenant-Key", Tenants: dir},
	)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Authenticate(resolver, nil))
	r.Use(phhttp.Logger)
	phhttp.MountRoutes(r, h, gate, nil)

	env := &testEnv{t: t, router: r, auth: h.Auth}

	root := tenancy.WithIdentity(context.Background(), tenancy.Identity{UserID: "bootstrap", Roles: user.Roles{user.RolePlatformAdmin}, Source: tenancy.SourceInternal})
	var err error
	if env.acme, err = h.Tenants.Create(root, tenant.CreateRequest{Key: "acme", Name: "Acme Towers"}); err != nil {
		t.Fatal(err)
	}
	if env.globex, err = h.Tenants.Create(root, tenant.CreateRequest{Key: "globex", Name: "Globex Lofts"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Auth.CreatePlatformAdmin(root, user.CreateRequest{Email: "root@propertyhub.test", Name: "Root", Password: testPassword}); err != nil {
		t.Fatal(err)
	}
	return env
}

// addUser creates a user in tenantID the way the admin CLI does.
func (e *testEnv) addUser(tenantID int64, email string, roles ...user.Role) {
	e.t.Helper()
	ctx := tenancy.WithIdentity(context.Background(), tenancy.Identity{
		TenantID: tenantID,
		UserID:   "cli",
		Roles:    user.Roles{user.RolePlatformAdmin},
		Source:   tenancy.SourceInternal,
	})
	if _, err := e.auth.RegisterUser(ctx, user.CreateRequest{Email: email, Name: email, Password: testPassword, Roles: roles}); err != nil {
		e.t.Fatalf("add user %s: %v", email, err)
	}
}

type call struct {
	method, path string
	body         any
	token        string
	tenantKey    string
}

func (e *testEnv) do(c call) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&buf).Encode(c.body); err != nil {
			e.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenantKey != "" {
		req.Header.Set("X-Tenant-Key", c.tenantKey)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// login returns an access token for email within tenantKey ("" for platform users).
func (e *testEnv) login(tenantKey, email string) string {
	e.t.Helper()
	rec := e.do(call{method: http.MethodPost, path: "/api/v1/auth/login", tenantKey: tenantKey,
		body: user.LoginRequest{Email: email, Password: testPassword}})
	if rec.Code != http.StatusOK {
		e.t.Fatalf("login %s@%s: status %d: %s", email, tenantKey, rec.Code, rec.Body.String())
	}
	var resp user.LoginResponse
	decode(e.t, rec, &resp)
	return resp.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errBody {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	var body errBody
	decode(t, rec, &body)
	if body.Code != code {
		t.Errorf("code = %q, want %q", body.Code, code)
	}
	return body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(call{method: http.MethodGet, path: "/health"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestPublicTenantKey_OnlyOnPublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(call{method: http.MethodGet, path: "/api/v1/public/tenant", tenantKey: "acme"})
	if rec.Code != http.StatusOK {
		t.Fatalf("public endpoint: status %d: %s", rec.Code, rec.Body.String())
	}
	var pub tenant.Public
	decode(t, rec, &pub)
	if pub.Key != "acme" || pub.Name != "Acme Towers" {
		t.Errorf("public tenant = %+v", pub)
	}

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/bookings", tenantKey: "acme"})
	expectError(t, rec, http.StatusUnauthorized, "IDENTITY_UNRESOLVED")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/public/tenant", tenantKey: "nobody"})
	expectError(t, rec, http.StatusUnauthorized, "IDENTITY_UNRESOLVED")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/public/tenant"})
	expectError(t, rec, http.StatusBadRequest, "TENANT_NOT_SET")
}

func TestLogin_IsTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(env.acme.ID, "alice@acme.test", user.RoleResident)

	_ = env.login("acme", "alice@acme.test")

	for _, key := range []string{"globex", ""} {
		rec := env.do(call{method: http.MethodPost, path: "/api/v1/auth/login", tenantKey: key,
			body: user.LoginRequest{Email: "alice@acme.test", Password: testPassword}})
		expectError(t, rec, http.StatusUnauthorized, "IDENTITY_UNRESOLVED")
	}

	rec := env.do(call{method: http.MethodPost, path: "/api/v1/auth/login", tenantKey: "acme",
		body: user.LoginRequest{Email: "alice@acme.test"}})
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(env.acme.ID, "alice@acme.test", user.RoleResident)
	token := env.login("acme", "alice@acme.test")

	rec := env.do(call{method: http.MethodGet, path: "/api/v1/auth/me", token: token})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var u user.User
	decode(t, rec, &u)
	if u.Email != "alice@acme.test" || u.TenantID != env.acme.ID {
		t.Errorf("me = %+v", u)
	}

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/auth/me", token: token + "x"})
	expectError(t, rec, http.StatusUnauthorized, "IDENTITY_UNRESOLVED")
}

func TestBookings_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(env.acme.ID, "alice@acme.test", user.RoleResident)
	env.addUser(env.globex.ID, "gina@globex.test", user.RoleTenantAdmin)
	alice := env.login("acme", "alice@acme.test")
	gina := env.login("globex", "gina@globex.test")

	start := time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC)
	rec := env.do(call{method: http.MethodPost, path: "/api/v1/bookings", token: alice, body: booking.CreateRequest{
		TenantID:  env.globex.ID, // spoof attempt
		AmenityID: 1,
		StartsAt:  start,
		EndsAt:    start.Add(2 * time.Hour),
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}
	var b booking.Booking
	decode(t, rec, &b)
	if b.TenantID != env.acme.ID {
		t.Errorf("booking tenant = %d, want %d", b.TenantID, env.acme.ID)
	}

	path := fmt.Sprintf("/api/v1/bookings/%d", b.ID)

	rec = env.do(call{method: http.MethodGet, path: path, token: gina})
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")

	rec = env.do(call{method: http.MethodDelete, path: path, token: gina})
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/bookings", token: gina})
	var list []booking.Booking
	decode(t, rec, &list)
	if len(list) != 0 {
		t.Errorf("globex sees %d bookings", len(list))
	}

	rec = env.do(call{method: http.MethodGet, path: path, token: alice})
	if rec.Code != http.StatusOK {
		t.Fatalf("own get: status %d", rec.Code)
	}

	// Same slot again conflicts within acme.
	rec = env.do(call{method: http.MethodPost, path: "/api/v1/bookings", token: alice, body: booking.CreateRequest{
		AmenityID: 1, StartsAt: start.Add(time.Hour), EndsAt: start.Add(3 * time.Hour),
	}})
	expectError(t, rec, http.StatusConflict, "CONFLICT")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/bookings/abc", token: alice})
	expectError(t, rec, http.StatusBadRequest, "VALIDATION_FAILED")
}

func TestAnnouncements_RoleGating(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(env.acme.ID, "alice@acme.test", user.RoleResident)
	env.addUser(env.acme.ID, "max@acme.test", user.RoleManager)
	alice := env.login("acme", "alice@acme.test")
	manager := env.login("acme", "max@acme.test")
	notice := announcement.CreateRequest{Title: "Water shut-off", Body: "Tuesday 9-11am."}

	rec := env.do(call{method: http.MethodPost, path: "/api/v1/announcements", token: alice, body: notice})
	body := expectError(t, rec, http.StatusForbidden, "ACCESS_DENIED")
	if body.Error != "only managers can publish announcements" {
		t.Errorf("denial message = %q", body.Error)
	}

	rec = env.do(call{method: http.MethodPost, path: "/api/v1/announcements", token: manager, body: notice})
	if rec.Code != http.StatusCreated {
		t.Fatalf("manager publish: status %d: %s", rec.Code, rec.Body.String())
	}
	var a announcement.Announcement
	decode(t, rec, &a)

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/announcements", token: alice})
	var list []announcement.Announcement
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("resident sees %d announcements, want 1", len(list))
	}

	rec = env.do(call{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/announcements/%d", a.ID), token: alice})
	expectError(t, rec, http.StatusForbidden, "ACCESS_DENIED")

	rec = env.do(call{method: http.MethodDelete, path: fmt.Sprintf("/api/v1/announcements/%d", a.ID), token: manager})
	if rec.Code != http.StatusNoContent {
		t.Errorf("manager delete: status %d", rec.Code)
	}
}

func TestUsers_TenantAdminScope(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(env.acme.ID, "ada@acme.test", user.RoleTenantAdmin)
	env.addUser(env.globex.ID, "gina@globex.test", user.RoleTenantAdmin)
	env.addUser(env.acme.ID, "alice@acme.test", user.RoleResident)
	ada := env.login("acme", "ada@acme.test")

	rec := env.do(call{method: http.MethodPost, path: "/api/v1/users", token: ada, body: user.CreateRequest{
		Email: "bob@acme.test", Name: "Bob", Password: testPassword, Roles: user.Roles{user.RoleResident},
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(call{method: http.MethodPost, path: "/api/v1/users", token: ada, body: user.CreateRequest{
		Email: "evil@acme.test", Name: "Evil", Password: testPassword, Roles: user.Roles{user.RolePlatformAdmin},
	}})
	expectError(t, rec, http.StatusForbidden, "ACCESS_DENIED")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/users", token: ada})
	var users []user.User
	decode(t, rec, &users)
	if len(users) != 3 {
		t.Errorf("acme users = %d, want 3", len(users))
	}
	for _, u := range users {
		if u.TenantID != env.acme.ID {
			t.Errorf("foreign user %s listed", u.Email)
		}
	}

	alice := env.login("acme", "alice@acme.test")
	rec = env.do(call{method: http.MethodGet, path: "/api/v1/users", token: alice})
	expectError(t, rec, http.StatusForbidden, "ACCESS_DENIED")
}

func TestAdminTenants_DeactivateCutsOffTenant(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(env.acme.ID, "ada@acme.test", user.RoleTenantAdmin)
	ada := env.login("acme", "ada@acme.test")
	root := env.login("", "root@propertyhub.test")

	rec := env.do(call{method: http.MethodGet, path: "/api/v1/admin/tenants", token: ada})
	expectError(t, rec, http.StatusForbidden, "ACCESS_DENIED")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/admin/tenants", token: root})
	var list []tenant.Tenant
	decode(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("tenants = %d, want 2", len(list))
	}

	rec = env.do(call{method: http.MethodPost, path: "/api/v1/admin/tenants", token: root,
		body: tenant.CreateRequest{Key: "initech", Name: "Initech Court"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tenant: status %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(call{method: http.MethodPost, path: "/api/v1/admin/tenants", token: root,
		body: tenant.CreateRequest{Key: "initech", Name: "Again"}})
	expectError(t, rec, http.StatusConflict, "CONFLICT")

	rec = env.do(call{method: http.MethodPost, path: fmt.Sprintf("/api/v1/admin/tenants/%d/deactivate", env.acme.ID), token: root})
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/auth/me", token: ada})
	expectError(t, rec, http.StatusUnauthorized, "IDENTITY_UNRESOLVED")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/public/tenant", tenantKey: "acme"})
	expectError(t, rec, http.StatusUnauthorized, "IDENTITY_UNRESOLVED")

	rec = env.do(call{method: http.MethodGet, path: "/api/v1/admin/tenants/999", token: root})
	expectError(t, rec, http.StatusNotFound, "NOT_FOUND")
}
