package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/domain/user"
	"github.com/Strob0t/PropertyHub/internal/middleware"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

func TestRequireRole(t *testing.T) {
	managers := authz.Require("only managers can publish announcements", user.RoleManager, user.RoleTenantAdmin)

	tests := []struct {
		name     string
		identity *tenancy.Identity
		want     int
		wantCode string
	}{
		{"manager", &tenancy.Identity{TenantID: 7, UserID: "u1", Roles: user.Roles{user.RoleManager}}, http.StatusOK, ""},
		{"tenant admin", &tenancy.Identity{TenantID: 7, UserID: "u2", Roles: user.Roles{user.RoleTenantAdmin}}, http.StatusOK, ""},
		{"resident", &tenancy.Identity{TenantID: 7, UserID: "u3", Roles: user.Roles{user.RoleResident}}, http.StatusForbidden, "ACCESS_DENIED"},
		{"tenant only", &tenancy.Identity{TenantID: 7}, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED"},
		{"no identity", nil, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := middleware.RequireRole(authz.NewGate(nil), managers)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/announcements", http.NoBody)
			if tt.identity != nil {
				req = req.WithContext(tenancy.WithIdentity(req.Context(), *tt.identity))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantCode == "" {
				return
			}
			if called {
				t.Error("handler ran for a rejected request")
			}
			var body struct{ Error, Code string }
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantCode == "ACCESS_DENIED" && body.Error != "only managers can publish announcements" {
				t.Errorf("message = %q", body.Error)
			}
		})
	}
}
