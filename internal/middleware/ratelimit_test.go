package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/PropertyHub/internal/config"
)

func newLimited(rps float64, burst int) (*RateLimiter, http.Handler) {
	rl := NewRateLimiter(config.Rate{RequestsPerSecond: rps, Burst: burst}, "X-Tenant-Key")
	return rl, rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(h http.Handler, addr, tenantKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", http.NoBody)
	req.RemoteAddr = addr
	if tenantKey != "" {
		req.Header.Set("X-Tenant-Key", tenantKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	_, h := newLimited(10, 10)
	for i := range 10 {
		if rec := hit(h, "192.168.1.1:4000", ""); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	_, h := newLimited(10, 5)
	for range 5 {
		hit(h, "192.168.1.1:4000", "")
	}

	rec := hit(h, "192.168.1.1:4000", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiterKeyedByIPAndTenant(t *testing.T) {
	_, h := newLimited(10, 2)
	for range 2 {
		hit(h, "10.0.0.1:1", "acme")
	}

	tests := []struct {
		name, addr, key string
		want            int
	}{
		{"exhausted", "10.0.0.1:1", "acme", http.StatusTooManyRequests},
		{"same ip other tenant", "10.0.0.1:1", "globex", http.StatusOK},
		{"other ip same tenant", "10.0.0.2:1", "acme", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := hit(h, tt.addr, tt.key); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl, h := newLimited(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	hit(h, "10.0.0.1:1", "")
	if rec := hit(h, "10.0.0.1:1", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := hit(h, "10.0.0.1:1", ""); rec.Code != http.StatusOK {
		t.Errorf("after refill: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, h := newLimited(10, 10)
	now := time.Now()
	rl.now = func() time.Time { return now }

	hit(h, "10.0.0.1:1", "")
	hit(h, "10.0.0.2:1", "")
	if rl.Len() != 2 {
		t.Fatalf("Len = %d, want 2", rl.Len())
	}

	now = now.Add(time.Hour)
	rl.cleanup(time.Minute)
	if rl.Len() != 0 {
		t.Errorf("Len after cleanup = %d, want 0", rl.Len())
	}
}
