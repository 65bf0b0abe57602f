package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.MaxConns != 15 {
		t.Errorf("expected max_conns 15, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Tenancy.Header != "X-Tenant-Key" {
		t.Errorf("expected tenant header X-Tenant-Key, got %s", cfg.Tenancy.Header)
	}
	if cfg.Tenancy.BaseDomain != "" {
		t.Errorf("subdomain resolution should be off by default, got base domain %q", cfg.Tenancy.BaseDomain)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("expected storage driver postgres, got %s", cfg.Storage.Driver)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
postgres:
  max_conns: 20
logging:
  level: "debug"
tenancy:
  base_domain: "propertyhub.test"
  cache_ttl: 1m
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Postgres.MaxConns != 20 {
		t.Errorf("expected max_conns 20, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Tenancy.BaseDomain != "propertyhub.test" {
		t.Errorf("expected base domain propertyhub.test, got %s", cfg.Tenancy.BaseDomain)
	}
	if cfg.Tenancy.CacheTTL != time.Minute {
		t.Errorf("expected cache ttl 1m, got %v", cfg.Tenancy.CacheTTL)
	}
	// Unchanged fields keep defaults
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default NATS URL, got %s", cfg.NATS.URL)
	}
	if cfg.Tenancy.Header != "X-Tenant-Key" {
		t.Errorf("expected default tenant header, got %s", cfg.Tenancy.Header)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("PROPERTYHUB_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("PROPERTYHUB_PG_MAX_CONNS", "25")
	t.Setenv("PROPERTYHUB_LOG_LEVEL", "warn")
	t.Setenv("PROPERTYHUB_BREAKER_TIMEOUT", "1m")
	t.Setenv("PROPERTYHUB_STORAGE", "memory")
	t.Setenv("PROPERTYHUB_BASE_DOMAIN", "example.org")
	t.Setenv("PROPERTYHUB_ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("PROPERTYHUB_OTEL_ENABLED", "true")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("expected DSN override, got %s", cfg.Postgres.DSN)
	}
	if cfg.Postgres.MaxConns != 25 {
		t.Errorf("expected max_conns 25, got %d", cfg.Postgres.MaxConns)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected storage driver memory, got %s", cfg.Storage.Driver)
	}
	if cfg.Tenancy.BaseDomain != "example.org" {
		t.Errorf("expected base domain example.org, got %s", cfg.Tenancy.BaseDomain)
	}
	if cfg.Auth.AccessTokenExpiry != 5*time.Minute {
		t.Errorf("expected token expiry 5m, got %v", cfg.Auth.AccessTokenExpiry)
	}
	if !cfg.OTEL.Enabled {
		t.Error("expected otel enabled")
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "empty port",
			modify:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server.port is required",
		},
		{
			name:    "empty DSN",
			modify:  func(c *Config) { c.Postgres.DSN = "" },
			wantErr: "postgres.dsn is required",
		},
		{
			name:    "zero max conns",
			modify:  func(c *Config) { c.Postgres.MaxConns = 0 },
			wantErr: "postgres.max_conns must be >= 1",
		},
		{
			name:    "unknown storage driver",
			modify:  func(c *Config) { c.Storage.Driver = "sqlite" },
			wantErr: "must be postgres or memory",
		},
		{
			name:    "short jwt secret",
			modify:  func(c *Config) { c.Auth.JWTSecret = "too-short" },
			wantErr: "auth.jwt_secret must be at least 32 bytes",
		},
		{
			name:    "zero token expiry",
			modify:  func(c *Config) { c.Auth.AccessTokenExpiry = 0 },
			wantErr: "auth.access_token_expiry must be positive",
		},
		{
			name:    "empty tenant header",
			modify:  func(c *Config) { c.Tenancy.Header = "" },
			wantErr: "tenancy.header is required",
		},
		{
			name:    "zero breaker failures",
			modify:  func(c *Config) { c.Breaker.MaxFailures = 0 },
			wantErr: "breaker.max_failures must be >= 1",
		},
		{
			name:    "zero burst",
			modify:  func(c *Config) { c.Rate.Burst = 0 },
			wantErr: "rate.burst must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateMemoryDriverSkipsPostgres(t *testing.T) {
	cfg := Defaults()
	cfg.Storage.Driver = "memory"
	cfg.Postgres.DSN = ""
	cfg.Postgres.MaxConns = 0

	if err := validate(&cfg); err != nil {
		t.Errorf("memory driver should not require postgres settings, got %v", err)
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should be valid, got %v", err)
	}
}
