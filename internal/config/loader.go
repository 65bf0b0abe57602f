package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "propertyhub.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PROPERTYHUB_PORT")
	setString(&cfg.Server.CORSOrigin, "PROPERTYHUB_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "PROPERTYHUB_REQUEST_TIMEOUT")
	setInt64(&cfg.Server.BodyLimit, "PROPERTYHUB_BODY_LIMIT")
	setString(&cfg.Storage.Driver, "PROPERTYHUB_STORAGE")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PROPERTYHUB_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PROPERTYHUB_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PROPERTYHUB_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PROPERTYHUB_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PROPERTYHUB_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Logging.Level, "PROPERTYHUB_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PROPERTYHUB_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PROPERTYHUB_LOG_ASYNC")

	// Auth
	setString(&cfg.Auth.JWTSecret, "PROPERTYHUB_JWT_SECRET")
	setDuration(&cfg.Auth.AccessTokenExpiry, "PROPERTYHUB_ACCESS_TOKEN_EXPIRY")
	setString(&cfg.Auth.Issuer, "PROPERTYHUB_JWT_ISSUER")
	setString(&cfg.Auth.Audience, "PROPERTYHUB_JWT_AUDIENCE")
	setInt(&cfg.Auth.BcryptCost, "PROPERTYHUB_BCRYPT_COST")

	// Tenancy
	setString(&cfg.Tenancy.Header, "PROPERTYHUB_TENANT_HEADER")
	setString(&cfg.Tenancy.BaseDomain, "PROPERTYHUB_BASE_DOMAIN")
	setInt64(&cfg.Tenancy.CacheMaxCostBytes, "PROPERTYHUB_TENANT_CACHE_BYTES")
	setDuration(&cfg.Tenancy.CacheTTL, "PROPERTYHUB_TENANT_CACHE_TTL")

	setInt(&cfg.Breaker.MaxFailures, "PROPERTYHUB_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PROPERTYHUB_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "PROPERTYHUB_RATE_RPS")
	setInt(&cfg.Rate.Burst, "PROPERTYHUB_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "PROPERTYHUB_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "PROPERTYHUB_RATE_MAX_IDLE_TIME")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "PROPERTYHUB_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "PROPERTYHUB_OTEL_INSECURE")
}

// minJWTSecretLen is the shortest HS256 secret accepted.
const minJWTSecretLen = 32

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q must be postgres or memory", cfg.Storage.Driver)
	}
	if len(cfg.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minJWTSecretLen)
	}
	if cfg.Auth.AccessTokenExpiry <= 0 {
		return errors.New("auth.access_token_expiry must be positive")
	}
	if cfg.Tenancy.Header == "" {
		return errors.New("tenancy.header is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
