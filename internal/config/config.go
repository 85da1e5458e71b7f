package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string
	HTTPAddr    string

	DatabaseDriver string
	DatabaseDSN    string

	RedisAddr     string
	RedisPassword string

	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	AccessTTL    time.Duration
	CookieSecret string

	RefreshTokenTTLDays int
	PasswordHashCost    int

	APIRateLimitRPM  int
	AuthRateLimitRPM int
	CORSOrigins      []string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout time.Duration
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

// Load reads configuration from the environment. Missing optional values fall
// back to development defaults; required values missing in production fail
// validation.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    envOr("APP_ENV", "development"),
		HTTPAddr:       envOr("HTTP_ADDR", ":3333"),
		DatabaseDriver: envOr("DATABASE_DRIVER", "postgres"),
		DatabaseDSN:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      envOr("JWT_ISSUER", "croche-da-t"),
		JWTAudience:    envOr("JWT_AUDIENCE", "croche-da-t-web"),
		CookieSecret:   os.Getenv("COOKIE_SECRET"),

		OTELServiceName:          envOr("OTEL_SERVICE_NAME", "croche-da-t-server"),
		OTELEnvironment:          envOr("OTEL_ENVIRONMENT", envOr("APP_ENV", "development")),
		OTELExporterOTLPEndpoint: envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	var err error
	if cfg.AccessTTL, err = envDuration("JWT_ACCESS_TTL", 10*time.Minute); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.RefreshTokenTTLDays, err = envInt("REFRESH_TOKEN_TTL_DAYS", 7); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.PasswordHashCost, err = envInt("PASSWORD_HASH_COST", 10); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.APIRateLimitRPM, err = envInt("API_RATE_LIMIT_RPM", 100); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.AuthRateLimitRPM, err = envInt("AUTH_RATE_LIMIT_RPM", 10); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.OTELExporterOTLPInsecure, err = envBool("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.OTELMetricsEnabled, err = envBool("OTEL_METRICS_ENABLED", false); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.OTELTracesEnabled, err = envBool("OTEL_TRACES_ENABLED", false); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.OTELLogsEnabled, err = envBool("OTEL_LOGS_ENABLED", false); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.OTELMetricsExportInterval, err = envDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second); err != nil {
		return nil, recordLoadError(err)
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return nil, recordLoadError(err)
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}

	if err := cfg.validate(); err != nil {
		return nil, recordLoadErrorFor(cfg, err)
	}
	recordConfigValidationEvent(context.Background(), cfg.Environment, "success", "none")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() {
		if c.DatabaseDSN == "" {
			return fmt.Errorf("validate config: DATABASE_URL is required in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("validate config: JWT_SECRET is required in production")
		}
		if c.CookieSecret == "" {
			return fmt.Errorf("validate config: COOKIE_SECRET is required in production")
		}
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "dev-only-jwt-secret-do-not-use-in-prod"
	}
	if c.CookieSecret == "" {
		c.CookieSecret = "dev-only-cookie-secret-do-not-use-in-prod"
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDriver = "sqlite"
		c.DatabaseDSN = "file:croche.db?_fk=1"
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("validate config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.RefreshTokenTTLDays <= 0 {
		return fmt.Errorf("validate config: REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("validate config: JWT_ACCESS_TTL must be positive")
	}
	return nil
}

func recordLoadError(err error) error {
	recordConfigValidationEvent(context.Background(), os.Getenv("APP_ENV"), "error", classifyConfigLoadError(err))
	return err
}

func recordLoadErrorFor(cfg *Config, err error) error {
	recordConfigValidationEvent(context.Background(), cfg.Environment, "error", classifyConfigLoadError(err))
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
