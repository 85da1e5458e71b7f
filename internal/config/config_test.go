package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "DATABASE_DRIVER", "DATABASE_URL",
		"REDIS_ADDR", "JWT_SECRET", "COOKIE_SECRET", "JWT_ACCESS_TTL",
		"REFRESH_TOKEN_TTL_DAYS", "PASSWORD_HASH_COST",
		"API_RATE_LIMIT_RPM", "AUTH_RATE_LIMIT_RPM", "CORS_ORIGINS",
		"OTEL_METRICS_ENABLED", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAppEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment %q", cfg.Environment)
	}
	if cfg.HTTPAddr != ":3333" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.AccessTTL != 10*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTTL)
	}
	if cfg.RefreshTokenTTLDays != 7 {
		t.Fatalf("unexpected refresh ttl days %d", cfg.RefreshTokenTTLDays)
	}
	if cfg.RefreshTokenTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl %v", cfg.RefreshTokenTTL())
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Fatalf("expected sqlite fallback without DATABASE_URL, got %q", cfg.DatabaseDriver)
	}
	if cfg.JWTSecret == "" || cfg.CookieSecret == "" {
		t.Fatal("expected dev secrets to be filled in")
	}
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/croche")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET in production")
	}

	t.Setenv("JWT_SECRET", "abcdefghijklmnopqrstuvwxyz123456")
	t.Setenv("COOKIE_SECRET", "abcdefghijklmnopqrstuvwxyz654321")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load production: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production profile")
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Fatalf("unexpected driver %q", cfg.DatabaseDriver)
	}
}

func TestLoadParseErrors(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("JWT_ACCESS_TTL", "not-a-duration")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse JWT_ACCESS_TTL") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("CORS_ORIGINS", "https://croche.example.com, https://admin.croche.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.croche.example.com" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadEnvFilePreservesExisting(t *testing.T) {
	t.Setenv("EXISTING_KEY", "from-env")
	file := filepath.Join(t.TempDir(), "test.env")
	content := "# comment\nEXISTING_KEY=from-file\nNEW_KEY=hello\nQUOTED=\"x\"\nINVALID_LINE\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	if err := LoadEnvFile(file); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("EXISTING_KEY"); got != "from-env" {
		t.Fatalf("expected existing var to be preserved, got %q", got)
	}
	if got := os.Getenv("NEW_KEY"); got != "hello" {
		t.Fatalf("unexpected NEW_KEY=%q", got)
	}
	if got := os.Getenv("QUOTED"); got != "x" {
		t.Fatalf("unexpected QUOTED=%q", got)
	}
}

func TestLoadEnvFileMissingIsNoop(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}
