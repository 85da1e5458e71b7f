package config

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassifyConfigLoadError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil error", err: nil, want: "none"},
		{name: "missing required", err: errors.New("validate config: JWT_SECRET is required in production"), want: "validation"},
		{name: "bad driver", err: errors.New(`validate config: unsupported DATABASE_DRIVER "mysql"`), want: "validation"},
		{name: "bad value", err: errors.New("parse REFRESH_TOKEN_TTL_DAYS: invalid syntax"), want: "parse"},
		{name: "anything else", err: errors.New("open .env: permission denied"), want: "load"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConfigLoadError(tc.err); got != tc.want {
				t.Fatalf("classifyConfigLoadError()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeConfigProfile(t *testing.T) {
	if got := normalizeConfigProfile("  Production  "); got != "production" {
		t.Fatalf("expected production, got %q", got)
	}
	if got := normalizeConfigProfile(" \t "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func FuzzNormalizeConfigProfile(f *testing.F) {
	f.Add("Development")
	f.Add("")
	f.Add("  \n ")
	f.Add(strings.Repeat("x", 2048))

	f.Fuzz(func(t *testing.T, raw string) {
		got := normalizeConfigProfile(raw)
		if got == "" {
			t.Fatal("normalized profile must not be empty")
		}
		if utf8.ValidString(raw) && !utf8.ValidString(got) {
			t.Fatalf("valid input produced invalid UTF-8: %q", got)
		}
		if got != normalizeConfigProfile(got) {
			t.Fatalf("normalization is not idempotent: %q -> %q", got, normalizeConfigProfile(got))
		}
	})
}
