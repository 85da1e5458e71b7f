package security

import (
	"testing"
	"time"
)

func testJWTManager() *JWTManager {
	return NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
}

func TestSignAndParseAccessToken(t *testing.T) {
	mgr := testJWTManager()
	token, err := mgr.SignAccessToken("user-1", "ADMIN", 10*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := mgr.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	mgr := testJWTManager()
	token, err := mgr.SignAccessToken("user-1", "USER", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := mgr.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	token, err := testJWTManager().SignAccessToken("user-1", "USER", 10*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	other := NewJWTManager("iss", "aud", "a-completely-different-secret-1234")
	if _, err := other.ParseAccessToken(token); err == nil {
		t.Fatal("expected token signed with another secret to fail")
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	other := NewJWTManager("other-iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	token, err := other.SignAccessToken("user-1", "USER", 10*time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := testJWTManager().ParseAccessToken(token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}
