package service

import (
	"errors"
	"testing"
	"time"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/security"
)

func newTestAuthService(users *inMemoryUserRepo, tokens *inMemoryTokenRepo) *AuthService {
	return NewAuthService(
		users,
		tokens,
		security.NewPasswordHasher(4),
		security.NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456"),
		10*time.Minute,
		7*24*time.Hour,
	)
}

func TestRegisterCreatesUserRoleAccount(t *testing.T) {
	users := newInMemoryUserRepo()
	svc := newTestAuthService(users, newInMemoryTokenRepo())

	view, err := svc.Register("  Teresa  ", "  Teresa@Example.COM ", "Valid#Pass1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if view.Email != "teresa@example.com" {
		t.Fatalf("expected normalized email, got %q", view.Email)
	}
	if view.Name != "Teresa" {
		t.Fatalf("expected trimmed name, got %q", view.Name)
	}
	if view.Role != domain.RoleUser {
		t.Fatalf("expected USER role, got %q", view.Role)
	}

	stored, err := users.FindByEmail("teresa@example.com")
	if err != nil {
		t.Fatalf("find stored: %v", err)
	}
	if stored.PasswordHash == "Valid#Pass1" || stored.PasswordHash == "" {
		t.Fatal("expected password to be hashed")
	}
}

func TestRegisterAlwaysForcesUserRole(t *testing.T) {
	// There is no role parameter to send, but an account created through
	// registration must come out as USER even for admin-looking input.
	users := newInMemoryUserRepo()
	svc := newTestAuthService(users, newInMemoryTokenRepo())

	view, err := svc.Register("Admin Wannabe", "admin-wannabe@example.com", "Valid#Pass1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if view.Role != domain.RoleUser {
		t.Fatalf("expected USER role, got %q", view.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newInMemoryUserRepo(), newInMemoryTokenRepo())

	cases := []struct {
		name             string
		userName, email  string
		password         string
	}{
		{"short name", "ab", "a@example.com", "Valid#Pass1"},
		{"bad email", "Teresa", "not-an-email", "Valid#Pass1"},
		{"weak password", "Teresa", "a@example.com", "weakpass"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(tc.userName, tc.email, tc.password); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc := newTestAuthService(newInMemoryUserRepo(), newInMemoryTokenRepo())

	if _, err := svc.Register("Teresa", "dup@example.com", "Valid#Pass1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register("Other", "DUP@example.com", "Valid#Pass1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthenticateIssuesTokens(t *testing.T) {
	users := newInMemoryUserRepo()
	tokens := newInMemoryTokenRepo()
	svc := newTestAuthService(users, tokens)

	if _, err := svc.Register("Teresa", "teresa@example.com", "Valid#Pass1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Authenticate("teresa@example.com", "Valid#Pass1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if result.AccessToken == "" || result.RefreshTokenID == "" {
		t.Fatal("expected access token and refresh id")
	}
	if result.User.Email != "teresa@example.com" || result.User.Role != domain.RoleUser {
		t.Fatalf("unexpected user view %+v", result.User)
	}

	stored, err := tokens.FindByIDWithUser(result.RefreshTokenID)
	if err != nil {
		t.Fatalf("expected refresh token row persisted: %v", err)
	}
	if stored.Type != domain.TokenTypeRefresh {
		t.Fatalf("unexpected token type %q", stored.Type)
	}
	if stored.ExpiresAt.Before(time.Now().Add(6 * 24 * time.Hour)) {
		t.Fatalf("expected ~7 day expiry, got %v", stored.ExpiresAt)
	}
}

func TestAuthenticateDoesNotLeakUserExistence(t *testing.T) {
	svc := newTestAuthService(newInMemoryUserRepo(), newInMemoryTokenRepo())

	if _, err := svc.Register("Teresa", "known@example.com", "Valid#Pass1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, unknownErr := svc.Authenticate("unknown@example.com", "anything#A1")
	_, wrongPwErr := svc.Authenticate("known@example.com", "Wrong#Pass1")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongPwErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", unknownErr, wrongPwErr)
	}
	if unknownErr.Error() != wrongPwErr.Error() {
		t.Fatalf("error messages must be identical: %q vs %q", unknownErr, wrongPwErr)
	}
}
