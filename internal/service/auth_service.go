package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/repository"
	"github.com/croche-da-t/server/internal/security"
	"github.com/google/uuid"
)

// UserView is the user shape returned to callers. The password hash never
// leaves the service layer.
type UserView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type LoginResult struct {
	User           UserView
	AccessToken    string
	RefreshTokenID string
}

type AuthService struct {
	users      repository.UserRepository
	tokens     repository.TokenRepository
	hasher     *security.PasswordHasher
	jwtMgr     *security.JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	hasher *security.PasswordHasher,
	jwtMgr *security.JWTManager,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		jwtMgr:     jwtMgr,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a USER-role account. The role is never taken from the
// caller: privilege escalation through the request body must be impossible.
func (s *AuthService) Register(name, email, password string) (*UserView, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if len(name) < 3 {
		return nil, validationError("name must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validationError("invalid email format")
	}
	if err := security.ValidatePassword(password); err != nil {
		return nil, validationError(err.Error())
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return &UserView{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

// Authenticate verifies the credentials and opens a session: one new refresh
// token row plus a short-lived access token. Unknown email and wrong password
// are indistinguishable to the caller.
func (s *AuthService) Authenticate(email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	refresh := &domain.Token{
		ID:        uuid.NewString(),
		Type:      domain.TokenTypeRefresh,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokens.Create(refresh); err != nil {
		return nil, err
	}

	access, err := s.jwtMgr.SignAccessToken(user.ID, string(user.Role), s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:           UserView{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role},
		AccessToken:    access,
		RefreshTokenID: refresh.ID,
	}, nil
}

func (s *AuthService) GetByID(id string) (*UserView, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		return nil, err
	}
	return &UserView{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
