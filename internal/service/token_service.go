package service

import (
	"errors"
	"time"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/repository"
	"github.com/croche-da-t/server/internal/security"
	"github.com/google/uuid"
)

type RotateResult struct {
	AccessToken    string
	RefreshTokenID string
	UserID         string
	Role           domain.Role
}

type TokenService struct {
	tokens     repository.TokenRepository
	jwtMgr     *security.JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(tokens repository.TokenRepository, jwtMgr *security.JWTManager, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{tokens: tokens, jwtMgr: jwtMgr, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Rotate redeems a refresh token id for a new access+refresh pair. Redemption
// is destructive: the old row is deleted in the same transaction that inserts
// the replacement, so a replayed id can never succeed twice.
func (s *TokenService) Rotate(refreshTokenID string) (*RotateResult, error) {
	if refreshTokenID == "" {
		return nil, ErrRefreshTokenMissing
	}

	token, err := s.tokens.FindByIDWithUser(refreshTokenID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	if token.Type != domain.TokenTypeRefresh {
		// Other flows share the token table (password reset). Their ids
		// must never mint sessions.
		return nil, ErrRefreshTokenWrongType
	}
	if token.ExpiresAt.Before(time.Now()) {
		// Reap lazily so the dead row cannot be retried forever.
		if _, err := s.tokens.DeleteByID(refreshTokenID); err != nil {
			return nil, err
		}
		return nil, ErrRefreshTokenExpired
	}

	replacement := &domain.Token{
		ID:        uuid.NewString(),
		Type:      domain.TokenTypeRefresh,
		UserID:    token.UserID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokens.Rotate(refreshTokenID, replacement); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			// Lost the race against a concurrent rotation of the same id.
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}

	access, err := s.jwtMgr.SignAccessToken(token.UserID, string(token.User.Role), s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &RotateResult{
		AccessToken:    access,
		RefreshTokenID: replacement.ID,
		UserID:         token.UserID,
		Role:           token.User.Role,
	}, nil
}

// Revoke deletes the refresh token row if it exists. Logging out twice, or
// after the token already rotated or expired, is success.
func (s *TokenService) Revoke(refreshTokenID string) error {
	if refreshTokenID == "" {
		return nil
	}
	_, err := s.tokens.DeleteByID(refreshTokenID)
	return err
}
