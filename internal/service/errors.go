package service

import (
	"errors"
	"fmt"
)

// The closed set of failures the HTTP boundary maps to status codes. Rotation
// failures all wrap ErrUnauthenticated: callers collapse them to a single 401
// while logs keep the specific reason.
var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("user already exists")
	ErrCategoryExists     = errors.New("category already exists")

	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrRefreshTokenMissing   = fmt.Errorf("%w: refresh token missing or invalid", ErrUnauthenticated)
	ErrRefreshTokenNotFound  = fmt.Errorf("%w: refresh token not found or expired", ErrUnauthenticated)
	ErrRefreshTokenWrongType = fmt.Errorf("%w: invalid token type", ErrUnauthenticated)
	ErrRefreshTokenExpired   = fmt.Errorf("%w: refresh token expired", ErrUnauthenticated)
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
