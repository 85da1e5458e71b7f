package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/croche-da-t/server/internal/http/response"
	"github.com/croche-da-t/server/internal/repository"
	"github.com/croche-da-t/server/internal/service"
)

// writeServiceError is the single place service failures become status codes.
// Anything outside the known set is a 500 with no detail leaked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials", nil)
	case errors.Is(err, service.ErrUnauthenticated):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "unauthenticated", nil)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusConflict, "EMAIL_TAKEN", "user already exists", nil)
	case errors.Is(err, service.ErrCategoryExists):
		response.Error(w, r, http.StatusConflict, "CATEGORY_EXISTS", "category already exists", nil)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	default:
		slog.ErrorContext(r.Context(), "unhandled service error", "error", err.Error(), "path", r.URL.Path)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
