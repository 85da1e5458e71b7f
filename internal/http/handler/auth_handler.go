package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/croche-da-t/server/internal/http/middleware"
	"github.com/croche-da-t/server/internal/http/response"
	"github.com/croche-da-t/server/internal/observability"
	"github.com/croche-da-t/server/internal/security"
	"github.com/croche-da-t/server/internal/service"
)

type AuthHandler struct {
	auth    *service.AuthService
	tokens  *service.TokenService
	cookies *security.CookieSigner
	logger  *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, tokens *service.TokenService, cookies *security.CookieSigner, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, cookies: cookies, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/users.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordAuthRegister("error")
		response.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "malformed request body", nil)
		return
	}

	user, err := h.auth.Register(req.Name, req.Email, req.Password)
	if err != nil {
		observability.RecordAuthRegister("error")
		writeServiceError(w, r, err)
		return
	}

	observability.RecordAuthRegister("success")
	observability.Audit(r, "user.registered", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, map[string]any{"user": user})
}

// Login handles POST /api/v1/sessions. The access token goes in the body,
// the refresh token id only in the signed cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observability.RecordAuthLogin("error")
		response.Error(w, r, http.StatusBadRequest, "INVALID_JSON", "malformed request body", nil)
		return
	}

	result, err := h.auth.Authenticate(req.Email, req.Password)
	if err != nil {
		observability.RecordAuthLogin("error")
		writeServiceError(w, r, err)
		return
	}

	h.cookies.SetRefreshCookie(w, result.RefreshTokenID)
	observability.RecordAuthLogin("success")
	observability.Audit(r, "session.opened", "user_id", result.User.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{
		"token": result.AccessToken,
		"user":  result.User,
	})
}

// Refresh handles PATCH /api/v1/token/refresh. Every failure clears the
// cookie: a rejected refresh credential is dead either way.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshTokenID, err := h.cookies.RefreshTokenID(r)
	if err != nil {
		observability.RecordAuthRefresh("error")
		h.cookies.ClearRefreshCookie(w)
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "unauthenticated", nil)
		return
	}

	result, err := h.tokens.Rotate(refreshTokenID)
	if err != nil {
		observability.RecordAuthRefresh("error")
		h.cookies.ClearRefreshCookie(w)
		writeServiceError(w, r, err)
		return
	}

	h.cookies.SetRefreshCookie(w, result.RefreshTokenID)
	observability.RecordAuthRefresh("success")
	response.JSON(w, r, http.StatusOK, map[string]any{"token": result.AccessToken})
}

// Logout handles POST /api/v1/sessions/logout. Revocation failures are
// logged and swallowed: the client forgets the session regardless, and a
// dangling row ages out at its expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshTokenID, err := h.cookies.RefreshTokenID(r)
	if err != nil {
		refreshTokenID = ""
	}
	if err := h.tokens.Revoke(refreshTokenID); err != nil {
		h.logger.WarnContext(r.Context(), "refresh token revocation failed", "error", err.Error())
	}

	h.cookies.ClearRefreshCookie(w)
	observability.RecordAuthLogout("success")
	observability.Audit(r, "session.closed")
	response.NoContent(w)
}

// Me handles GET /api/v1/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetByID(middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user})
}
