package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// RefreshCookieName is the cookie that carries the opaque refresh-token id
// between the backend and the browser/BFF.
const RefreshCookieName = "refreshToken"

var ErrInvalidCookieSignature = errors.New("invalid cookie signature")

// CookieSigner signs cookie values as "<value>.<base64url(hmac-sha256)>" so a
// forged refresh id is rejected before it ever reaches the token store.
type CookieSigner struct {
	secret []byte
	secure bool
	maxAge int
}

func NewCookieSigner(secret string, secure bool, maxAge int) *CookieSigner {
	return &CookieSigner{secret: []byte(secret), secure: secure, maxAge: maxAge}
}

func (s *CookieSigner) Sign(value string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	return value + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *CookieSigner) Unsign(signed string) (string, error) {
	idx := strings.LastIndexByte(signed, '.')
	if idx <= 0 {
		return "", ErrInvalidCookieSignature
	}
	value, sig := signed[:idx], signed[idx+1:]
	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidCookieSignature
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(value))
	if !hmac.Equal(mac.Sum(nil), want) {
		return "", ErrInvalidCookieSignature
	}
	return value, nil
}

// SetRefreshCookie writes the signed refresh cookie. Strict same-site keeps the
// cookie off cross-origin requests; the BFF forwards it server side.
func (s *CookieSigner) SetRefreshCookie(w http.ResponseWriter, refreshTokenID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    s.Sign(refreshTokenID),
		Path:     "/",
		MaxAge:   s.maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *CookieSigner) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// RefreshTokenID extracts and verifies the refresh id from the request.
// Missing cookie and bad signature both come back as empty: the session core
// treats them identically, the distinction only matters for logs.
func (s *CookieSigner) RefreshTokenID(r *http.Request) (string, error) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil || c.Value == "" {
		return "", nil
	}
	id, err := s.Unsign(c.Value)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetCookie returns the named cookie value or "".
func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
