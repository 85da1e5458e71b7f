package observability

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit emits a structured audit line for security-relevant events (login,
// refresh, logout, category mutations). The request id ties the line to the
// envelope meta the client saw.
func Audit(r *http.Request, event string, attrs ...any) {
	base := make([]any, 0, 8+len(attrs))
	base = append(base,
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimiddleware.GetReqID(r.Context()),
	)
	base = append(base, attrs...)
	slog.InfoContext(r.Context(), "audit", base...)
}
