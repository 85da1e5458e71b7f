package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/croche-da-t/server/internal/domain"
	"github.com/croche-da-t/server/internal/health"
	"github.com/croche-da-t/server/internal/http/handler"
	"github.com/croche-da-t/server/internal/http/middleware"
	"github.com/croche-da-t/server/internal/http/response"
	"github.com/croche-da-t/server/internal/security"
)

type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	CategoryHandler *handler.CategoryHandler
	JWTManager      *security.JWTManager
	Logger          *slog.Logger

	CORSOrigins      []string
	APIRateLimitRPM  int
	AuthRateLimitRPM int
	// Overrides for the default in-process limiters, used to plug in the
	// Redis-backed limiter when it is configured.
	GlobalRateLimiter func(http.Handler) http.Handler
	AuthRateLimiter   func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if dep.Logger != nil {
		r.Use(middleware.RequestLogger(dep.Logger))
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.MaxBodyBytes(1 << 20))

	global := dep.GlobalRateLimiter
	if global == nil {
		global = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	r.Use(global)

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(authLimiter).Post("/users", dep.AuthHandler.Register)
		r.With(authLimiter).Post("/sessions", dep.AuthHandler.Login)
		r.With(authLimiter).Patch("/token/refresh", dep.AuthHandler.Refresh)
		r.Post("/sessions/logout", dep.AuthHandler.Logout)

		r.With(middleware.Authenticator(dep.JWTManager)).Get("/me", dep.AuthHandler.Me)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", dep.CategoryHandler.List)
			r.With(
				middleware.Authenticator(dep.JWTManager),
				middleware.RequireRole(domain.RoleAdmin),
			).Post("/", dep.CategoryHandler.Create)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
