package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/croche-da-t/server/internal/config"
	"github.com/croche-da-t/server/internal/database"
	"github.com/croche-da-t/server/internal/health"
	"github.com/croche-da-t/server/internal/http/handler"
	"github.com/croche-da-t/server/internal/http/middleware"
	"github.com/croche-da-t/server/internal/http/router"
	"github.com/croche-da-t/server/internal/observability"
	"github.com/croche-da-t/server/internal/repository"
	"github.com/croche-da-t/server/internal/security"
	"github.com/croche-da-t/server/internal/service"
)

const catalogCacheTTL = 5 * time.Minute

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Server        *http.Server
	Observability *observability.Runtime
}

// Build wires the whole service from configuration. Redis is optional: with
// no REDIS_ADDR the catalog cache is a no-op and rate limiting stays
// in-process.
func Build(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, loggerProvider, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	var redisClient redis.UniversalClient
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSecret)
	hasher := security.NewPasswordHasher(cfg.PasswordHashCost)
	cookies := security.NewCookieSigner(cfg.CookieSecret, cfg.IsProduction(), int(cfg.RefreshTokenTTL().Seconds()))

	users := repository.NewUserRepository(db)
	tokens := repository.NewTokenRepository(db)
	categories := repository.NewCategoryRepository(db)

	authSvc := service.NewAuthService(users, tokens, hasher, jwtMgr, cfg.AccessTTL, cfg.RefreshTokenTTL())
	tokenSvc := service.NewTokenService(tokens, jwtMgr, cfg.AccessTTL, cfg.RefreshTokenTTL())
	categorySvc := service.NewCategoryService(categories)

	var catalogStore service.CatalogCacheStore = service.NewNoopCatalogCacheStore()
	if redisClient != nil {
		catalogStore = service.NewRedisCatalogCacheStore(redisClient, "")
	}
	catalog := service.NewCachedCatalogResolver(catalogStore, categorySvc, catalogCacheTTL)

	checkers := []health.Checker{health.NewDatabaseChecker(db)}
	if redisClient != nil {
		checkers = append(checkers, health.NewRedisChecker(redisClient))
	}

	dep := router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, tokenSvc, cookies, logger),
		CategoryHandler:  handler.NewCategoryHandler(categorySvc, catalog),
		JWTManager:       jwtMgr,
		Logger:           logger,
		CORSOrigins:      cfg.CORSOrigins,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		Readiness:        health.NewProbeRunner(2*time.Second, checkers...),
		EnableOTelHTTP:   cfg.OTELTracesEnabled,
	}
	if redisClient != nil {
		limiter := middleware.NewRedisFixedWindowLimiter(redisClient, "")
		dep.GlobalRateLimiter = middleware.NewDistributedRateLimiter(
			limiter, cfg.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api",
			middleware.SubjectOrIPKeyFunc(jwtMgr),
		).Middleware()
		dep.AuthRateLimiter = middleware.NewDistributedRateLimiter(
			limiter, cfg.AuthRateLimitRPM, time.Minute, middleware.FailClosed, "auth", nil,
		).Middleware()
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(dep),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Redis:         redisClient,
		Server:        server,
		Observability: runtime,
	}, nil
}

// Run serves until ctx is cancelled, then drains connections and shuts the
// telemetry pipeline down.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr, "env", a.Config.Environment)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down")
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if a.Observability != nil {
		if shutdownErr := a.Observability.Shutdown(closeCtx); shutdownErr != nil {
			a.Logger.Warn("telemetry shutdown failed", "error", shutdownErr.Error())
		}
	}
	if a.Redis != nil {
		if closeErr := a.Redis.Close(); closeErr != nil {
			a.Logger.Warn("redis close failed", "error", closeErr.Error())
		}
	}
	if sqlDB, dbErr := a.DB.DB(); dbErr == nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			a.Logger.Warn("database close failed", "error", closeErr.Error())
		}
	}
	return err
}
