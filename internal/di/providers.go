package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/media-request-tracker/internal/app"
	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/database"
	"github.com/sandeepkv93/media-request-tracker/internal/health"
	"github.com/sandeepkv93/media-request-tracker/internal/http/handler"
	"github.com/sandeepkv93/media-request-tracker/internal/http/middleware"
	"github.com/sandeepkv93/media-request-tracker/internal/http/router"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const rateLimitKeyPrefix = "rl:"

var infraSet = wire.NewSet(
	provideTelemetry,
	provideLogger,
	provideObservability,
	provideDB,
	provideRedisClient,
	provideSessionManager,
)

var repositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewUserEmailRepository,
	repository.NewRequestRepository,
	repository.NewFeatureRepository,
)

var serviceSet = wire.NewSet(
	provideHasher,
	service.NewMailer,
	service.NewNotifier,
	service.NewSanitizer,
	provideTokenMissCache,
	provideUserService,
	service.NewAuthService,
	service.NewRequestService,
	service.NewRequestActionService,
	service.NewFeatureService,
	service.NewContactService,
	service.NewAccessPolicy,
	provideSessionValidator,
	security.NewCSRFGuard,
	wire.Bind(new(service.SessionStore), new(*session.Manager)),
)

var httpSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewDashboardHandler,
	handler.NewFeatureHandler,
	handler.NewSettingsHandler,
	handler.NewContactHandler,
	handler.NewAdminHandler,
	provideReadiness,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
	wire.Struct(new(Handlers), "*"),
)

// Telemetry is the process logger plus the otel providers flushed at shutdown.
type Telemetry struct {
	Logger  *slog.Logger
	Runtime *observability.Runtime
}

func provideTelemetry(ctx context.Context, cfg *config.Config) (*Telemetry, error) {
	logger, lp, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, lp)
	if err != nil {
		if lp != nil {
			_ = lp.Shutdown(ctx)
		}
		return nil, err
	}
	return &Telemetry{Logger: logger, Runtime: runtime}, nil
}

func provideLogger(t *Telemetry) *slog.Logger { return t.Logger }

func provideObservability(t *Telemetry) *observability.Runtime { return t.Runtime }

func provideDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func provideRedisClient(ctx context.Context, cfg *config.Config) (redis.UniversalClient, func(), error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

func provideSessionManager(cfg *config.Config, client redis.UniversalClient) *session.Manager {
	return session.NewManager(session.NewRedisStore(client, cfg.SessionKeyPrefix), session.Options{
		CookieName: cfg.SessionCookieName,
		Secure:     cfg.SessionCookieSecure,
		TTL:        cfg.SessionTTL,
		Secret:     cfg.SessionSecret,
	})
}

func provideHasher(cfg *config.Config) *security.PasswordHasher {
	return security.NewPasswordHasher(cfg.PasswordPepper)
}

func provideTokenMissCache(client redis.UniversalClient) service.MissCache {
	return service.NewRedisMissCache(client, "miss:verify:")
}

func provideUserService(
	users repository.UserRepository,
	emails repository.UserEmailRepository,
	hasher *security.PasswordHasher,
	notifier *service.Notifier,
	logger *slog.Logger,
	misses service.MissCache,
) *service.UserService {
	return service.NewUserService(users, emails, hasher, notifier, logger).WithTokenMissCache(misses)
}

func provideSessionValidator(cfg *config.Config, users repository.UserRepository, sessions *session.Manager, logger *slog.Logger) *service.SessionValidator {
	return service.NewSessionValidator(users, sessions, cfg.SessionValidationInterval, logger)
}

func provideReadiness(cfg *config.Config, db *gorm.DB, client redis.UniversalClient) *health.ProbeRunner {
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ReadinessProbeTimeout/2,
		health.DBChecker(db),
		health.RedisChecker(client),
	)
}

// Handlers groups the HTTP handlers so the router provider stays readable.
type Handlers struct {
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Feature   *handler.FeatureHandler
	Settings  *handler.SettingsHandler
	Contact   *handler.ContactHandler
	Admin     *handler.AdminHandler
}

func provideRouterDependencies(
	cfg *config.Config,
	h Handlers,
	sessions *session.Manager,
	validator *service.SessionValidator,
	policy *service.AccessPolicy,
	guard *security.CSRFGuard,
	client redis.UniversalClient,
	readiness *health.ProbeRunner,
) router.Dependencies {
	loginLimiter, apiLimiter := provideRateLimiters(cfg, client)
	return router.Dependencies{
		AuthHandler:       h.Auth,
		DashboardHandler:  h.Dashboard,
		FeatureHandler:    h.Feature,
		SettingsHandler:   h.Settings,
		ContactHandler:    h.Contact,
		AdminHandler:      h.Admin,
		Sessions:          sessions,
		Validator:         validator,
		AccessPolicy:      policy,
		CSRFGuard:         guard,
		LoginRateLimiter:  loginLimiter,
		APIRateLimiter:    apiLimiter,
		LoginRateLimitRPM: cfg.LoginRateLimitPerMinute,
		APIRateLimitRPM:   cfg.APIRateLimitPerMinute,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELTracingEnabled || cfg.OTELMetricsEnabled,
	}
}

// provideRateLimiters shares counters across instances through redis unless
// the local backend is configured. Login fails closed, the general API open.
func provideRateLimiters(cfg *config.Config, client redis.UniversalClient) (router.RateLimiterFunc, router.RateLimiterFunc) {
	var backend middleware.Limiter
	if cfg.RateLimitBackend == "redis" && client != nil {
		backend = middleware.NewRedisFixedWindowLimiter(client, rateLimitKeyPrefix)
	} else {
		backend = middleware.NewLocalFixedWindowLimiter()
	}
	login := middleware.NewDistributedRateLimiter(backend, cfg.LoginRateLimitPerMinute, time.Minute, middleware.FailClosed, "login", nil)
	api := middleware.NewDistributedRateLimiter(backend, cfg.APIRateLimitPerMinute, time.Minute, middleware.FailOpen, "api", middleware.UserOrIPKey)
	return login.Middleware(), api.Middleware()
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func provideApp(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime, readiness *health.ProbeRunner) *app.App {
	return app.New(cfg, logger, server, runtime, readiness)
}

// provideCLILogger keeps operator commands on stderr without starting exporters.
func provideCLILogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg, os.Stderr)
}
