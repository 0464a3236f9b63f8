package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/media-request-tracker/internal/health"
	"github.com/sandeepkv93/media-request-tracker/internal/http/handler"
	"github.com/sandeepkv93/media-request-tracker/internal/http/middleware"
	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
)

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	DashboardHandler  *handler.DashboardHandler
	FeatureHandler    *handler.FeatureHandler
	SettingsHandler   *handler.SettingsHandler
	ContactHandler    *handler.ContactHandler
	AdminHandler      *handler.AdminHandler
	Sessions          middleware.SessionCommitter
	Validator         middleware.IdentityValidator
	AccessPolicy      middleware.Authorizer
	CSRFGuard         *security.CSRFGuard
	LoginRateLimiter  RateLimiterFunc
	APIRateLimiter    RateLimiterFunc
	LoginRateLimitRPM int
	APIRateLimitRPM   int
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type RateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	guard := dep.CSRFGuard
	if guard == nil {
		guard = security.NewCSRFGuard()
	}
	apiLimiter := dep.APIRateLimiter
	if apiLimiter == nil {
		apiLimiter = middleware.NewDistributedRateLimiter(middleware.NewLocalFixedWindowLimiter(), dep.APIRateLimitRPM, time.Minute, middleware.FailClosed, "api", middleware.UserOrIPKey).Middleware()
	}
	loginLimiter := dep.LoginRateLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewDistributedRateLimiter(middleware.NewLocalFixedWindowLimiter(), dep.LoginRateLimitRPM, time.Minute, middleware.FailClosed, "login", nil).Middleware()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))

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

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(dep.Sessions))
		r.Use(apiLimiter)

		r.Get("/csrf-token", dep.AuthHandler.CSRFToken)
		r.Get("/session", dep.AuthHandler.Session)
		r.Get("/verify-email", dep.SettingsHandler.VerifyEmail)
		r.With(loginLimiter, middleware.CSRF(guard)).Post("/login", dep.AuthHandler.Login)
		r.With(loginLimiter, middleware.CSRF(guard)).Post("/contact", dep.ContactHandler.Submit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestGate(dep.Validator, guard))
			r.Post("/logout", dep.AuthHandler.Logout)
			r.Get("/dashboard", dep.DashboardHandler.Get)
			r.Post("/dashboard", dep.DashboardHandler.Post)
			r.Post("/features/dismiss", dep.FeatureHandler.Dismiss)
			r.Get("/settings", dep.SettingsHandler.Get)
			r.Post("/settings", dep.SettingsHandler.Post)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(dep.AccessPolicy))
				r.Get("/requests", dep.AdminHandler.ListRequests)
				r.Post("/requests", dep.AdminHandler.RequestAction)
				r.Get("/users", dep.AdminHandler.ListUsers)
				r.Post("/users", dep.AdminHandler.UserAction)
				r.Get("/features", dep.AdminHandler.ListFeatures)
				r.Post("/features", dep.AdminHandler.FeatureAction)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
