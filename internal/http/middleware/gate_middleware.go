package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const LoginPath = "/"

type IdentityValidator interface {
	Validate(ctx context.Context, s *session.Session) (session.Identity, error)
}

// RequestGate guards authenticated routes: it requires a session identity,
// revalidates it when stale, checks the CSRF token on mutating methods and
// finally exposes the identity through session.IdentityFromContext.
func RequestGate(validator IdentityValidator, guard *security.CSRFGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok || !sess.Authenticated() {
				response.Redirect(w, r, LoginPath)
				return
			}

			identity, err := validator.Validate(r.Context(), sess)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrSessionRevoked):
				observability.Audit(r, "session.revoked")
				response.Redirect(w, r, LoginPath)
				return
			case errors.Is(err, service.ErrSessionRevalidationFailed), errors.Is(err, service.ErrNotAuthenticated):
				response.Redirect(w, r, LoginPath)
				return
			default:
				slog.ErrorContext(r.Context(), "session validation failed", "error", err)
				response.Error(w, r, http.StatusInternalServerError, "SESSION_UNAVAILABLE", "session store unavailable", nil)
				return
			}

			if !checkCSRF(w, r, guard, sess) {
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithIdentity(r.Context(), identity)))
		})
	}
}
