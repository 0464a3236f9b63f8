package middleware

import (
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const DashboardPath = "/dashboard"

type Authorizer interface {
	Allowed(id session.Identity, path, method string) (bool, error)
}

// RequireAdmin must run after RequestGate.
func RequireAdmin(policy Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := session.IdentityFromContext(r.Context())
			if !ok {
				response.Redirect(w, r, LoginPath)
				return
			}
			allowed, err := policy.Allowed(id, r.URL.Path, r.Method)
			if err != nil {
				slog.ErrorContext(r.Context(), "access policy evaluation failed", "error", err)
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "authorization unavailable", nil)
				return
			}
			if !allowed {
				observability.Audit(r, "admin.denied", "user_id", id.ID)
				response.Redirect(w, r, DashboardPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
