package handler

import (
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

type AuthHandler struct {
	auth  *service.AuthService
	guard *security.CSRFGuard
}

func NewAuthHandler(auth *service.AuthService, guard *security.CSRFGuard) *AuthHandler {
	return &AuthHandler{auth: auth, guard: guard}
}

func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := csrfToken(r, h.guard)
	if err != nil {
		writeServiceError(w, r, err, "failed to issue token")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"csrfToken": token})
}

// Session reports the cached login state. It does not revalidate; the gate
// does that on the first protected request.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, err := csrfToken(r, h.guard)
	if err != nil {
		writeServiceError(w, r, err, "failed to issue token")
		return
	}
	payload := map[string]any{"isAuthenticated": false, "csrfToken": token}
	if sess, ok := session.FromContext(r.Context()); ok && sess.User != nil && sess.User.ID != 0 && sess.User.Username != "" {
		payload["isAuthenticated"] = true
		payload["user"] = sess.User
	}
	response.JSON(w, r, http.StatusOK, payload)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeServiceError(w, r, errMissingSession, "Database error")
		return
	}
	id, err := h.auth.Login(r.Context(), sess, in.Get("username"), in.Get("password"))
	if err != nil {
		observability.Audit(r, "auth.login", "outcome", "failure", "username", in.Get("username"))
		writeServiceError(w, r, err, "Database error")
		return
	}
	observability.Audit(r, "auth.login", "outcome", "success", "user_id", id.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{"user": id, "redirectTo": "/dashboard"})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		response.Redirect(w, r, "/")
		return
	}
	if err := h.auth.Logout(r.Context(), sess); err != nil {
		writeServiceError(w, r, err, "Logout failed")
		return
	}
	observability.Audit(r, "auth.logout", "user_id", identity(r).ID)
	response.Redirect(w, r, "/")
}
