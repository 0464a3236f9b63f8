package handler

import (
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

type SettingsHandler struct {
	users *service.UserService
	guard *security.CSRFGuard
}

func NewSettingsHandler(users *service.UserService, guard *security.CSRFGuard) *SettingsHandler {
	return &SettingsHandler{users: users, guard: guard}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	email, err := h.users.Email(r.Context(), id.ID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load settings")
		return
	}
	token, err := csrfToken(r, h.guard)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load settings")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":      id,
		"email":     email,
		"csrfToken": token,
	})
}

func (h *SettingsHandler) Post(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	id := identity(r)
	ctx := r.Context()

	switch in.Get("action") {
	case "changePassword":
		current, next, confirm := in.Get("currentPassword"), in.Get("newPassword"), in.Get("confirmPassword")
		if current == "" || next == "" || confirm == "" {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "All password fields are required", nil)
			return
		}
		if next != confirm {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "New passwords do not match", nil)
			return
		}
		if err := h.users.ChangePassword(ctx, id.ID, current, next); err != nil {
			writeServiceError(w, r, err, "Failed to change password")
			return
		}
		response.Message(w, r, http.StatusOK, "Password changed successfully!")

	case "updateEmail":
		if err := h.users.SetEmail(ctx, id.ID, in.Get("email"), checked(in.Get("allowNotifications"))); err != nil {
			writeServiceError(w, r, err, "Failed to update email")
			return
		}
		response.Message(w, r, http.StatusOK, "Email updated! Check your inbox for a verification link.")

	case "toggleNotifications":
		enabled, err := h.users.ToggleNotifications(ctx, id.ID)
		if err != nil {
			writeServiceError(w, r, err, "Failed to update notification settings")
			return
		}
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		response.Message(w, r, http.StatusOK, "Notifications "+state+"!")

	case "removeEmail":
		if err := h.users.RemoveEmail(ctx, id.ID); err != nil {
			writeServiceError(w, r, err, "Failed to remove email")
			return
		}
		response.Message(w, r, http.StatusOK, "Email removed successfully!")

	case "resendVerification":
		if err := h.users.ResendVerification(ctx, id.ID); err != nil {
			writeServiceError(w, r, err, "Failed to resend verification email")
			return
		}
		response.Message(w, r, http.StatusOK, "Verification email sent! Check your inbox.")

	default:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid action", nil)
	}
}

// VerifyEmail consumes a verification link. It works with or without a
// signed-in session.
func (h *SettingsHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	loggedIn := false
	if sess, ok := session.FromContext(r.Context()); ok {
		loggedIn = sess.User != nil && sess.User.ID != 0
	}
	details := map[string]bool{"isLoggedIn": loggedIn}
	if token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Missing verification token", details)
		return
	}
	verified, err := h.users.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err, "Failed to verify email")
		return
	}
	if !verified {
		response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "Invalid or expired verification link", details)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message":    "Email verified successfully!",
		"isLoggedIn": loggedIn,
	})
}

type ContactHandler struct {
	contact *service.ContactService
}

func NewContactHandler(contact *service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	msg, err := h.contact.Submit(r.Context(), in.Get("requestType"), in.Get("username"), in.Get("message"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to send request. Please try again later.")
		return
	}
	response.Message(w, r, http.StatusOK, msg)
}
