package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
)

const adminFallback = "An error occurred while processing your request"

type AdminHandler struct {
	requests *service.RequestService
	actions  *service.RequestActionService
	users    *service.UserService
	features *service.FeatureService
	guard    *security.CSRFGuard
}

func NewAdminHandler(requests *service.RequestService, actions *service.RequestActionService, users *service.UserService, features *service.FeatureService, guard *security.CSRFGuard) *AdminHandler {
	return &AdminHandler{requests: requests, actions: actions, users: users, features: features, guard: guard}
}

func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	result, err := h.requests.ListAllPaged(r.Context(), repository.PageRequest{Page: page, PageSize: size})
	if err != nil {
		writeServiceError(w, r, err, "Failed to load requests")
		return
	}
	h.respond(w, r, map[string]any{"requests": result})
}

func (h *AdminHandler) RequestAction(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	action := in.Get("action")
	res := h.actions.HandleFormAction(r.Context(), action, in.Get("requestId"), identity(r))
	if res.Error == "" && (action == service.ActionComplete || action == service.ActionDelete) {
		observability.Audit(r, "admin.request."+action, "media_request_id", in.Get("requestId"))
	}
	writeActionResult(w, r, res)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load users")
		return
	}
	admins := 0
	for _, u := range users {
		if u.IsAdmin && !u.IsDeleted() {
			admins++
		}
	}
	h.respond(w, r, map[string]any{
		"users":         users,
		"currentUserId": identity(r).ID,
		"adminCount":    admins,
	})
}

func (h *AdminHandler) UserAction(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	ctx := r.Context()
	action := in.Get("action")

	if action == "create" {
		u, err := h.users.Create(ctx, in.Get("username"), in.Get("password"), in.Get("isAdmin") == "true")
		if err != nil {
			writeServiceError(w, r, err, adminFallback)
			return
		}
		observability.Audit(r, "admin.user.create", "user_id", u.ID)
		response.Message(w, r, http.StatusCreated, fmt.Sprintf("User '%s' created successfully", u.Username))
		return
	}

	var msg string
	switch action {
	case "delete", "restore", "toggle-admin", "reset-password":
	default:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid action", nil)
		return
	}
	userID, ok := parseID(in.Get("userId"))
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID", nil)
		return
	}
	switch action {
	case "delete":
		err = h.users.Delete(ctx, identity(r).ID, userID)
		msg = "User deleted successfully"
	case "restore":
		err = h.users.Restore(ctx, userID)
		msg = "User restored successfully"
	case "toggle-admin":
		_, err = h.users.ToggleAdmin(ctx, userID)
		msg = "User admin status updated"
	case "reset-password":
		err = h.users.ResetPassword(ctx, userID, in.Get("newPassword"))
		msg = "Password reset successfully"
	}
	if err != nil {
		writeServiceError(w, r, err, adminFallback)
		return
	}
	observability.Audit(r, "admin.user."+action, "user_id", userID)
	response.Message(w, r, http.StatusOK, msg)
}

func (h *AdminHandler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := h.features.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load features")
		return
	}
	h.respond(w, r, map[string]any{"features": features})
}

func (h *AdminHandler) FeatureAction(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	ctx := r.Context()

	switch action := in.Get("action"); action {
	case "create":
		f, err := h.features.Create(ctx, service.CreateFeatureInput{
			Page:        in.Get("page"),
			Selector:    in.Get("selector"),
			Title:       in.Get("title"),
			Description: in.Get("description"),
		})
		if err != nil {
			writeServiceError(w, r, err, adminFallback)
			return
		}
		response.Message(w, r, http.StatusCreated, fmt.Sprintf("Feature \"%s\" created successfully", f.Title))
	case "clear-dismissals", "deactivate":
		featureID, ok := parseID(in.Get("featureId"))
		if !ok {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid feature ID", nil)
			return
		}
		msg := "All dismissals cleared for feature - users will see it again"
		if action == "deactivate" {
			err = h.features.Deactivate(ctx, featureID)
			msg = "Feature deactivated successfully"
		} else {
			err = h.features.ClearDismissals(ctx, featureID)
		}
		if err != nil {
			writeServiceError(w, r, err, adminFallback)
			return
		}
		response.Message(w, r, http.StatusOK, msg)
	default:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid action", nil)
	}
}

func (h *AdminHandler) respond(w http.ResponseWriter, r *http.Request, payload map[string]any) {
	token, err := csrfToken(r, h.guard)
	if err != nil {
		writeServiceError(w, r, err, adminFallback)
		return
	}
	payload["csrfToken"] = token
	response.JSON(w, r, http.StatusOK, payload)
}
