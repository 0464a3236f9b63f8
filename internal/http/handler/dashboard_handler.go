package handler

import (
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
)

const dashboardPage = "/dashboard"

type DashboardHandler struct {
	requests *service.RequestService
	actions  *service.RequestActionService
	features *service.FeatureService
	guard    *security.CSRFGuard
}

func NewDashboardHandler(requests *service.RequestService, actions *service.RequestActionService, features *service.FeatureService, guard *security.CSRFGuard) *DashboardHandler {
	return &DashboardHandler{requests: requests, actions: actions, features: features, guard: guard}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	requests, err := h.requests.ListForUser(r.Context(), id.ID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load requests")
		return
	}
	features, err := h.features.ListUndismissed(r.Context(), id.ID, dashboardPage)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load features")
		return
	}
	token, err := csrfToken(r, h.guard)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load dashboard")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"user":      id,
		"requests":  requests,
		"features":  features,
		"csrfToken": token,
	})
}

func (h *DashboardHandler) Post(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	id := identity(r)

	if in.Get("action") == service.ActionDelete {
		if in.Get("requestId") == "" {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Request ID is required", nil)
			return
		}
		writeActionResult(w, r, h.actions.HandleFormAction(r.Context(), service.ActionDelete, in.Get("requestId"), id))
		return
	}

	if _, err := h.requests.Create(r.Context(), id.ID, in.Get("title"), in.Get("mediaType")); err != nil {
		writeServiceError(w, r, err, "Failed to submit request")
		return
	}
	response.Message(w, r, http.StatusCreated, "Request submitted successfully!")
}

type FeatureHandler struct {
	features *service.FeatureService
}

func NewFeatureHandler(features *service.FeatureService) *FeatureHandler {
	return &FeatureHandler{features: features}
}

// Dismiss hides a feature announcement for the current user. A missing
// featureId is accepted and ignored.
func (h *FeatureHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(r)
	if err != nil {
		badInput(w, r)
		return
	}
	if raw := in.Get("featureId"); raw != "" {
		featureID, ok := parseID(raw)
		if !ok {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid feature ID", nil)
			return
		}
		if err := h.features.Dismiss(r.Context(), identity(r).ID, featureID); err != nil {
			writeServiceError(w, r, err, "Failed to dismiss feature")
			return
		}
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"dismissed": true})
}
