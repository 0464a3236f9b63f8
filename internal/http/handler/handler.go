package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const maxFormMemory = 1 << 20

var errMissingSession = errors.New("request has no session")

// input is a flat view over a form or JSON object body.
type input map[string]string

func (in input) Get(key string) string { return in[key] }

// readInput accepts application/json objects as well as urlencoded and
// multipart forms, so HTML forms and fetch callers share one handler.
func readInput(r *http.Request) (input, error) {
	in := input{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		raw := map[string]any{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			switch t := v.(type) {
			case string:
				in[k] = t
			case json.Number:
				in[k] = t.String()
			case bool:
				in[k] = strconv.FormatBool(t)
			}
		}
		return in, nil
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	for k, v := range r.PostForm {
		if len(v) > 0 {
			in[k] = v[0]
		}
	}
	return in, nil
}

func checked(v string) bool { return v == "on" || v == "true" }

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func identity(r *http.Request) session.Identity {
	id, _ := session.IdentityFromContext(r.Context())
	return id
}

// csrfToken returns the session's token, issuing one if needed; Commit
// persists it with the response.
func csrfToken(r *http.Request, guard *security.CSRFGuard) (string, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return "", errMissingSession
	}
	return guard.Issue(sess)
}

func badInput(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
}

func writeActionResult(w http.ResponseWriter, r *http.Request, res service.FormActionResult) {
	if res.Error != "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", res.Error, nil)
		return
	}
	response.Message(w, r, http.StatusOK, res.Success)
}

// writeServiceError maps service and repository errors onto the envelope.
// fallback is shown for anything that is not a user-facing error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
		return
	case errors.Is(err, service.ErrAccountDeactivated):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_DEACTIVATED", "Account has been deactivated", nil)
		return
	case errors.Is(err, service.ErrDeliveryFailed):
		slog.WarnContext(r.Context(), "message delivery failed", "error", err)
		response.Error(w, r, http.StatusBadGateway, "DELIVERY_FAILED", service.UserMessage(err, fallback), nil)
		return
	case errors.Is(err, service.ErrSessionStore):
		slog.ErrorContext(r.Context(), "session store failure", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "SESSION_UNAVAILABLE", "session store unavailable", nil)
		return
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		if isNotFound(err) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", verr.Message, nil)
			return
		}
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", verr.Message, nil)
		return
	}
	if isNotFound(err) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", fallback, nil)
		return
	}
	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	response.Error(w, r, http.StatusInternalServerError, "INTERNAL", fallback, nil)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrRequestNotFound) ||
		errors.Is(err, repository.ErrFeatureNotFound) ||
		errors.Is(err, repository.ErrUserEmailNotFound)
}
