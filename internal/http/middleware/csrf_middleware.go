package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/sandeepkv93/media-request-tracker/internal/http/response"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const maxMultipartMemory = 1 << 20

// CSRF verifies the body token on mutating requests without requiring an
// authenticated session. It is used on the login and contact endpoints.
func CSRF(guard *security.CSRFGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := session.FromContext(r.Context())
			if !checkCSRF(w, r, guard, sess) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkCSRF writes the rejection itself and reports whether the request may proceed.
func checkCSRF(w http.ResponseWriter, r *http.Request, guard *security.CSRFGuard, sess *session.Session) bool {
	if security.IsSafeMethod(r.Method) {
		return true
	}
	group := csrfPathGroup(r.URL.Path)
	token, err := csrfTokenFromBody(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			observability.RecordCSRFValidation(r.Context(), "body_too_large", group)
			response.Error(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		token = ""
	}
	result := guard.ValidateMutatingRequest(r.Method, token, sess)
	if !result.OK {
		reason := "mismatch"
		if token == "" {
			reason = "missing_token"
		}
		observability.RecordCSRFValidation(r.Context(), "rejected", group)
		observability.Audit(r, "csrf.rejected", "reason", reason)
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", result.Reason, nil)
		return false
	}
	observability.RecordCSRFValidation(r.Context(), "accepted", group)
	return true
}

// csrfTokenFromBody reads the csrfToken field and leaves r.Body readable for
// the handler.
func csrfTokenFromBody(r *http.Request) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var payload struct {
			CSRFToken string `json:"csrfToken"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", nil
		}
		return payload.CSRFToken, nil
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return "", nil
		}
		return values.Get(security.CSRFFieldName), nil
	case "multipart/form-data":
		clone := r.Clone(r.Context())
		clone.Body = io.NopCloser(bytes.NewReader(body))
		if err := clone.ParseMultipartForm(maxMultipartMemory); err != nil {
			return "", nil
		}
		if vals := clone.MultipartForm.Value[security.CSRFFieldName]; len(vals) > 0 {
			return vals[0], nil
		}
		return "", nil
	default:
		return "", nil
	}
}

func csrfPathGroup(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(parts) == 0 || parts[0] == "":
		return "root"
	case parts[0] == "api" && len(parts) > 1:
		return "api/" + parts[1]
	default:
		return parts[0]
	}
}
