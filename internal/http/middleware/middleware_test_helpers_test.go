package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

var validToken = strings.Repeat("ab", 32)

type stubValidator struct {
	identity session.Identity
	err      error
	calls    int
}

func (v *stubValidator) Validate(_ context.Context, s *session.Session) (session.Identity, error) {
	v.calls++
	if v.err != nil {
		return session.Identity{}, v.err
	}
	if v.identity.ID == 0 && s.User != nil {
		return *s.User, nil
	}
	return v.identity, nil
}

type countingHandler struct {
	calls    int
	body     string
	identity session.Identity
	hasID    bool
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	b, _ := io.ReadAll(r.Body)
	h.body = string(b)
	h.identity, h.hasID = session.IdentityFromContext(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func authedSession() *session.Session {
	return &session.Session{
		ID:        "sid",
		User:      &session.Identity{ID: 7, Username: "alice"},
		CSRFToken: validToken,
	}
}

func withSession(req *http.Request, s *session.Session) *http.Request {
	if s == nil {
		return req
	}
	return req.WithContext(session.WithSession(req.Context(), s))
}

func formRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d body=%s", want, rr.Code, rr.Body.String())
	}
}
