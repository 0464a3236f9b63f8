package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

func TestRequestGateRedirectsWithoutIdentity(t *testing.T) {
	v := &stubValidator{}
	next := &countingHandler{}
	h := RequestGate(v, security.NewCSRFGuard())(next)

	for _, s := range []*session.Session{nil, {ID: "anon", CSRFToken: validToken}} {
		rr := serve(h, withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), s))
		assertStatus(t, rr, http.StatusSeeOther)
		if rr.Header().Get("Location") != LoginPath {
			t.Fatalf("expected redirect to login, got %q", rr.Header().Get("Location"))
		}
	}
	if v.calls != 0 || next.calls != 0 {
		t.Fatalf("unauthenticated requests must stop at the gate: validator=%d handler=%d", v.calls, next.calls)
	}
}

func TestRequestGateValidFormTokenReachesHandlerOnce(t *testing.T) {
	v := &stubValidator{}
	next := &countingHandler{}
	h := RequestGate(v, security.NewCSRFGuard())(next)

	body := "action=create&title=Dune&mediaType=book&csrfToken=" + validToken
	rr := serve(h, withSession(formRequest(http.MethodPost, "/api/dashboard", body), authedSession()))

	assertStatus(t, rr, http.StatusNoContent)
	if next.calls != 1 || v.calls != 1 {
		t.Fatalf("expected one handler call and one validation, got %d/%d", next.calls, v.calls)
	}
	if next.body != body {
		t.Fatalf("handler must see the untouched body, got %q", next.body)
	}
	if !next.hasID || next.identity.ID != 7 {
		t.Fatalf("expected identity in context, got %+v (%v)", next.identity, next.hasID)
	}
}

func TestRequestGateJSONToken(t *testing.T) {
	next := &countingHandler{}
	h := RequestGate(&stubValidator{}, security.NewCSRFGuard())(next)

	ok := serve(h, withSession(jsonRequest(http.MethodPost, "/api/features/dismiss", fmt.Sprintf(`{"featureId":3,"csrfToken":%q}`, validToken)), authedSession()))
	assertStatus(t, ok, http.StatusNoContent)

	// a form-encoded token does not count when the body is declared JSON
	mismatched := jsonRequest(http.MethodPost, "/api/features/dismiss", "csrfToken="+validToken)
	assertStatus(t, serve(h, withSession(mismatched, authedSession())), http.StatusForbidden)

	if next.calls != 1 {
		t.Fatalf("expected exactly one handler call, got %d", next.calls)
	}
}

func TestRequestGateRejectsBadTokens(t *testing.T) {
	cases := []struct {
		name string
		req  *http.Request
	}{
		{name: "missing", req: formRequest(http.MethodPost, "/api/dashboard", "action=create&title=Dune")},
		{name: "wrong", req: formRequest(http.MethodPost, "/api/dashboard", "csrfToken="+strings.Repeat("cd", 32))},
		{name: "short", req: formRequest(http.MethodPost, "/api/dashboard", "csrfToken=abab")},
		{name: "not hex", req: formRequest(http.MethodPost, "/api/dashboard", "csrfToken="+strings.Repeat("zz", 32))},
		{name: "query string only", req: formRequest(http.MethodPost, "/api/dashboard?csrfToken="+validToken, "action=create")},
		{name: "no content type", req: httptest.NewRequest(http.MethodPost, "/api/dashboard", strings.NewReader("csrfToken="+validToken))},
		{name: "delete without body", req: httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := &countingHandler{}
			h := RequestGate(&stubValidator{}, security.NewCSRFGuard())(next)
			rr := serve(h, withSession(tc.req, authedSession()))
			assertStatus(t, rr, http.StatusForbidden)
			if !strings.Contains(rr.Body.String(), security.CSRFFailureReason) {
				t.Fatalf("expected generic rejection message, got %s", rr.Body.String())
			}
			if next.calls != 0 {
				t.Fatal("rejected request must not reach the handler")
			}
		})
	}
}

func TestRequestGateSessionWithoutTokenRejectsMutations(t *testing.T) {
	s := authedSession()
	s.CSRFToken = ""
	next := &countingHandler{}
	h := RequestGate(&stubValidator{}, security.NewCSRFGuard())(next)

	rr := serve(h, withSession(formRequest(http.MethodPost, "/api/dashboard", "csrfToken="), s))
	assertStatus(t, rr, http.StatusForbidden)
	if next.calls != 0 {
		t.Fatal("handler must not run")
	}
}

func TestRequestGateSafeMethodsSkipCSRF(t *testing.T) {
	next := &countingHandler{}
	h := RequestGate(&stubValidator{}, security.NewCSRFGuard())(next)
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assertStatus(t, serve(h, withSession(httptest.NewRequest(m, "/api/dashboard", nil), authedSession())), http.StatusNoContent)
	}
	if next.calls != 3 {
		t.Fatalf("expected 3 handler calls, got %d", next.calls)
	}
}

func TestRequestGateValidationOutcomes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		location string
	}{
		{name: "revoked", err: service.ErrSessionRevoked, status: http.StatusSeeOther, location: LoginPath},
		{name: "lookup failure", err: fmt.Errorf("%w: db down", service.ErrSessionRevalidationFailed), status: http.StatusSeeOther, location: LoginPath},
		{name: "store failure", err: fmt.Errorf("%w: redis down", service.ErrSessionStore), status: http.StatusInternalServerError},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := &countingHandler{}
			h := RequestGate(&stubValidator{err: tc.err}, security.NewCSRFGuard())(next)
			req := formRequest(http.MethodPost, "/api/dashboard", "csrfToken="+validToken)
			rr := serve(h, withSession(req, authedSession()))
			assertStatus(t, rr, tc.status)
			if tc.location != "" && rr.Header().Get("Location") != tc.location {
				t.Fatalf("expected redirect to %q, got %q", tc.location, rr.Header().Get("Location"))
			}
			if next.calls != 0 {
				t.Fatal("handler must not run")
			}
		})
	}
}

func TestRequestGateUsesRefreshedIdentity(t *testing.T) {
	next := &countingHandler{}
	v := &stubValidator{identity: session.Identity{ID: 7, Username: "alice", IsAdmin: true}}
	h := RequestGate(v, security.NewCSRFGuard())(next)

	assertStatus(t, serve(h, withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), authedSession())), http.StatusNoContent)
	if !next.identity.IsAdmin {
		t.Fatal("handler must receive the identity returned by the validator")
	}
}
