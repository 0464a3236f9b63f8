package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
)

func revalidateEveryRequest(cfg *config.Config) { cfg.SessionValidationInterval = time.Nanosecond }

func TestLoginRotatesSessionAndKeepsToken(t *testing.T) {
	s := newTestServer(t, nil)
	s.createUser("alice", "correct-horse-battery", false)

	token := s.csrfToken(s.client)
	before := s.cookie(s.client, sessionCookie)
	if before == nil {
		t.Fatal("expected anonymous session cookie after token issue")
	}
	if len(s.sessionKeys()) != 1 {
		t.Fatalf("expected one stored session, got %v", s.sessionKeys())
	}

	events := captureAuditEvents(t, func() {
		resp, env := s.postForm(s.client, "/api/login", url.Values{
			"username":  {"alice"},
			"password":  {"correct-horse-battery"},
			"csrfToken": {token},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("login: %d %s", resp.StatusCode, env.Error)
		}
		var data struct {
			RedirectTo string `json:"redirectTo"`
		}
		_ = json.Unmarshal(env.Data, &data)
		if data.RedirectTo != "/dashboard" {
			t.Fatalf("expected redirect to dashboard, got %q", data.RedirectTo)
		}
	})
	if event := requireAuditEvent(t, events, "auth.login"); event["outcome"] != "success" {
		t.Fatalf("expected successful login audit, got %#v", event)
	}

	after := s.cookie(s.client, sessionCookie)
	if after == nil || after.Value == before.Value {
		t.Fatal("expected session id to rotate on login")
	}
	if keys := s.sessionKeys(); len(keys) != 1 {
		t.Fatalf("expected the pre-login session to be dropped, got %v", keys)
	}
	if got := s.csrfToken(s.client); got != token {
		t.Fatal("expected csrf token to survive login")
	}

	resp, env := s.get(s.client, "/api/session")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session: %d", resp.StatusCode)
	}
	var data struct {
		IsAuthenticated bool `json:"isAuthenticated"`
		User            struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || !data.IsAuthenticated || data.User.Username != "alice" {
		t.Fatalf("unexpected session payload %s err=%v", env.Data, err)
	}
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.createUser("root", "correct-horse-battery", true)
	gone := s.createUser("ghost", "correct-horse-battery", false)
	if err := s.users.Delete(context.Background(), root, gone); err != nil {
		t.Fatalf("delete: %v", err)
	}
	token := s.csrfToken(s.client)

	cases := []struct {
		username, password string
		status             int
		message            string
	}{
		{"", "", http.StatusBadRequest, "Username and password are required"},
		{"root", "wrong-password", http.StatusUnauthorized, "Invalid username or password"},
		{"nobody", "correct-horse-battery", http.StatusUnauthorized, "Invalid username or password"},
		{"ghost", "correct-horse-battery", http.StatusForbidden, "Account has been deactivated"},
	}
	for _, tc := range cases {
		resp, env := s.postForm(s.client, "/api/login", url.Values{
			"username":  {tc.username},
			"password":  {tc.password},
			"csrfToken": {token},
		})
		if resp.StatusCode != tc.status || env.Error != tc.message {
			t.Fatalf("login %q: expected %d %q, got %d %q", tc.username, tc.status, tc.message, resp.StatusCode, env.Error)
		}
	}

	resp, _ := s.get(s.client, "/api/dashboard")
	assertRedirect(t, resp, "/")
}

func TestStaleSessionForDeletedUserIsRevoked(t *testing.T) {
	s := newTestServer(t, revalidateEveryRequest)
	root := s.createUser("root", "correct-horse-battery", true)
	bob := s.createUser("bob", "correct-horse-battery", false)
	s.login(s.client, "bob", "correct-horse-battery")

	resp, _ := s.get(s.client, "/api/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected live session to pass, got %d", resp.StatusCode)
	}

	if err := s.users.Delete(context.Background(), root, bob); err != nil {
		t.Fatalf("delete bob: %v", err)
	}

	events := captureAuditEvents(t, func() {
		resp, _ = s.get(s.client, "/api/dashboard")
	})
	assertRedirect(t, resp, "/")
	requireAuditEvent(t, events, "session.revoked")

	expired := false
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Fatal("expected the revoked session cookie to be cleared")
	}
	if keys := s.sessionKeys(); len(keys) != 0 {
		t.Fatalf("expected revoked session removed from the store, got %v", keys)
	}

	resp, _ = s.get(s.client, "/api/settings")
	assertRedirect(t, resp, "/")
}

func TestRevalidationPicksUpDemotion(t *testing.T) {
	s := newTestServer(t, revalidateEveryRequest)
	root := s.createUser("root", "correct-horse-battery", true)
	s.createUser("ops", "correct-horse-battery", true)
	s.login(s.client, "root", "correct-horse-battery")

	resp, _ := s.get(s.client, "/api/admin/users")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected admin access, got %d", resp.StatusCode)
	}

	if _, err := s.users.ToggleAdmin(context.Background(), root); err != nil {
		t.Fatalf("demote root: %v", err)
	}
	resp, _ = s.get(s.client, "/api/admin/users")
	assertRedirect(t, resp, "/dashboard")

	resp, _ = s.get(s.client, "/api/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("demoted user keeps member access, got %d", resp.StatusCode)
	}
}

func TestCachedIdentityTrustedWithinInterval(t *testing.T) {
	s := newTestServer(t, nil)
	root := s.createUser("root", "correct-horse-battery", true)
	bob := s.createUser("bob", "correct-horse-battery", false)
	s.login(s.client, "bob", "correct-horse-battery")

	if err := s.users.Delete(context.Background(), root, bob); err != nil {
		t.Fatalf("delete bob: %v", err)
	}
	resp, _ := s.get(s.client, "/api/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected cached identity inside the interval, got %d", resp.StatusCode)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	s := newTestServer(t, nil)
	s.createUser("alice", "correct-horse-battery", false)
	token := s.login(s.client, "alice", "correct-horse-battery")

	resp, _ := s.postForm(s.client, "/api/logout", url.Values{"csrfToken": {token}})
	assertRedirect(t, resp, "/")
	if keys := s.sessionKeys(); len(keys) != 0 {
		t.Fatalf("expected session removed on logout, got %v", keys)
	}

	resp, _ = s.get(s.client, "/api/dashboard")
	assertRedirect(t, resp, "/")
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.LoginRateLimitPerMinute = 2 })
	token := s.csrfToken(s.client)

	var last *http.Response
	for range 3 {
		last, _ = s.postForm(s.client, "/api/login", url.Values{
			"username":  {"nobody"},
			"password":  {"whatever-password"},
			"csrfToken": {token},
		})
	}
	if last.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", last.StatusCode)
	}
	if last.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}
