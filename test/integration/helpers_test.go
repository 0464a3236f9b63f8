package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/di"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
)

const sessionCookie = "sid"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	t      *testing.T
	URL    string
	client *http.Client
	cfg    *config.Config
	redis  *miniredis.Miniredis
	users  *service.UserService
}

func newTestServer(t *testing.T, override func(*config.Config)) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		AppEnv:                    "test",
		HTTPAddr:                  "127.0.0.1:0",
		DatabaseDriver:            "sqlite",
		DatabaseURL:               filepath.Join(t.TempDir(), "tracker.db"),
		DBAutoMigrate:             true,
		RedisAddr:                 mr.Addr(),
		SessionSecret:             "integration-test-secret",
		SessionCookieName:         sessionCookie,
		SessionTTL:                time.Hour,
		SessionKeyPrefix:          "sess:",
		SessionValidationInterval: time.Hour,
		LoginRateLimitPerMinute:   100,
		APIRateLimitPerMinute:     1000,
		RateLimitBackend:          "redis",
		AdminName:                 "Jo",
		AppBaseURL:                "http://tracker.test",
		LogLevel:                  "error",
		LogFormat:                 "json",
		OTELServiceName:           "media-request-tracker-test",
		OTELMetricsExportInterval: time.Second,
		ReadinessProbeTimeout:     time.Second,
		ShutdownTimeout:           time.Second,
	}
	if override != nil {
		override(cfg)
	}

	previous := slog.Default()
	a, cleanup, err := di.InitializeApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	users, cleanupUsers, err := di.InitializeUserService(cfg)
	if err != nil {
		cleanup()
		t.Fatalf("initialize user service: %v", err)
	}
	srv := httptest.NewServer(a.Server.Handler)
	t.Cleanup(func() {
		srv.Close()
		cleanupUsers()
		cleanup()
		slog.SetDefault(previous)
	})

	return &testServer{t: t, URL: srv.URL, client: newClient(t), cfg: cfg, redis: mr, users: users}
}

// newClient keeps cookies and surfaces redirects instead of following them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *testServer) createUser(username, password string, admin bool) uint {
	s.t.Helper()
	u, err := s.users.Create(context.Background(), username, password, admin)
	if err != nil {
		s.t.Fatalf("create user %s: %v", username, err)
	}
	return u.ID
}

func (s *testServer) get(client *http.Client, path string) (*http.Response, envelope) {
	s.t.Helper()
	return s.send(client, http.MethodGet, path, "", nil)
}

func (s *testServer) postForm(client *http.Client, path string, form url.Values) (*http.Response, envelope) {
	s.t.Helper()
	return s.send(client, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (s *testServer) postJSON(client *http.Client, path string, body any) (*http.Response, envelope) {
	s.t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		s.t.Fatalf("marshal: %v", err)
	}
	return s.send(client, http.MethodPost, path, "application/json", bytes.NewReader(raw))
}

func (s *testServer) send(client *http.Client, method, path, contentType string, body io.Reader) (*http.Response, envelope) {
	s.t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := client.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("read body: %v", err)
	}
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			s.t.Fatalf("decode %s %s: %v body=%s", method, path, err, raw)
		}
	}
	return resp, env
}

func (s *testServer) csrfToken(client *http.Client) string {
	s.t.Helper()
	resp, env := s.get(client, "/api/csrf-token")
	if resp.StatusCode != http.StatusOK {
		s.t.Fatalf("csrf token: status=%d", resp.StatusCode)
	}
	var data struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.CSRFToken == "" {
		s.t.Fatalf("decode csrf token: %v data=%s", err, env.Data)
	}
	return data.CSRFToken
}

// login signs client in and returns the session's CSRF token.
func (s *testServer) login(client *http.Client, username, password string) string {
	s.t.Helper()
	token := s.csrfToken(client)
	resp, env := s.postForm(client, "/api/login", url.Values{
		"username":  {username},
		"password":  {password},
		"csrfToken": {token},
	})
	if resp.StatusCode != http.StatusOK || !env.Success {
		s.t.Fatalf("login %s: status=%d error=%s", username, resp.StatusCode, env.Error)
	}
	return token
}

func (s *testServer) cookie(client *http.Client, name string) *http.Cookie {
	s.t.Helper()
	u, _ := url.Parse(s.URL)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (s *testServer) sessionKeys() []string {
	var keys []string
	for _, k := range s.redis.Keys() {
		if strings.HasPrefix(k, s.cfg.SessionKeyPrefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func countRequests(t *testing.T, env envelope) int {
	t.Helper()
	var data struct {
		Requests []json.RawMessage `json:"requests"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode dashboard: %v data=%s", err, env.Data)
	}
	return len(data.Requests)
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func captureAuditEvents(t *testing.T, fn func()) []map[string]any {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer slog.SetDefault(previous)

	fn()

	var events []map[string]any
	for _, line := range strings.Split(buf.String(), "\n") {
		var event map[string]any
		if json.Unmarshal([]byte(line), &event) != nil {
			continue
		}
		if msg, _ := event["msg"].(string); msg == "audit" {
			events = append(events, event)
		}
	}
	return events
}

func requireAuditEvent(t *testing.T, events []map[string]any, name string) map[string]any {
	t.Helper()
	for _, event := range events {
		if got, _ := event["event"].(string); got == name {
			return event
		}
	}
	t.Fatalf("expected audit event %q, got %#v", name, events)
	return nil
}
