package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/service"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

type nopMailer struct{ sent []service.Message }

func (m *nopMailer) Send(_ context.Context, msg service.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	db        *gorm.DB
	mgr       *session.Manager
	guard     *security.CSRFGuard
	mailer    *nopMailer
	users     *service.UserService
	auth      *AuthHandler
	dashboard *DashboardHandler
	features  *FeatureHandler
	settings  *SettingsHandler
	contact   *ContactHandler
	admin     *AdminHandler
	featureSv *service.FeatureService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := security.NewPasswordHasherWithCost("pepper", 1, 8*1024)
	mailer := &nopMailer{}
	notifier := service.NewNotifier(mailer, &config.Config{AdminName: "Jo", AdminEmail: "admin@example.com", AppBaseURL: "http://tracker.test"})
	sanitizer := service.NewSanitizer()

	userRepo := repository.NewUserRepository(db)
	emailRepo := repository.NewUserEmailRepository(db)
	mgr := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "handler-test", TTL: time.Hour})
	guard := security.NewCSRFGuard()

	users := service.NewUserService(userRepo, emailRepo, hasher, notifier, log)
	requests := service.NewRequestService(repository.NewRequestRepository(db), emailRepo, notifier, sanitizer, log)
	actions := service.NewRequestActionService(requests, log)
	features := service.NewFeatureService(repository.NewFeatureRepository(db), sanitizer)

	return &fixture{
		db:        db,
		mgr:       mgr,
		guard:     guard,
		mailer:    mailer,
		users:     users,
		auth:      NewAuthHandler(service.NewAuthService(userRepo, hasher, mgr), guard),
		dashboard: NewDashboardHandler(requests, actions, features, guard),
		features:  NewFeatureHandler(features),
		settings:  NewSettingsHandler(users, guard),
		contact:   NewContactHandler(service.NewContactService(notifier)),
		admin:     NewAdminHandler(requests, actions, users, features, guard),
		featureSv: features,
	}
}

func (f *fixture) createUser(t *testing.T, username string, admin bool) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), username, "correct-horse-battery", admin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// call runs h with a fresh session and, when id is non-nil, the gate's identity.
func call(h http.HandlerFunc, req *http.Request, id *session.Identity) *httptest.ResponseRecorder {
	sess := &session.Session{ID: "test"}
	ctx := session.WithSession(req.Context(), sess)
	if id != nil {
		sess.User = id
		ctx = session.WithIdentity(ctx, *id)
	}
	rr := httptest.NewRecorder()
	h(rr, req.WithContext(ctx))
	return rr
}

func form(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return env
}

func expect(t *testing.T, rr *httptest.ResponseRecorder, status int, text string) envelope {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	env := decode(t, rr)
	if text != "" && env.Error != text && !strings.Contains(string(env.Data), text) {
		t.Fatalf("expected %q in response, got %s", text, rr.Body.String())
	}
	return env
}
