package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/session"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHasher() *security.PasswordHasher {
	return security.NewPasswordHasherWithCost("pepper", 1, 8*1024)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func newTestNotifier(m Mailer) *Notifier {
	return NewNotifier(m, &config.Config{
		AdminName:  "Jo",
		AdminEmail: "admin@example.com",
		AppBaseURL: "http://tracker.test/",
	})
}

// fakeSessionStore records calls and can be told to fail.
type fakeSessionStore struct {
	persisted     int
	destroyed     int
	regenerated   int
	persistErr    error
	destroyErr    error
	regenerateErr error
}

func (f *fakeSessionStore) Persist(_ context.Context, _ *session.Session) error {
	f.persisted++
	return f.persistErr
}

func (f *fakeSessionStore) Destroy(_ context.Context, _ *session.Session) error {
	f.destroyed++
	return f.destroyErr
}

func (f *fakeSessionStore) Regenerate(_ context.Context, s *session.Session) error {
	f.regenerated++
	if f.regenerateErr != nil {
		return f.regenerateErr
	}
	s.ID = s.ID + "-regenerated"
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
