package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"

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

func seedUser(t *testing.T, repo UserRepository, username string, admin bool) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Salt: "salt", PasswordHash: "hash", IsAdmin: admin}
	if err := repo.Create(t.Context(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func strPtr(v string) *string { return &v }

func newUser(username string) *domain.User {
	return &domain.User{Username: username, Salt: "salt", PasswordHash: "hash"}
}
