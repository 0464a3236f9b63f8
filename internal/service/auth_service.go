package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

type AuthService struct {
	users    repository.UserRepository
	hasher   *security.PasswordHasher
	sessions SessionStore
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, hasher *security.PasswordHasher, sessions SessionStore) *AuthService {
	return &AuthService{users: users, hasher: hasher, sessions: sessions, now: time.Now}
}

// Login verifies credentials and binds the identity to sess under a fresh id.
// The CSRF token already in the session is kept.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, username, password string) (session.Identity, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "" && password == "":
		return session.Identity{}, invalid("Username and password are required")
	case username == "":
		return session.Identity{}, invalid("Username is required")
	case password == "":
		return session.Identity{}, invalid("Password is required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		observability.RecordAuthLogin(ctx, "unknown_user")
		return session.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return session.Identity{}, fmt.Errorf("find user: %w", err)
	}
	if user.IsDeleted() {
		observability.RecordAuthLogin(ctx, "deactivated")
		return session.Identity{}, ErrAccountDeactivated
	}
	ok, err := s.hasher.Verify(user.PasswordHash, password, user.Salt)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return session.Identity{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		observability.RecordAuthLogin(ctx, "bad_password")
		return session.Identity{}, ErrInvalidCredentials
	}

	if err := s.sessions.Regenerate(ctx, sess); err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return session.Identity{}, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	identity := session.Identity{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
	sess.SetUser(identity, s.now())
	if err := s.sessions.Persist(ctx, sess); err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return session.Identity{}, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	observability.RecordAuthLogin(ctx, "success")
	return identity, nil
}

func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Destroy(ctx, sess); err != nil {
		observability.RecordAuthLogout(ctx, "error")
		return fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	observability.RecordAuthLogout(ctx, "success")
	return nil
}
