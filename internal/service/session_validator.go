package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const DefaultValidationInterval = 5 * time.Minute

// SessionValidator bounds how long a cached identity is trusted before it is
// reconciled with the durable user record.
type SessionValidator struct {
	users    UserLookup
	sessions SessionStore
	interval time.Duration
	logger   *slog.Logger
	Now      func() time.Time
}

func NewSessionValidator(users UserLookup, sessions SessionStore, interval time.Duration, logger *slog.Logger) *SessionValidator {
	if interval <= 0 {
		interval = DefaultValidationInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionValidator{
		users:    users,
		sessions: sessions,
		interval: interval,
		logger:   logger,
		Now:      time.Now,
	}
}

func (v *SessionValidator) Interval() time.Duration { return v.interval }

// Validate returns the session's identity, refreshing it from the user record
// once the validation interval has elapsed.
func (v *SessionValidator) Validate(ctx context.Context, s *session.Session) (session.Identity, error) {
	if s == nil || s.User == nil {
		return session.Identity{}, ErrNotAuthenticated
	}
	now := v.Now()
	// A stamp from the future is treated as stale.
	if age := now.Sub(s.LastValidatedAt()); age >= 0 && age < v.interval {
		observability.RecordSessionValidation(ctx, "fresh")
		return *s.User, nil
	}

	cached := *s.User
	user, err := v.users.FindByID(ctx, cached.ID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		observability.RecordSessionValidation(ctx, "lookup_error")
		v.logger.ErrorContext(ctx, "session revalidation lookup failed", "user_id", cached.ID, "error", err)
		return session.Identity{}, fmt.Errorf("%w: %v", ErrSessionRevalidationFailed, err)
	}
	if err != nil || !consistent(user, cached) {
		return session.Identity{}, v.revoke(ctx, s, cached)
	}

	identity := session.Identity{ID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
	s.SetUser(identity, now)
	if err := v.sessions.Persist(ctx, s); err != nil {
		observability.RecordSessionValidation(ctx, "store_error")
		return session.Identity{}, fmt.Errorf("%w: %v", ErrSessionStore, err)
	}
	observability.RecordSessionValidation(ctx, "refreshed")
	return identity, nil
}

func consistent(user *domain.User, cached session.Identity) bool {
	return user != nil &&
		!user.IsDeleted() &&
		user.ID == cached.ID &&
		user.Username != ""
}

func (v *SessionValidator) revoke(ctx context.Context, s *session.Session, cached session.Identity) error {
	observability.RecordSessionValidation(ctx, "revoked")
	s.User = nil
	s.MarkDirty()
	if err := v.sessions.Destroy(ctx, s); err != nil {
		v.logger.ErrorContext(ctx, "destroy revoked session failed", "user_id", cached.ID, "error", err)
	}
	v.logger.InfoContext(ctx, "session revoked", "user_id", cached.ID)
	return ErrSessionRevoked
}
