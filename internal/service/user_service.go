package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
	"github.com/sandeepkv93/media-request-tracker/internal/security"
)

const (
	MinUsernameLength       = 3
	MinPasswordLength       = 16
	EmailVerificationTTL    = 24 * time.Hour
	verificationTokenLength = 32
	verificationMissTTL     = 10 * time.Minute
)

type UserService struct {
	users    repository.UserRepository
	emails   repository.UserEmailRepository
	hasher   *security.PasswordHasher
	notifier *Notifier
	validate *validator.Validate
	misses   MissCache
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, emails repository.UserEmailRepository, hasher *security.PasswordHasher, notifier *Notifier, logger *slog.Logger) *UserService {
	return &UserService{
		users:    users,
		emails:   emails,
		hasher:   hasher,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithTokenMissCache makes VerifyEmail answer repeated unknown tokens from
// cache instead of the database.
func (s *UserService) WithTokenMissCache(c MissCache) *UserService {
	s.misses = c
	return s
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid(fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Create(ctx context.Context, username, password string, isAdmin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength {
		return nil, invalid(fmt.Sprintf("Username must be at least %d characters long", MinUsernameLength))
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, invalid(fmt.Sprintf("User with username \"%s\" already exists", username))
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	salt, hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Username: username, Salt: salt, PasswordHash: hash, IsAdmin: isAdmin}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	observability.RecordAdminUserMutation(ctx, "create")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return invalid("Cannot delete your own account")
	}
	if err := s.users.SoftDelete(ctx, userID, s.now().UTC()); err != nil {
		return userNotFound(err)
	}
	observability.RecordAdminUserMutation(ctx, "delete")
	return nil
}

func (s *UserService) Restore(ctx context.Context, userID uint) error {
	if err := s.users.Restore(ctx, userID); err != nil {
		return userNotFound(err)
	}
	observability.RecordAdminUserMutation(ctx, "restore")
	return nil
}

// ToggleAdmin flips the admin flag and returns the new value. The last active
// admin cannot be demoted.
func (s *UserService) ToggleAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, userNotFound(err)
	}
	if user.IsAdmin && !user.IsDeleted() {
		admins, err := s.users.CountActiveAdmins(ctx)
		if err != nil {
			return false, err
		}
		if admins <= 1 {
			return false, invalid("Cannot remove admin privileges - at least one admin must remain")
		}
	}
	next := !user.IsAdmin
	if err := s.users.SetAdmin(ctx, userID, next); err != nil {
		return false, userNotFound(err)
	}
	observability.RecordAdminUserMutation(ctx, "toggle_admin")
	return next, nil
}

func (s *UserService) ResetPassword(ctx context.Context, userID uint, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	salt, hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, salt, hash); err != nil {
		return userNotFound(err)
	}
	observability.RecordAdminUserMutation(ctx, "reset_password")
	return nil
}

// SetPasswordByUsername is the operator path used by the CLI.
func (s *UserService) SetPasswordByUsername(ctx context.Context, username, password string) error {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return userNotFound(err)
	}
	return s.ResetPassword(ctx, user.ID, password)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return userNotFound(err)
	}
	ok, err := s.hasher.Verify(user.PasswordHash, current, user.Salt)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return invalid("Current password is incorrect")
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	salt, hash, err := s.hashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, salt, hash)
}

func (s *UserService) hashPassword(password string) (string, string, error) {
	salt, err := s.hasher.NewSalt()
	if err != nil {
		return "", "", err
	}
	hash, err := s.hasher.Hash(password, salt)
	if err != nil {
		return "", "", fmt.Errorf("hash password: %w", err)
	}
	return salt, hash, nil
}

// Email returns the user's address record, or nil when none is on file.
func (s *UserService) Email(ctx context.Context, userID uint) (*domain.UserEmail, error) {
	e, err := s.emails.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrUserEmailNotFound) {
		return nil, nil
	}
	return e, err
}

// SetEmail stores a new unverified address and mails a verification link.
func (s *UserService) SetEmail(ctx context.Context, userID uint, email string, allowNotifications bool) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("Email address is required")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return invalid("Please enter a valid email address")
	}
	token, err := security.RandomHex(verificationTokenLength)
	if err != nil {
		return err
	}
	expires := s.now().Add(EmailVerificationTTL).UTC()
	record := &domain.UserEmail{
		UserID:                userID,
		Email:                 email,
		AllowNotifications:    allowNotifications,
		VerificationToken:     &token,
		VerificationExpiresAt: &expires,
	}
	if err := s.emails.Upsert(ctx, record); err != nil {
		return fmt.Errorf("save email: %w", err)
	}
	return s.notifier.SendVerification(ctx, email, token)
}

func (s *UserService) ToggleNotifications(ctx context.Context, userID uint) (bool, error) {
	e, err := s.emails.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserEmailNotFound) {
			return false, invalidWrap("Email not found", err)
		}
		return false, err
	}
	next := !e.AllowNotifications
	if err := s.emails.SetNotifications(ctx, userID, next); err != nil {
		return false, err
	}
	return next, nil
}

func (s *UserService) RemoveEmail(ctx context.Context, userID uint) error {
	return s.emails.DeleteByUserID(ctx, userID)
}

func (s *UserService) ResendVerification(ctx context.Context, userID uint) error {
	e, err := s.emails.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserEmailNotFound) {
			return invalidWrap("No email address on file", err)
		}
		return err
	}
	if e.Verified {
		return invalid("Email is already verified")
	}
	token, err := security.RandomHex(verificationTokenLength)
	if err != nil {
		return err
	}
	if err := s.emails.SetVerificationToken(ctx, userID, token, s.now().Add(EmailVerificationTTL).UTC()); err != nil {
		return err
	}
	return s.notifier.SendVerification(ctx, e.Email, token)
}

// VerifyEmail consumes a verification token. It reports false for unknown or
// expired tokens.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if s.misses != nil {
		seen, err := s.misses.Seen(ctx, token)
		if err != nil {
			s.logger.WarnContext(ctx, "verification miss cache unavailable", "error", err)
		} else if seen {
			return false, nil
		}
	}
	e, err := s.emails.FindByVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrUserEmailNotFound) {
		if s.misses != nil {
			if err := s.misses.Remember(ctx, token, verificationMissTTL); err != nil {
				s.logger.WarnContext(ctx, "verification miss cache unavailable", "error", err)
			}
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if e.VerificationExpiresAt == nil || !s.now().Before(*e.VerificationExpiresAt) {
		s.logger.InfoContext(ctx, "expired email verification token", "user_id", e.UserID)
		return false, nil
	}
	if err := s.emails.MarkVerified(ctx, e.ID); err != nil {
		return false, err
	}
	return true, nil
}

func userNotFound(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return invalidWrap("User not found", err)
	}
	return err
}
