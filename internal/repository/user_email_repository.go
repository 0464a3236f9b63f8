package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"

	"gorm.io/gorm"
)

type UserEmailRepository interface {
	FindByUserID(ctx context.Context, userID uint) (*domain.UserEmail, error)
	FindByVerificationToken(ctx context.Context, token string) (*domain.UserEmail, error)
	Upsert(ctx context.Context, email *domain.UserEmail) error
	SetNotifications(ctx context.Context, userID uint, allow bool) error
	SetVerificationToken(ctx context.Context, userID uint, token string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type GormUserEmailRepository struct{ db *gorm.DB }

func NewUserEmailRepository(db *gorm.DB) UserEmailRepository {
	return &GormUserEmailRepository{db: db}
}

func (r *GormUserEmailRepository) FindByUserID(ctx context.Context, userID uint) (*domain.UserEmail, error) {
	var e domain.UserEmail
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&e).Error
	recordOperation(ctx, "user_email", "find_by_user_id", err)
	if err != nil {
		return nil, notFound(err, ErrUserEmailNotFound)
	}
	return &e, nil
}

func (r *GormUserEmailRepository) FindByVerificationToken(ctx context.Context, token string) (*domain.UserEmail, error) {
	var e domain.UserEmail
	err := r.db.WithContext(ctx).Where("verification_token = ?", token).First(&e).Error
	recordOperation(ctx, "user_email", "find_by_verification_token", err)
	if err != nil {
		return nil, notFound(err, ErrUserEmailNotFound)
	}
	return &e, nil
}

// Upsert replaces the address row for email.UserID, resetting verification state.
func (r *GormUserEmailRepository) Upsert(ctx context.Context, email *domain.UserEmail) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.UserEmail
		err := tx.Where("user_id = ?", email.UserID).First(&existing).Error
		switch {
		case err == nil:
			email.ID = existing.ID
			email.DateCreated = existing.DateCreated
			return tx.Model(&existing).Updates(map[string]any{
				"email":                   email.Email,
				"allow_notifications":     email.AllowNotifications,
				"verified":                email.Verified,
				"verification_token":      email.VerificationToken,
				"verification_expires_at": email.VerificationExpiresAt,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(email).Error
		default:
			return err
		}
	})
	recordOperation(ctx, "user_email", "upsert", err)
	return err
}

func (r *GormUserEmailRepository) SetNotifications(ctx context.Context, userID uint, allow bool) error {
	return r.updateByUser(ctx, "set_notifications", userID, map[string]any{"allow_notifications": allow})
}

func (r *GormUserEmailRepository) SetVerificationToken(ctx context.Context, userID uint, token string, expiresAt time.Time) error {
	return r.updateByUser(ctx, "set_verification_token", userID, map[string]any{
		"verification_token":      token,
		"verification_expires_at": expiresAt,
	})
}

func (r *GormUserEmailRepository) MarkVerified(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&domain.UserEmail{}).Where("id = ?", id).Updates(map[string]any{
		"verified":                true,
		"verification_token":      nil,
		"verification_expires_at": nil,
	})
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	recordOperation(ctx, "user_email", "mark_verified", err)
	return notFound(err, ErrUserEmailNotFound)
}

func (r *GormUserEmailRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.UserEmail{}).Error
	recordOperation(ctx, "user_email", "delete_by_user_id", err)
	return err
}

func (r *GormUserEmailRepository) updateByUser(ctx context.Context, op string, userID uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.UserEmail{}).Where("user_id = ?", userID).Updates(fields)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	recordOperation(ctx, "user_email", op, err)
	return notFound(err, ErrUserEmailNotFound)
}
