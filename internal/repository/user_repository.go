package repository

import (
	"context"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	Restore(ctx context.Context, id uint) error
	SetAdmin(ctx context.Context, id uint, isAdmin bool) error
	UpdatePassword(ctx context.Context, id uint, salt, hash string) error
	CountActiveAdmins(ctx context.Context) (int64, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	recordOperation(ctx, "user", "find_by_id", err)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	recordOperation(ctx, "user", "find_by_username", err)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func (r *GormUserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Order("id").Find(&users).Error
	recordOperation(ctx, "user", "list", err)
	return users, err
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	recordOperation(ctx, "user", "create", err)
	return err
}

func (r *GormUserRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.update(ctx, "soft_delete", id, map[string]any{"date_deleted": at})
}

func (r *GormUserRepository) Restore(ctx context.Context, id uint) error {
	return r.update(ctx, "restore", id, map[string]any{"date_deleted": nil})
}

func (r *GormUserRepository) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	return r.update(ctx, "set_admin", id, map[string]any{"is_admin": isAdmin})
}

func (r *GormUserRepository) UpdatePassword(ctx context.Context, id uint, salt, hash string) error {
	return r.update(ctx, "update_password", id, map[string]any{"salt": salt, "password_hash": hash})
}

func (r *GormUserRepository) update(ctx context.Context, op string, id uint, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	recordOperation(ctx, "user", op, err)
	return notFound(err, ErrUserNotFound)
}

func (r *GormUserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("is_admin = ? AND date_deleted IS NULL", true).
		Count(&n).Error
	recordOperation(ctx, "user", "count_active_admins", err)
	return n, err
}
