package repository

import (
	"context"
	"time"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"

	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, req *domain.MediaRequest) error
	FindByID(ctx context.Context, id uint) (*domain.MediaRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.MediaRequest, error)
	ListAll(ctx context.Context) ([]domain.MediaRequest, error)
	ListAllPaged(ctx context.Context, page PageRequest) (PageResult[domain.MediaRequest], error)
	MarkCompleted(ctx context.Context, id uint, at time.Time) (*domain.MediaRequest, error)
	SoftDelete(ctx context.Context, id uint, at time.Time) (*domain.MediaRequest, error)
}

type GormRequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) RequestRepository { return &GormRequestRepository{db: db} }

func (r *GormRequestRepository) Create(ctx context.Context, req *domain.MediaRequest) error {
	err := r.db.WithContext(ctx).Create(req).Error
	recordOperation(ctx, "request", "create", err)
	return err
}

func (r *GormRequestRepository) FindByID(ctx context.Context, id uint) (*domain.MediaRequest, error) {
	var req domain.MediaRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	recordOperation(ctx, "request", "find_by_id", err)
	if err != nil {
		return nil, notFound(err, ErrRequestNotFound)
	}
	return &req, nil
}

func (r *GormRequestRepository) ListByUser(ctx context.Context, userID uint) ([]domain.MediaRequest, error) {
	var reqs []domain.MediaRequest
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("date_created DESC").Order("id DESC").
		Find(&reqs).Error
	recordOperation(ctx, "request", "list_by_user", err)
	return reqs, err
}

func (r *GormRequestRepository) ListAll(ctx context.Context) ([]domain.MediaRequest, error) {
	var reqs []domain.MediaRequest
	err := r.db.WithContext(ctx).Order("date_created ASC").Order("id ASC").Find(&reqs).Error
	recordOperation(ctx, "request", "list_all", err)
	return reqs, err
}

func (r *GormRequestRepository) ListAllPaged(ctx context.Context, page PageRequest) (PageResult[domain.MediaRequest], error) {
	req := normalizePageRequest(page)
	result := PageResult[domain.MediaRequest]{Page: req.Page, PageSize: req.PageSize}

	base := r.db.WithContext(ctx).Model(&domain.MediaRequest{})
	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		recordOperation(ctx, "request", "list_all_paged", err)
		return PageResult[domain.MediaRequest]{}, err
	}
	offset := (req.Page - 1) * req.PageSize
	err := base.Order("date_created ASC").Order("id ASC").
		Offset(offset).Limit(req.PageSize).
		Find(&result.Items).Error
	recordOperation(ctx, "request", "list_all_paged", err)
	if err != nil {
		return PageResult[domain.MediaRequest]{}, err
	}
	result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	return result, nil
}

func (r *GormRequestRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) (*domain.MediaRequest, error) {
	return r.stamp(ctx, "mark_completed", id, "date_completed", at)
}

func (r *GormRequestRepository) SoftDelete(ctx context.Context, id uint, at time.Time) (*domain.MediaRequest, error) {
	return r.stamp(ctx, "soft_delete", id, "date_deleted", at)
}

func (r *GormRequestRepository) stamp(ctx context.Context, op string, id uint, column string, at time.Time) (*domain.MediaRequest, error) {
	var req domain.MediaRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.MediaRequest{}).Where("id = ?", id).Update(column, at).Error; err != nil {
			return err
		}
		stamped := at
		if column == "date_completed" {
			req.DateCompleted = &stamped
		} else {
			req.DateDeleted = &stamped
		}
		return nil
	})
	recordOperation(ctx, "request", op, err)
	if err != nil {
		return nil, notFound(err, ErrRequestNotFound)
	}
	return &req, nil
}
