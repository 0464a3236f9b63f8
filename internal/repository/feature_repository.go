package repository

import (
	"context"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FeatureRepository interface {
	Create(ctx context.Context, f *domain.Feature) error
	FindByID(ctx context.Context, id uint) (*domain.Feature, error)
	ListActive(ctx context.Context) ([]domain.Feature, error)
	ListUndismissed(ctx context.Context, userID uint, page string) ([]domain.Feature, error)
	Dismiss(ctx context.Context, userID, featureID uint) error
	ClearDismissal(ctx context.Context, userID, featureID uint) error
	ClearDismissalsForFeature(ctx context.Context, featureID uint) error
	ClearDismissalsForUser(ctx context.Context, userID uint) error
	Deactivate(ctx context.Context, id uint) error
}

type GormFeatureRepository struct{ db *gorm.DB }

func NewFeatureRepository(db *gorm.DB) FeatureRepository { return &GormFeatureRepository{db: db} }

func (r *GormFeatureRepository) Create(ctx context.Context, f *domain.Feature) error {
	f.IsActive = true
	err := r.db.WithContext(ctx).Create(f).Error
	recordOperation(ctx, "feature", "create", err)
	return err
}

func (r *GormFeatureRepository) FindByID(ctx context.Context, id uint) (*domain.Feature, error) {
	var f domain.Feature
	err := r.db.WithContext(ctx).First(&f, id).Error
	recordOperation(ctx, "feature", "find_by_id", err)
	if err != nil {
		return nil, notFound(err, ErrFeatureNotFound)
	}
	return &f, nil
}

func (r *GormFeatureRepository) ListActive(ctx context.Context) ([]domain.Feature, error) {
	var fs []domain.Feature
	err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("date_created ASC").Order("id ASC").
		Find(&fs).Error
	recordOperation(ctx, "feature", "list_active", err)
	return fs, err
}

// ListUndismissed returns active features the user has not dismissed. An empty
// page matches every page.
func (r *GormFeatureRepository) ListUndismissed(ctx context.Context, userID uint, page string) ([]domain.Feature, error) {
	dismissed := r.db.Model(&domain.FeatureDismissal{}).Select("feature_id").Where("user_id = ?", userID)
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id NOT IN (?)", dismissed)
	if page != "" {
		q = q.Where("page = ?", page)
	}
	var fs []domain.Feature
	err := q.Order("date_created ASC").Order("id ASC").Find(&fs).Error
	recordOperation(ctx, "feature", "list_undismissed", err)
	return fs, err
}

func (r *GormFeatureRepository) Dismiss(ctx context.Context, userID, featureID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.FeatureDismissal{UserID: userID, FeatureID: featureID}).Error
	recordOperation(ctx, "feature", "dismiss", err)
	return err
}

func (r *GormFeatureRepository) ClearDismissal(ctx context.Context, userID, featureID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND feature_id = ?", userID, featureID).
		Delete(&domain.FeatureDismissal{}).Error
	recordOperation(ctx, "feature", "clear_dismissal", err)
	return err
}

func (r *GormFeatureRepository) ClearDismissalsForFeature(ctx context.Context, featureID uint) error {
	err := r.db.WithContext(ctx).Where("feature_id = ?", featureID).Delete(&domain.FeatureDismissal{}).Error
	recordOperation(ctx, "feature", "clear_dismissals_for_feature", err)
	return err
}

func (r *GormFeatureRepository) ClearDismissalsForUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.FeatureDismissal{}).Error
	recordOperation(ctx, "feature", "clear_dismissals_for_user", err)
	return err
}

func (r *GormFeatureRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&domain.Feature{}).Where("id = ?", id).Update("is_active", false)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
	}
	recordOperation(ctx, "feature", "deactivate", err)
	return notFound(err, ErrFeatureNotFound)
}
