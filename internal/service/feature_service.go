package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
)

const (
	MinFeatureTitleLength       = 3
	MinFeatureDescriptionLength = 10
)

type FeatureService struct {
	features  repository.FeatureRepository
	sanitizer *Sanitizer
}

func NewFeatureService(features repository.FeatureRepository, sanitizer *Sanitizer) *FeatureService {
	return &FeatureService{features: features, sanitizer: sanitizer}
}

type CreateFeatureInput struct {
	Page        string
	Selector    string
	Title       string
	Description string
}

func (s *FeatureService) Create(ctx context.Context, in CreateFeatureInput) (*domain.Feature, error) {
	f := &domain.Feature{
		Page:        strings.TrimSpace(in.Page),
		Selector:    strings.TrimSpace(in.Selector),
		Title:       s.sanitizer.Text(in.Title),
		Description: s.sanitizer.Text(in.Description),
	}
	if f.Page == "" || f.Selector == "" || f.Title == "" || f.Description == "" {
		return nil, invalid("All fields are required")
	}
	if len(f.Title) < MinFeatureTitleLength {
		return nil, invalid(fmt.Sprintf("Title must be at least %d characters long", MinFeatureTitleLength))
	}
	if len(f.Description) < MinFeatureDescriptionLength {
		return nil, invalid(fmt.Sprintf("Description must be at least %d characters long", MinFeatureDescriptionLength))
	}
	if err := s.features.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feature: %w", err)
	}
	observability.RecordFeatureMutation(ctx, "create")
	return f, nil
}

func (s *FeatureService) ListActive(ctx context.Context) ([]domain.Feature, error) {
	return s.features.ListActive(ctx)
}

// ListUndismissed returns features still to be shown to the user, optionally
// restricted to one page path.
func (s *FeatureService) ListUndismissed(ctx context.Context, userID uint, page string) ([]domain.Feature, error) {
	return s.features.ListUndismissed(ctx, userID, page)
}

func (s *FeatureService) Dismiss(ctx context.Context, userID, featureID uint) error {
	if err := s.features.Dismiss(ctx, userID, featureID); err != nil {
		return fmt.Errorf("dismiss feature: %w", err)
	}
	return nil
}

func (s *FeatureService) ClearDismissal(ctx context.Context, userID, featureID uint) error {
	return s.features.ClearDismissal(ctx, userID, featureID)
}

func (s *FeatureService) ClearDismissals(ctx context.Context, featureID uint) error {
	if err := s.features.ClearDismissalsForFeature(ctx, featureID); err != nil {
		return err
	}
	observability.RecordFeatureMutation(ctx, "clear_dismissals")
	return nil
}

func (s *FeatureService) ClearDismissalsForUser(ctx context.Context, userID uint) error {
	return s.features.ClearDismissalsForUser(ctx, userID)
}

func (s *FeatureService) Deactivate(ctx context.Context, featureID uint) error {
	if err := s.features.Deactivate(ctx, featureID); err != nil {
		if errors.Is(err, repository.ErrFeatureNotFound) {
			return invalidWrap("Feature not found", err)
		}
		return err
	}
	observability.RecordFeatureMutation(ctx, "deactivate")
	return nil
}
