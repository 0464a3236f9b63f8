package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/media-request-tracker/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailNotFound = errors.New("user email not found")
	ErrRequestNotFound   = errors.New("request not found")
	ErrFeatureNotFound   = errors.New("feature not found")
)

func recordOperation(ctx context.Context, repository, operation string, err error) {
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, repository, operation, "success")
	case errors.Is(err, gorm.ErrRecordNotFound):
		observability.RecordRepositoryOperation(ctx, repository, operation, "not_found")
	default:
		observability.RecordRepositoryOperation(ctx, repository, operation, "error")
	}
}

// notFound maps gorm's record-not-found onto the repository sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
