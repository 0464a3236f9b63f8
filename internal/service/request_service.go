package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
	"github.com/sandeepkv93/media-request-tracker/internal/repository"
)

const MaxTitleLength = 255

type RequestService struct {
	requests  repository.RequestRepository
	emails    repository.UserEmailRepository
	notifier  *Notifier
	sanitizer *Sanitizer
	logger    *slog.Logger
	now       func() time.Time
}

func NewRequestService(requests repository.RequestRepository, emails repository.UserEmailRepository, notifier *Notifier, sanitizer *Sanitizer, logger *slog.Logger) *RequestService {
	return &RequestService{
		requests:  requests,
		emails:    emails,
		notifier:  notifier,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *RequestService) Create(ctx context.Context, userID uint, title, mediaType string) (*domain.MediaRequest, error) {
	if title == "" || mediaType == "" {
		return nil, invalid("Title and media type are required")
	}
	clean := s.sanitizer.Text(title)
	mediaType = strings.TrimSpace(mediaType)
	if clean == "" || mediaType == "" {
		return nil, invalid("Title and media type cannot be empty")
	}
	if utf8.RuneCountInString(clean) > MaxTitleLength {
		return nil, invalid(fmt.Sprintf("Title must be %d characters or fewer", MaxTitleLength))
	}
	mt, ok := domain.ParseMediaType(mediaType)
	if !ok {
		return nil, invalid("Invalid media type selected")
	}

	req := &domain.MediaRequest{UserID: userID, Title: clean, MediaType: mt}
	if err := s.requests.Create(ctx, req); err != nil {
		observability.RecordMediaRequestMutation(ctx, "create", "error")
		return nil, fmt.Errorf("create request: %w", err)
	}
	observability.RecordMediaRequestMutation(ctx, "create", "success")
	return req, nil
}

func (s *RequestService) ListForUser(ctx context.Context, userID uint) ([]domain.MediaRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}

func (s *RequestService) ListAll(ctx context.Context) ([]domain.MediaRequest, error) {
	return s.requests.ListAll(ctx)
}

func (s *RequestService) ListAllPaged(ctx context.Context, page repository.PageRequest) (repository.PageResult[domain.MediaRequest], error) {
	return s.requests.ListAllPaged(ctx, page)
}

// Complete marks a request fulfilled and notifies the requester when they
// have opted in with a verified address. Notification failures are logged only.
func (s *RequestService) Complete(ctx context.Context, id uint) (*domain.MediaRequest, error) {
	req, err := s.requests.MarkCompleted(ctx, id, s.now().UTC())
	if err != nil {
		observability.RecordMediaRequestMutation(ctx, "complete", "error")
		return nil, requestNotFound(err, "Request not found")
	}
	observability.RecordMediaRequestMutation(ctx, "complete", "success")
	s.notifyCompleted(ctx, req)
	return req, nil
}

func (s *RequestService) notifyCompleted(ctx context.Context, req *domain.MediaRequest) {
	email, err := s.emails.FindByUserID(ctx, req.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserEmailNotFound) {
			s.logger.WarnContext(ctx, "lookup requester email failed", "request_id", req.ID, "error", err)
		}
		return
	}
	if !email.CanNotify() {
		return
	}
	if err := s.notifier.SendRequestCompleted(ctx, email.Email, req.Title, string(req.MediaType)); err != nil {
		s.logger.WarnContext(ctx, "request completion notification failed", "request_id", req.ID, "error", err)
	}
}

// Delete soft-deletes a request. When ownerID is non-nil only that user's
// requests match. Completed requests are never deleted.
func (s *RequestService) Delete(ctx context.Context, id uint, ownerID *uint) (*domain.MediaRequest, error) {
	missing := "Request not found"
	if ownerID != nil {
		missing = "Request not found or you don't have permission to delete it"
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, requestNotFound(err, missing)
	}
	if ownerID != nil && req.UserID != *ownerID {
		return nil, invalidWrap(missing, repository.ErrRequestNotFound)
	}
	if req.DateCompleted != nil {
		return nil, invalid("Cannot delete completed requests")
	}
	deleted, err := s.requests.SoftDelete(ctx, id, s.now().UTC())
	if err != nil {
		observability.RecordMediaRequestMutation(ctx, "delete", "error")
		return nil, requestNotFound(err, missing)
	}
	observability.RecordMediaRequestMutation(ctx, "delete", "success")
	return deleted, nil
}

func requestNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrRequestNotFound) {
		return invalidWrap(msg, err)
	}
	return err
}
