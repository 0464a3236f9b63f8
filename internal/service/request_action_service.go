package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const (
	ActionComplete = "complete"
	ActionDelete   = "delete"
)

type FormActionResult struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RequestActionService dispatches the complete/delete form actions shared by
// the dashboard and the admin fulfilment page.
type RequestActionService struct {
	requests *RequestService
	logger   *slog.Logger
}

func NewRequestActionService(requests *RequestService, logger *slog.Logger) *RequestActionService {
	return &RequestActionService{requests: requests, logger: logger}
}

func (s *RequestActionService) HandleFormAction(ctx context.Context, action, requestID string, actor session.Identity) FormActionResult {
	if requestID == "" || action == "" {
		return FormActionResult{Error: "Missing request ID or action"}
	}
	if action != ActionComplete && action != ActionDelete {
		return FormActionResult{Error: "Invalid action"}
	}
	if action == ActionComplete && !actor.IsAdmin {
		return FormActionResult{Error: "Only admins can complete requests"}
	}
	id, err := strconv.ParseUint(requestID, 10, 64)
	if err != nil || id == 0 {
		return FormActionResult{Error: "Invalid request ID"}
	}

	switch action {
	case ActionComplete:
		req, err := s.requests.Complete(ctx, uint(id))
		if err != nil {
			return s.failure(ctx, err)
		}
		return FormActionResult{Success: fmt.Sprintf("Request \"%s\" marked as completed", req.Title)}
	default:
		var owner *uint
		if !actor.IsAdmin {
			owner = &actor.ID
		}
		req, err := s.requests.Delete(ctx, uint(id), owner)
		if err != nil {
			return s.failure(ctx, err)
		}
		return FormActionResult{Success: fmt.Sprintf("Request \"%s\" deleted successfully", req.Title)}
	}
}

func (s *RequestActionService) failure(ctx context.Context, err error) FormActionResult {
	msg := UserMessage(err, "Failed to process request")
	if msg == "Failed to process request" {
		s.logger.ErrorContext(ctx, "request action failed", "error", err)
	}
	return FormActionResult{Error: msg}
}
