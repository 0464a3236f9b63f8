package service

import (
	"context"
	"fmt"
	"strings"
)

const (
	ContactPasswordReset = "password-reset"
	ContactGeneral       = "general"
)

type ContactService struct {
	notifier *Notifier
}

func NewContactService(notifier *Notifier) *ContactService {
	return &ContactService{notifier: notifier}
}

// Submit forwards a contact form to the admin mailbox and returns the
// confirmation shown to the sender.
func (s *ContactService) Submit(ctx context.Context, requestType, username, message string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", invalid("Username is required")
	}
	if requestType != ContactPasswordReset && requestType != ContactGeneral {
		return "", invalid("Invalid request type")
	}
	if err := s.notifier.SendContactRequest(ctx, requestType, username, strings.TrimSpace(message)); err != nil {
		return "", invalidWrap("Failed to send request. Please try again later.", err)
	}
	if requestType == ContactPasswordReset {
		return fmt.Sprintf("Password reset request received. %s will contact you shortly to reset your password.", s.notifier.AdminName()), nil
	}
	return fmt.Sprintf("Message received. %s will get back to you soon.", s.notifier.AdminName()), nil
}
