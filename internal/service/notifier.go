package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
	"github.com/sandeepkv93/media-request-tracker/internal/observability"
)

// Notifier composes the plain-text mails the application sends.
type Notifier struct {
	mailer     Mailer
	adminName  string
	adminEmail string
	baseURL    string
}

func NewNotifier(mailer Mailer, cfg *config.Config) *Notifier {
	return &Notifier{
		mailer:     mailer,
		adminName:  cfg.AdminName,
		adminEmail: cfg.AdminEmail,
		baseURL:    strings.TrimRight(cfg.AppBaseURL, "/"),
	}
}

func (n *Notifier) AdminName() string { return n.adminName }

func (n *Notifier) SendVerification(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", n.baseURL, url.QueryEscape(token))
	body := fmt.Sprintf("Please verify your email address by visiting:\n%s\n\nThis link will expire in 24 hours.\n\nIf you didn't add this address, please ignore this email.\n", link)
	return n.send(ctx, "verification", Message{To: to, Subject: "Verify your email address", Body: body})
}

func (n *Notifier) SendRequestCompleted(ctx context.Context, to, title, mediaType string) error {
	body := fmt.Sprintf("Good news! Your %s request has been completed and is ready for you.\n\n%s\n\nThank you for using %s Services!\n", mediaType, title, n.adminName)
	return n.send(ctx, "request_completed", Message{To: to, Subject: "Your request has been completed", Body: body})
}

func (n *Notifier) SendContactRequest(ctx context.Context, requestType, username, message string) error {
	if n.adminEmail == "" {
		return fmt.Errorf("%w: admin email not configured", ErrDeliveryFailed)
	}
	subject := "New message from " + username
	if requestType == ContactPasswordReset {
		subject = "Password reset request from " + username
	}
	body := fmt.Sprintf("Request type: %s\nUsername: %s\n", requestType, username)
	if message != "" {
		body += "\nMessage:\n" + message + "\n"
	}
	return n.send(ctx, "contact", Message{To: n.adminEmail, Subject: subject, Body: body})
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) error {
	if err := n.mailer.Send(ctx, msg); err != nil {
		observability.RecordNotificationSend(ctx, kind, "error")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	observability.RecordNotificationSend(ctx, kind, "success")
	return nil
}
