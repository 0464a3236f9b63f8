package service

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/sandeepkv93/media-request-tracker/internal/config"
)

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.SMTPFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetHeader("X-MT-Category", "notification")
	gm.SetBody("text/plain", msg.Body)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer stands in when SMTP is not configured; messages are logged and dropped.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.WarnContext(ctx, "mail not configured, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

func NewMailer(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.MailEnabled() {
		return NewSMTPMailer(cfg)
	}
	return NewLogMailer(logger)
}
