package service

import (
	"context"

	"github.com/sandeepkv93/media-request-tracker/internal/domain"
	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

// UserLookup is the read-only durable user source consulted on revalidation.
type UserLookup interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
}

// SessionStore is the slice of session.Manager the services need.
type SessionStore interface {
	Persist(ctx context.Context, s *session.Session) error
	Destroy(ctx context.Context, s *session.Session) error
	Regenerate(ctx context.Context, s *session.Session) error
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string
	Subject string
	Body    string
}
