package session

import (
	"context"
	"time"
)

// Identity is the user snapshot cached in a session between revalidations.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type Session struct {
	ID            string    `json:"-"`
	User          *Identity `json:"user,omitempty"`
	CSRFToken     string    `json:"csrfToken,omitempty"`
	LastValidated int64     `json:"lastValidated,omitempty"`

	isNew     bool
	dirty     bool
	saved     bool
	destroyed bool
}

func newSession(id string) *Session {
	return &Session{ID: id, isNew: true}
}

func (s *Session) MarkDirty() { s.dirty = true }

func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) Destroyed() bool { return s.destroyed }

// Initialized reports whether the session carries data worth persisting.
func (s *Session) Initialized() bool {
	return s.User != nil || s.CSRFToken != ""
}

func (s *Session) Authenticated() bool { return s.User != nil }

// SetUser replaces the cached identity and stamps the validation time.
func (s *Session) SetUser(identity Identity, now time.Time) {
	s.User = &identity
	s.LastValidated = now.UnixMilli()
	s.dirty = true
}

func (s *Session) LastValidatedAt() time.Time {
	return time.UnixMilli(s.LastValidated)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity placed by the request gate.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
