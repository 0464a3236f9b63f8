package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
	Secret     string
}

// Manager binds a Store to the signed session cookie.
type Manager struct {
	store      Store
	cookieName string
	secure     bool
	ttl        time.Duration
	secret     []byte
}

func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "sid"
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	return &Manager{
		store:      store,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		ttl:        opts.TTL,
		secret:     []byte(opts.Secret),
	}
}

func (m *Manager) CookieName() string { return m.cookieName }

// Load resolves the request's session. A missing, tampered or expired cookie
// yields a fresh unsaved session; only store failures are returned as errors.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return m.fresh()
	}
	id, ok := m.unsign(c.Value)
	if !ok {
		return m.fresh()
	}
	sess, err := m.store.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return m.fresh()
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *Manager) fresh() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	return newSession(id), nil
}

// Persist writes the session to the store immediately.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return err
	}
	s.dirty = false
	s.saved = true
	return nil
}

// Destroy removes the session from the store; Commit then expires the cookie.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	if err := m.store.Destroy(ctx, s.ID); err != nil {
		return err
	}
	s.destroyed = true
	s.dirty = false
	return nil
}

// Regenerate moves the session data to a new identifier and drops the old record.
func (m *Manager) Regenerate(ctx context.Context, s *Session) error {
	if !s.isNew {
		if err := m.store.Destroy(ctx, s.ID); err != nil {
			return err
		}
	}
	id, err := newID()
	if err != nil {
		return err
	}
	s.ID = id
	s.isNew = true
	s.saved = false
	s.destroyed = false
	s.dirty = true
	return nil
}

// Commit flushes pending changes and writes the cookie. It must run before
// the response headers are sent.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.destroyed {
		if !s.isNew {
			m.expireCookie(w)
		}
		return nil
	}
	if !s.Initialized() {
		return nil
	}
	if s.dirty || (s.isNew && !s.saved) {
		if err := m.Persist(ctx, s); err != nil {
			return err
		}
	}
	if s.saved {
		m.setCookie(w, s.ID)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    m.sign(id),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Expires:  time.Now().Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *Manager) sign(id string) string {
	return id + "." + base64.RawURLEncoding.EncodeToString(m.mac(id))
}

func (m *Manager) unsign(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, m.mac(id)) {
		return "", false
	}
	return id, true
}

func (m *Manager) mac(id string) []byte {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return h.Sum(nil)
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
