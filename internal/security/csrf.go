package security

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/sandeepkv93/media-request-tracker/internal/session"
)

const (
	CSRFTokenBytes = 32
	CSRFFieldName  = "csrfToken"

	// CSRFFailureReason is the only message a caller ever sees for a forgery rejection.
	CSRFFailureReason = "Invalid request. Please try again."
)

type CSRFResult struct {
	OK     bool
	Reason string
}

// CSRFGuard issues and verifies the synchronizer token stored in a session.
type CSRFGuard struct {
	random func(n int) (string, error)
}

func NewCSRFGuard() *CSRFGuard {
	return &CSRFGuard{random: RandomHex}
}

// Issue returns the session's token, generating and storing one when unset.
func (g *CSRFGuard) Issue(s *session.Session) (string, error) {
	if s.CSRFToken != "" {
		return s.CSRFToken, nil
	}
	token, err := g.random(CSRFTokenBytes)
	if err != nil {
		return "", err
	}
	s.CSRFToken = token
	s.MarkDirty()
	return token, nil
}

// Verify compares submitted against the session token in constant time.
func (g *CSRFGuard) Verify(s *session.Session, submitted string) bool {
	if s == nil || submitted == "" || s.CSRFToken == "" {
		return false
	}
	expected, err := hex.DecodeString(s.CSRFToken)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(submitted)
	if err != nil {
		return false
	}
	if len(expected) != len(got) {
		return false
	}
	return subtle.ConstantTimeCompare(expected, got) == 1
}

func (g *CSRFGuard) ValidateMutatingRequest(method, bodyToken string, s *session.Session) CSRFResult {
	if IsSafeMethod(method) {
		return CSRFResult{OK: true}
	}
	if !g.Verify(s, bodyToken) {
		return CSRFResult{Reason: CSRFFailureReason}
	}
	return CSRFResult{OK: true}
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
