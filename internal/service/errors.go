package service

import (
	"errors"
)

var (
	ErrSessionRevoked            = errors.New("session revoked")
	ErrSessionRevalidationFailed = errors.New("session revalidation failed")
	ErrSessionStore              = errors.New("session store unavailable")
	ErrNotAuthenticated          = errors.New("not authenticated")
	ErrInvalidCredentials        = errors.New("invalid username or password")
	ErrAccountDeactivated        = errors.New("account has been deactivated")
	ErrDeliveryFailed            = errors.New("message delivery failed")
)

// ValidationError carries a message that is safe to show to the user. Err,
// when set, lets callers classify the failure with errors.Is.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(msg string) error { return &ValidationError{Message: msg} }

func invalidWrap(msg string, err error) error { return &ValidationError{Message: msg, Err: err} }

// UserMessage extracts the user-facing text from err, or fallback.
func UserMessage(err error, fallback string) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return fallback
}
