package core

import (
	"context"
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotConnected       = errors.New("not connected")
	ErrBusy               = errors.New("another request is in flight")
	ErrEmptyNote          = errors.New("note has neither title nor content")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNoSession          = errors.New("not signed in")
	ErrClosed             = errors.New("view model is closed")
	ErrNotStarted         = errors.New("view model is not started")

	// ErrRefreshFailed marks a mutation that succeeded while the follow-up
	// fetch did not; the list shown may be stale.
	ErrRefreshFailed = errors.New("refresh failed")
)

// GatewayError is a failure reported by the remote backend.
type GatewayError struct {
	Status  int
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway error (status %d)", e.Status)
	}
	return e.Message
}

// IsAuthError reports whether the backend rejected the credentials or token.
func (e *GatewayError) IsAuthError() bool {
	return e.Status == 400 || e.Status == 401 || e.Status == 403
}

// ErrorMessage extracts the text shown to the user for err.
func ErrorMessage(err error) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Error()
	}
	return err.Error()
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
