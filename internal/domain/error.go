package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrNoPendingSelection  = errors.New("no pending product selection")
	ErrStaleCartLine       = errors.New("cart line is not tracked in session")
	ErrMissingRegistration = errors.New("registration draft is incomplete")
)

// AuthError means the commerce backend rejected the credential exchange.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: credential exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("auth: credential exchange rejected: status=%d body=%s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// BackendError is any non-2xx answer from the commerce backend.
// Status is 0 when the request never produced a response.
type BackendError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status == 0 && e.Err != nil {
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s: status=%d body=%s", e.Op, e.Status, e.Body)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ValidationError reports user input that failed a grammar check.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// TransportError wraps a failed chat platform call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorClass buckets an error for metrics and alert tags.
func ErrorClass(err error) string {
	var (
		authErr      *AuthError
		backendErr   *BackendError
		validateErr  *ValidationError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &backendErr):
		return "backend"
	case errors.As(err, &validateErr):
		return "validation"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "internal"
	}
}
