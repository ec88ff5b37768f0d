package domain

import "fmt"

// ValidationError indicates invalid client input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AccessDeniedError indicates a role/identity policy violation. It is an
// expected outcome, never a server failure.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// NotFoundError indicates the requested record or session does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// UpstreamError wraps a failure of the generative backend or data store.
// The wrapped cause is for server-side logs only and must never be echoed
// to a client.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...any) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrUpstream wraps an upstream failure under an operation name.
func ErrUpstream(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}
