// Package domainerrors defines coded errors shared across services and handlers.
//
// Stores return sentinel errors (pkg/platform/sentinel) describing infrastructure
// facts; services translate them into coded errors here so handlers can map a
// single closed set of codes onto HTTP responses.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and logging.
type Code string

const (
	// CodeUnauthenticated means no actor is bound to the request. Raised
	// before any store access is attempted.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeForbidden means the actor is known but not allowed.
	CodeForbidden Code = "forbidden"
	// CodeInvalidInput means caller-supplied data fails a precondition.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound means a referenced document does not exist. Reflects
	// state, not input shape.
	CodeNotFound Code = "not_found"
	// CodeConflict means the operation clashes with current state.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation means a domain invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal wraps store/network failures. Never retried here.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause is
// preserved for errors.Is/As chains and surfaced in logs, not to clients.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that never passed through a service translation.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
