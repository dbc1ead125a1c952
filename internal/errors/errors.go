// Package errors defines the error taxonomy shared by the link registry,
// the redirect path and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers. The HTTP layer maps it to a status code.
type Kind string

const (
	KindInvalidInput      Kind = "InvalidInput"
	KindConflict          Kind = "Conflict"
	KindNotFound          Kind = "NotFound"
	KindResourceExhausted Kind = "ResourceExhausted"
	KindUnauthorized      Kind = "Unauthorized"
	KindInternal          Kind = "Internal"
)

// Sentinels, one per kind, so callers can use errors.Is without caring about
// the message or the operation that produced the error.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInternal          = errors.New("internal error")
)

// Store level conflicts. The repository returns them so the collision resolver
// can tell a taken code (retry) from a taken URL (return the existing mapping).
var (
	ErrCodeTaken = errors.New("short code already assigned")
	ErrURLTaken  = errors.New("original url already registered")
)

// Error carries a Kind, a message safe to show to the caller, the operation
// that failed and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrNotFound) and friends work for any *Error of the
// matching kind.
func (e *Error) Is(target error) bool {
	return sentinel(e.Kind) == target
}

func sentinel(k Kind) error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	case KindResourceExhausted:
		return ErrResourceExhausted
	case KindUnauthorized:
		return ErrUnauthorized
	default:
		return ErrInternal
	}
}

// E builds an *Error.
func E(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

func InvalidInput(op, message string) *Error {
	return E(KindInvalidInput, op, message, nil)
}

func NotFound(op, message string) *Error {
	return E(KindNotFound, op, message, nil)
}

func Conflict(op, message string, cause error) *Error {
	return E(KindConflict, op, message, cause)
}

func ResourceExhausted(op, message string) *Error {
	return E(KindResourceExhausted, op, message, nil)
}

func Unauthorized(op, message string) *Error {
	return E(KindUnauthorized, op, message, nil)
}

// Internal wraps an unexpected store or runtime failure. The message shown to
// callers is always generic.
func Internal(op string, cause error) *Error {
	return E(KindInternal, op, "internal server error", cause)
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind to the status code used in API responses.
func HTTPStatus(k Kind) int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindResourceExhausted:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
