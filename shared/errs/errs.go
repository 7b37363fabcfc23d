// Package errs provides the single tagged error type used across the storefront
// engines. Every failure a caller can act on carries an explicit Kind discriminator
// instead of relying on a hierarchy of error types.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so callers can branch on the failure class
// without parsing messages.
type Kind string

const (
	// KindNotFound covers both "record absent" and "record owned by someone else".
	// The two cases must be indistinguishable to the caller.
	KindNotFound Kind = "not_found"

	// KindInvalidCursor is returned for malformed or tampered pagination tokens.
	// A bad cursor is rejected outright, never silently treated as "no cursor".
	KindInvalidCursor Kind = "invalid_cursor"

	// KindStateConflict is returned for disallowed lifecycle transitions.
	KindStateConflict Kind = "state_conflict"

	// KindValidation covers malformed input and unknown referenced entities.
	KindValidation Kind = "validation_failure"

	// KindConflict is a retryable uniqueness collision, e.g. order-number generation.
	KindConflict Kind = "conflict"

	// KindInternal covers infrastructure failures (query building, I/O, scanning).
	KindInternal Kind = "internal"
)

// Error is the tagged error type. It wraps an optional cause which stays
// reachable through errors.Is / errors.As.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the discriminator of this error.
func (e *Error) Kind() Kind {
	return e.kind
}

// New creates an Error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf creates an Error with the given kind and a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given kind and message, keeping cause reachable
// for errors.Is / errors.As.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// NotFound creates a KindNotFound error.
func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

// InvalidCursor creates a KindInvalidCursor error wrapping the decode failure.
func InvalidCursor(cause error) *Error {
	return Wrap(KindInvalidCursor, "invalid pagination cursor", cause)
}

// StateConflict creates a KindStateConflict error.
func StateConflict(msg string) *Error {
	return New(KindStateConflict, msg)
}

// Validation creates a KindValidation error.
func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

// Conflict creates a KindConflict error.
func Conflict(msg string) *Error {
	return New(KindConflict, msg)
}

// Internal creates a KindInternal error wrapping the underlying failure.
func Internal(msg string, cause error) *Error {
	return Wrap(KindInternal, msg, cause)
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Errors that are not *Error report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}

	return KindInternal
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}

	return false
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsInvalidCursor reports whether err is a KindInvalidCursor error.
func IsInvalidCursor(err error) bool { return IsKind(err, KindInvalidCursor) }

// IsStateConflict reports whether err is a KindStateConflict error.
func IsStateConflict(err error) bool { return IsKind(err, KindStateConflict) }

// IsValidation reports whether err is a KindValidation error.
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsConflict reports whether err is a KindConflict error.
func IsConflict(err error) bool { return IsKind(err, KindConflict) }
