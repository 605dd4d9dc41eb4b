// Package domainerrors provides coded errors that cross module boundaries.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate them into coded errors from this package so
// handlers can map codes to HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers. The set is closed: every failure the
// core can produce falls into exactly one of these.
type Code string

const (
	// CodeValidation marks malformed or incomplete input. Recoverable: the
	// caller corrects the input and resubmits.
	CodeValidation Code = "validation"
	// CodeStateConflict marks an operation that is illegal in the entity's
	// current state. Recoverable by reloading current state.
	CodeStateConflict Code = "state_conflict"
	// CodeCapacityExceeded marks a slot that was full at commit time.
	// Recoverable by choosing another slot.
	CodeCapacityExceeded Code = "capacity_exceeded"
	// CodeNotFound marks an unknown identifier.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks an actor lacking permission for the operation.
	CodeUnauthorized Code = "unauthorized"
	// CodeConcurrentModification marks a lost optimistic-lock race.
	// Recoverable by retrying with fresh state.
	CodeConcurrentModification Code = "concurrent_modification"
	// CodeBadRequest marks a request that could not be parsed at the boundary.
	CodeBadRequest Code = "bad_request"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a caller-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is uncoded.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-facing message from err, or an empty string
// when err is uncoded.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
