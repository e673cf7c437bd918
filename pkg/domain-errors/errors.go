// Package errors provides coded domain errors for the portal.
//
// Services return these so transport layers can translate business failures
// into HTTP responses without string matching. Stores return the sentinels in
// pkg/platform/sentinel instead; services translate at the boundary.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeBadRequest marks malformed requests (unreadable body, bad JSON).
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput marks a single field that failed parsing or validation.
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation marks a request that parsed but violates business validation.
	CodeValidation Code = "validation_failed"
	// CodeUnauthorized marks missing or invalid authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated actor lacking the required role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a uniqueness or state conflict.
	CodeConflict Code = "conflict"
	// CodePreconditionFailed marks a business rule blocking a transition.
	// The caller may retry after fixing the underlying cause; no state changed.
	CodePreconditionFailed Code = "precondition_failed"
	// CodeInvariantViolation marks a domain invariant breach inside a model.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a human-readable message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while keeping the cause for
// errors.Is/As chains. A nil err returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// AsDomain extracts the outermost coded error in err's chain.
func AsDomain(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

// Is delegates to the standard library for sentinel comparisons so callers
// can keep a single errors import.
func Is(err, target error) bool { return errors.Is(err, target) }
