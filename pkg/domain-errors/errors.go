// Package domainerrors provides coded errors for the service layer. Services
// translate store sentinels and crypto failures into these; the HTTP layer
// maps codes onto status lines without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and service branching.
type Code string

const (
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeConflict     Code = "conflict"
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error with an optional wrapped cause.
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

// Unwrap exposes the cause so errors.Is/As keep working through the wrap.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around a lower-layer cause. The cause is kept
// for diagnostics and errors.Is chains; the message is what callers see.
func Wrap(cause error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-facing message, or empty for non-domain errors
// so transport never leaks internal detail by accident.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
