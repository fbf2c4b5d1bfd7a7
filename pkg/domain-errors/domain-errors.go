// Package domainerrors carries failure categories across the engine, the
// stores and the transports without tying them to HTTP or CLI exit codes.
//
// Business outcomes are not errors here: a consistency violation, a blocked
// duplicate or a failed remediation step is reported in the evaluation result.
// Codes describe malformed input and infrastructure trouble only.
package domainerrors

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"
	CodeUnavailable  Code = "unavailable"
)

// Retryable reports whether the same request may succeed later unchanged.
// Conflicts count: a concurrent remediation holding the lock will finish.
func (c Code) Retryable() bool {
	switch c {
	case CodeTimeout, CodeUnavailable, CodeConflict:
		return true
	}
	return false
}

type Error struct {
	Code    Code
	Message string
	// Field is the wire name of the offending input, when one is known.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code alone so callers can test errors.Is(err, &Error{Code: CodeNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports a validation failure on a single input field.
func Invalid(field, format string, args ...any) error {
	return &Error{Code: CodeValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches msg to err. A code already present in the chain wins over code,
// and so does its field.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Field: existing.Field, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost domain code in err's chain, or "" for plain errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
