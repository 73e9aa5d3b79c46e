package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the memory engine.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an operation referenced an unknown record id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeCapacityPolicy indicates a caller appended past short-term
	// capacity without running the promotion pass. This is a programming
	// error, not a recoverable condition.
	ErrCodeCapacityPolicy ErrorCode = "CAPACITY_POLICY"

	// ErrCodeScoreComputation indicates a malformed embedding (empty vector
	// or dimension mismatch) made a relevance score uncomputable.
	ErrCodeScoreComputation ErrorCode = "SCORE_COMPUTATION"

	// ErrCodePersistence wraps an opaque failure from a persistence gateway.
	ErrCodePersistence ErrorCode = "PERSISTENCE"

	// ErrCodeInvalidConfig indicates a configuration value outside its
	// documented range.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Error represents a structured error with code, message, and cause.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// IsCode reports whether err or any error it wraps is an *Error carrying the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
