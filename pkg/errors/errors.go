// Package errors provides structured error types for orgchart.
//
// Every failure that leaves the flatten/layout core or the backend adapter
// carries a machine-readable [Code], so the CLI and the HTTP API can map it
// to a message or a status without string matching.
//
// # Error Codes
//
//   - EMPTY_INPUT: the hierarchy had no records. This is the one soft code:
//     callers show a "no results" state instead of failing.
//   - DUPLICATE_ID: two records share an id within one flatten pass.
//   - STRUCTURAL: an edge references a node that is not in the node set,
//     or the graph is not a forest.
//   - INVALID_*: malformed caller input.
//   - NOT_FOUND, NETWORK, UNAUTHORIZED, SESSION_EXPIRED: backend adapter.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicateID, "duplicate record id %q", id)
//	if errors.IsSoft(err) {
//	    // render an empty chart
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Hierarchy and layout errors
	ErrCodeEmptyInput  Code = "EMPTY_INPUT"
	ErrCodeDuplicateID Code = "DUPLICATE_ID"
	ErrCodeStructural  Code = "STRUCTURAL"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"
	ErrCodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Authentication errors
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As is errors.As from the standard library, re-exported so callers that
// import this package under the name errors can still match error types.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsSoft reports whether err only signals an absence of data.
// Soft errors are recoverable: the caller renders an empty result.
func IsSoft(err error) bool {
	return Is(err, ErrCodeEmptyInput)
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
