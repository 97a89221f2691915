// Package errors provides structured error types for sourcedeps.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library packages and the CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes mirror the recovery taxonomy of the resolution engine. Every code
// except INVALID_PATH describes a locally recovered condition: the caller
// moves on to the next strategy, candidate, dependency or manifest.
//
//   - SCAN_READ: a file could not be read during the walk (file skipped)
//   - PARSE_EXHAUSTED: no parsing strategy produced records (zero records)
//   - RESOLUTION_EXHAUSTED: every candidate URL failed (dependency failed)
//   - NETWORK_ERROR / TIMEOUT: a single request failed (next candidate)
//   - INVALID_CONTENT: a body did not look like script source (next candidate)
//   - TOO_MANY_REDIRECTS: a redirect chain exceeded its bound (next candidate)
//   - INVALID_PATH: the root directory is unusable (fatal)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPath, "root %s is not a directory", root)
//	if errors.Is(err, errors.ErrCodeInvalidPath) {
//	    // Handle invalid input
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "GET %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"

	// Scan and parse errors
	ErrCodeScanRead       Code = "SCAN_READ"
	ErrCodeParseExhausted Code = "PARSE_EXHAUSTED"

	// Resolution errors
	ErrCodeResolutionExhausted Code = "RESOLUTION_EXHAUSTED"
	ErrCodeInvalidContent      Code = "INVALID_CONTENT"
	ErrCodeTooManyRedirects    Code = "TOO_MANY_REDIRECTS"
	ErrCodeUnexpectedStatus    Code = "UNEXPECTED_STATUS"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// IsFatal reports whether err should stop a whole run. Only unusable input
// is fatal; everything else is recovered by moving to the next unit of work.
func IsFatal(err error) bool {
	return Is(err, ErrCodeInvalidPath) || Is(err, ErrCodeInvalidConfig)
}
