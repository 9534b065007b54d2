// Package errors provides structured error types for reqcheck.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across every check
//   - Machine-readable error codes for programmatic handling
//   - User-friendly failure messages with remediation hints
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each failure class a check can produce has its own code, so CI tooling
// can distinguish, say, a manifest syntax problem (PARSE_ERROR) from a
// corrupted environment (UNMET_DEPENDENCY).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParse, "cannot parse %q", line)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // Handle parse error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidManifest, origErr, "reading %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the failure classes checks can produce.
const (
	// Manifest and requirement syntax errors
	ErrCodeParse           Code = "PARSE_ERROR"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeDuplicate       Code = "DUPLICATE_REQUIREMENT"

	// Environment errors
	ErrCodeNotInstalled Code = "NOT_INSTALLED"
	ErrCodeUnmet        Code = "UNMET_DEPENDENCY"
	ErrCodeIntegrity    Code = "INTEGRITY"

	// Reconciliation errors
	ErrCodeMismatch Code = "RECONCILIATION_MISMATCH"

	// Cross-ecosystem errors
	ErrCodeCrossEcosystem Code = "CROSS_ECOSYSTEM_MISMATCH"
	ErrCodeConflicting    Code = "CONFLICTING_VERSIONS"

	// Generic errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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
