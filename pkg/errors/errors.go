// Package errors provides structured error types for the splice verifier.
//
// Every stage of the render-and-verify pipeline reports failures as an
// [*Error] carrying a machine-readable [Code]. The mint gate turns these
// codes into the reason of a rejected verdict, and the HTTP adapter maps
// them to status codes, so the code set below is part of the public
// contract.
//
// # Error Codes
//
//   - INVALID_*: malformed addresses, token ids or request shapes
//   - CATALOG_UNAVAILABLE: the style catalog could not be fetched
//   - NOT_FOUND: unknown style, network or image reference
//   - RENDER_FAILURE: a style program failed or exceeded its budget
//   - MALFORMED_IMAGE: bytes did not decode as a raster image
//   - DIMENSION_MISMATCH: reference and candidate differ in size
//   - IMAGES_DIFFER: pixel difference above the tolerated percentage
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidAddress, "address must be 20 bytes, got %d", n)
//	if errors.Is(err, errors.ErrCodeInvalidAddress) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCatalogUnavailable, origErr, "fetch catalog for network %d", id)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidAddress Code = "INVALID_ADDRESS"
	ErrCodeInvalidTokenID Code = "INVALID_TOKEN_ID"
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeCatalogUnavailable Code = "CATALOG_UNAVAILABLE"

	// Pipeline errors
	ErrCodeRenderFailure     Code = "RENDER_FAILURE"
	ErrCodeMalformedImage    Code = "MALFORMED_IMAGE"
	ErrCodeDimensionMismatch Code = "DIMENSION_MISMATCH"
	ErrCodeImagesDiffer      Code = "IMAGES_DIFFER"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// CodeOr returns the code of err, or fallback when err carries none.
func CodeOr(err error, fallback Code) Code {
	if c := GetCode(err); c != "" {
		return c
	}
	return fallback
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

// IsInvalidInput reports whether err is any of the input validation codes.
func IsInvalidInput(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidAddress, ErrCodeInvalidTokenID,
		ErrCodeInvalidRequest, ErrCodeInvalidPath:
		return true
	}
	return false
}
