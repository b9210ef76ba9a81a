// Package errors provides the structured error type shared by every
// stage of the base composition core.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the pipeline driver, CLI, and
//     worker HTTP surface
//   - Machine-readable error codes for job-record persistence
//   - User-friendly error messages
//   - Error wrapping with cause preservation
//
// # Error Codes
//
// Error codes follow a fixed taxonomy:
//   - per-item validation: NO_PROFILE, LOW_DPI, UNSUPPORTED_FORMAT,
//     ITEM_EXCEEDS_MAX_LENGTH, ITEM_EXCEEDS_BASE
//   - storage: STORAGE_READ_FAIL, STORAGE_WRITE_FAIL
//   - rendering: RENDER_FAIL
//   - scheduling: TIMEOUT
//   - internal: INTERNAL_COLLISION, INTERNAL_ERROR, INVALID_INPUT
//
// # Usage
//
//	err := errors.New(errors.CodeLowDPI, "item %s: dpi %d below minimum %d", sku, dpi, minDPI)
//	if errors.Is(err, errors.CodeLowDPI) {
//	    // aggregate into job failure
//	}
//
//	err := errors.Wrap(errors.CodeStorageReadFail, origErr, "reading artwork for %s", sku)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code persisted verbatim on the job
// record.
type Code string

// The error taxonomy of the base composition core. Every failure the
// core can produce carries exactly one of these codes.
const (
	// Per-item validation errors, aggregated into a job-level failure.
	CodeNoProfile            Code = "NO_PROFILE"
	CodeLowDPI               Code = "LOW_DPI"
	CodeUnsupportedFormat    Code = "UNSUPPORTED_FORMAT"
	CodeItemExceedsMaxLength Code = "ITEM_EXCEEDS_MAX_LENGTH"
	CodeItemExceedsBase      Code = "ITEM_EXCEEDS_BASE"

	// Transient-retryable storage errors, surfaced after retries exhaust.
	CodeStorageReadFail  Code = "STORAGE_READ_FAIL"
	CodeStorageWriteFail Code = "STORAGE_WRITE_FAIL"

	// Catastrophic renderer failure; no artifacts are written.
	CodeRenderFail Code = "RENDER_FAIL"

	// Soft-deadline exceeded.
	CodeTimeout Code = "TIMEOUT"

	// The anti-collision failsafe fired and could not recover by base
	// rollover. Never expected in correct operation.
	CodeInternalCollision Code = "INTERNAL_COLLISION"

	// Generic internal and input errors outside the core's own taxonomy
	// (malformed collaborator input, programmer errors).
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeInternalError Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, a human message, and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
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

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given code, wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err has the given error code anywhere in its
// unwrap chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from err, or "" if err is not an
// *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the human-readable message for err, without the
// code prefix, falling back to err.Error() for foreign error types.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
