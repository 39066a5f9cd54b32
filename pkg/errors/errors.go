// Package errors provides structured error types for flowscript.
//
// Every failure the compiler or its collaborators can report carries a
// machine-readable [Code] so the CLI and the HTTP API can react to it the same
// way:
//   - MISSING_START_NODE: a flow cannot be linearized
//   - INVALID_DOCUMENT: an imported document failed shape validation
//   - EMPTY_SCRIPT_NAME: a save was requested without a name
//   - STORE_FAILED / RUN_FAILED: relayed failures from persistence or execution
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDocument, "edge %s: unknown target %q", id, target)
//	if errors.Is(err, errors.ErrCodeInvalidDocument) {
//	    // reject the import, keep the current graph
//	}
//
//	// Wrap collaborator failures
//	err := errors.Wrap(errors.ErrCodeStoreFailed, origErr, "save %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Compiler errors
	ErrCodeMissingStartNode Code = "MISSING_START_NODE"
	ErrCodeInvalidDocument  Code = "INVALID_DOCUMENT"
	ErrCodeEmptyScriptName  Code = "EMPTY_SCRIPT_NAME"

	// Editing errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeUnknownNode  Code = "UNKNOWN_NODE"
	ErrCodeUnknownEdge  Code = "UNKNOWN_EDGE"
	ErrCodeInvalidKind  Code = "INVALID_KIND"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeScriptNotFound  Code = "SCRIPT_NOT_FOUND"

	// Collaborator errors
	ErrCodeStoreFailed Code = "STORE_FAILED"
	ErrCodeRunFailed   Code = "RUN_FAILED"
	ErrCodeTimeout     Code = "TIMEOUT"

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
// Only the outermost *Error in the chain is consulted, so a STORE_FAILED
// wrapping an INVALID_INPUT reports STORE_FAILED.
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
