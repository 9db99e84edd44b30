// Package errors provides structured error types for the engraving engine.
//
// Every failure in the layout core is synchronous and non-recoverable for the
// operation that raised it: the caller fixes the input (or the call order)
// and tries again. Errors carry a machine-readable [Code] so callers can tell
// malformed input apart from sequencing bugs.
//
// # Error Codes
//
// Codes fall into four groups:
//   - Bad input: BAD_ARGUMENTS, PARSE_ERROR, DIVIDE_BY_ZERO, TOO_MANY_TICKS
//   - Unformatted access: NO_Y_VALUES, UNFORMATTED_NOTE
//   - Missing association: NO_NOTE, NO_STEM, NO_STAVE, NO_CONTEXT, ...
//   - Domain rule: INVALID_CONFIGURATION, BAD_SLIDE, TICK_MISMATCH
//
// # Usage
//
//	err := errors.New(errors.ErrCodeBadArguments, "invalid duration: %s", d)
//	if errors.Is(err, errors.ErrCodeBadArguments) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "score %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeBadArguments  Code = "BAD_ARGUMENTS"
	ErrCodeParse         Code = "PARSE_ERROR"
	ErrCodeDivideByZero  Code = "DIVIDE_BY_ZERO"
	ErrCodeTooManyTicks  Code = "TOO_MANY_TICKS"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Sequencing errors: a geometry query made before its layout pass ran
	ErrCodeNoYValues       Code = "NO_Y_VALUES"
	ErrCodeUnformattedNote Code = "UNFORMATTED_NOTE"

	// Missing associations
	ErrCodeNoNote            Code = "NO_NOTE"
	ErrCodeNoStem            Code = "NO_STEM"
	ErrCodeNoStave           Code = "NO_STAVE"
	ErrCodeNoContext         Code = "NO_CONTEXT"
	ErrCodeNoModifierContext Code = "NO_MODIFIER_CONTEXT"
	ErrCodeNoTickContext     Code = "NO_TICK_CONTEXT"

	// Domain rule violations
	ErrCodeInvalidConfiguration Code = "INVALID_CONFIGURATION"
	ErrCodeBadSlide             Code = "BAD_SLIDE"
	ErrCodeIncompleteVoice      Code = "INCOMPLETE_VOICE"
	ErrCodeTickMismatch         Code = "TICK_MISMATCH"

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

// IsSequencing reports whether err signals a geometry query made before the
// layout pass that produces it. These indicate a caller bug, not bad input.
func IsSequencing(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoYValues, ErrCodeUnformattedNote:
		return true
	}
	return false
}
