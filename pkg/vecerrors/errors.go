// Package vecerrors provides structured error handling for LazyVec with rich
// context, stack traces, and error categorization.
//
// # Overview
//
// The vecerrors package extends Go's standard error handling with:
//   - Error categorization through ErrorType
//   - Structured context with key-value details
//   - Automatic stack trace capture
//   - Error wrapping with cause preservation
//
// # Basic Usage
//
//	// Create a new error
//	err := vecerrors.New(vecerrors.ErrorTypeUnsupported, "unsupported element type")
//
//	// Add context
//	err = err.WithDetail("type", dt.String())
//
//	// Wrap existing errors
//	if err := unifier.Unify(dict); err != nil {
//	    return vecerrors.Wrap(err, vecerrors.ErrorTypeData, "dictionary unification failed").
//	        WithDetail("chunk", i)
//	}
//
// # Error Types
//
// Errors are categorized by type, which helps with:
//   - Deciding whether the caller should fall back to eager conversion
//   - Distinguishing fatal contract violations from policy declines
//   - Debugging and troubleshooting
package vecerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal invariant violations.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents invalid caller input.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUnsupported represents an encoding or element type this
	// package declines to wrap; the caller must materialize eagerly.
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeData represents data conversion errors, e.g. an embedded
	// nul byte in a string value.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeImmutable represents attempted writes to immutable vectors.
	ErrorTypeImmutable ErrorType = "immutable"
	// ErrorTypeCapability represents operations a variant does not support,
	// e.g. aggregates over categorical data.
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeConfig represents configuration errors.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeSerialization represents state encode/decode errors.
	ErrorTypeSerialization ErrorType = "serialization"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error that caused this error
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted error message
// that includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling compatibility with errors.Is
// and errors.As for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. This method can be
// chained for adding multiple details.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, automatically
// capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if the input error is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsUnsupported reports whether the error is a dispatch decline: the input
// encoding is not wrapped lazily and the caller should convert eagerly.
// A decline is a policy fallback, not a failure.
func IsUnsupported(err error) bool {
	return IsType(err, ErrorTypeUnsupported)
}

// IsImmutable reports whether the error is an attempted write to an
// immutable vector.
func IsImmutable(err error) bool {
	return IsType(err, ErrorTypeImmutable)
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
