package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"  // bad flags, malformed subnet, unreadable config, missing credentials
	ErrCollect = "COLLECT" // an OS query for one metric category failed
	ErrIO      = "IO"      // export file could not be written or read
	ErrRemote  = "REMOTE"  // language-model service failed or returned non-success
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// The rendered form is:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error

	// Status is the HTTP status reported by a remote service, zero otherwise.
	Status int
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrCollect code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrCollect,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// NewRemote creates a REMOTE error carrying the HTTP status of the failed call.
// A zero status means the request never got a response (transport failure, timeout).
func NewRemote(status int, cause error, message, suggestion string) *Error {
	return &Error{
		Code:       ErrRemote,
		Message:    message,
		Suggestion: suggestion,
		Cause:      cause,
		Status:     status,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	// First line: failure symbol + main message
	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var siErr *Error
	if errors.As(err, &siErr) {
		return siErr.Code == code
	}
	return false
}

// AsError returns err as a structured *Error when it is one (or wraps one).
func AsError(err error) (*Error, bool) {
	var siErr *Error
	if errors.As(err, &siErr) {
		return siErr, true
	}
	return nil, false
}

// IsFatal reports whether err should abort the run. Only configuration
// errors are fatal; every other kind degrades a single stage.
func IsFatal(err error) bool {
	return IsCode(err, ErrConfig)
}

// StatusOf returns the HTTP status carried by a REMOTE error, or 0.
func StatusOf(err error) int {
	var siErr *Error
	if errors.As(err, &siErr) {
		return siErr.Status
	}
	return 0
}

