package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryLifecycle Category = "lifecycle"
	CategoryCache     Category = "cache"
	CategoryConfig    Category = "config"
	CategoryArchive   Category = "archive"
	CategoryCLI       Category = "cli"
)

// MorphError is a structured error with a stable code, a suggestion and a
// documentation link.
type MorphError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *MorphError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *MorphError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *MorphError) WithSuggestion(s string) *MorphError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *MorphError) WithDetail(d string) *MorphError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *MorphError) WithDetailf(format string, args ...any) *MorphError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *MorphError) Wrap(err error) *MorphError {
	e.Wrapped = err
	return e
}

// New creates an error from a registered code.
func New(code string) *MorphError {
	template, ok := registry[code]
	if !ok {
		return &MorphError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &MorphError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates an uncoded error with a formatted message.
func Newf(category Category, format string, args ...any) *MorphError {
	return &MorphError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError converts err into a MorphError, wrapping it under code unless it
// already is one.
func FromError(err error, code string) *MorphError {
	if err == nil {
		return nil
	}
	var me *MorphError
	if errors.As(err, &me) {
		return me
	}
	return New(code).Wrap(err)
}

// Code returns the code of the first MorphError in err's chain, or "".
func Code(err error) string {
	var me *MorphError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}
