package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime    Category = "runtime"
	CategoryDelegation Category = "delegation"
	CategoryHydration  Category = "hydration"
	CategoryStore      Category = "store"
	CategoryProtocol   Category = "protocol"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// WeftError is a coded error with an explanation and an optional fix hint.
type WeftError struct {
	// Code is a unique error identifier (e.g., "W040").
	Code string

	// Category is the error type (hydration, protocol, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Attrs are structured values describing the failing input, such as
	// the node that failed to hydrate.
	Attrs map[string]any

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WeftError) Error() string {
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
func (e *WeftError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a WeftError with the same code. This lets
// a registered error serve as a sentinel for every error created from its
// code.
func (e *WeftError) Is(target error) bool {
	t, ok := target.(*WeftError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WeftError) WithSuggestion(s string) *WeftError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WeftError) WithDetail(d string) *WeftError {
	e.Detail = d
	return e
}

// WithAttr records a structured value on the error.
func (e *WeftError) WithAttr(key string, value any) *WeftError {
	if e.Attrs == nil {
		e.Attrs = make(map[string]any)
	}
	e.Attrs[key] = value
	return e
}

// Wrap wraps another error.
func (e *WeftError) Wrap(err error) *WeftError {
	e.Wrapped = err
	return e
}

// New creates a WeftError from a registered error code.
func New(code string) *WeftError {
	template, ok := registry[code]
	if !ok {
		return &WeftError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WeftError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new WeftError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WeftError {
	return &WeftError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WeftError. Errors that already
// are (or wrap) a WeftError are returned as that WeftError.
func FromError(err error, code string) *WeftError {
	if err == nil {
		return nil
	}
	var we *WeftError
	if errors.As(err, &we) {
		return we
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first WeftError in err's chain.
func CodeOf(err error) string {
	var we *WeftError
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}
