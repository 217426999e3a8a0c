package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryInput    Category = "input"
	CategorySanitize Category = "sanitize"
	CategoryRender   Category = "render"
	CategoryDiff     Category = "diff"
	CategoryConfig   Category = "config"
	CategoryPublish  Category = "publish"
	CategoryCLI      Category = "cli"
)

// DocsaveError is a structured error with a code, a subject and a hint.
type DocsaveError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Subject names what the error is about: a file, a URL, a selector.
	Subject string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *DocsaveError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *DocsaveError) Unwrap() error {
	return e.Wrapped
}

// WithSubject records what the error is about.
func (e *DocsaveError) WithSubject(s string) *DocsaveError {
	e.Subject = s
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *DocsaveError) WithSuggestion(s string) *DocsaveError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *DocsaveError) WithDetail(d string) *DocsaveError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *DocsaveError) Wrap(err error) *DocsaveError {
	e.Wrapped = err
	return e
}

// New creates a DocsaveError from a registered error code.
func New(code string) *DocsaveError {
	template, ok := registry[code]
	if !ok {
		return &DocsaveError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &DocsaveError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new DocsaveError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *DocsaveError {
	return &DocsaveError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a DocsaveError. Errors that already
// are (or wrap) a DocsaveError are returned as that error.
func FromError(err error, code string) *DocsaveError {
	if err == nil {
		return nil
	}
	var de *DocsaveError
	if errors.As(err, &de) {
		return de
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, a DocsaveError with code.
func HasCode(err error, code string) bool {
	var de *DocsaveError
	return errors.As(err, &de) && de.Code == code
}
