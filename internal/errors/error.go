// Package errors provides structured, coded errors for the loom runtime.
//
// Every error raised by the engine carries a stable code (e.g. "L001") so
// callers can branch on failure class without string matching, and so log
// output stays greppable across releases.
package errors

import "fmt"

// Category represents the subsystem an error belongs to.
type Category string

const (
	CategoryTree     Category = "tree"
	CategoryEvents   Category = "events"
	CategoryStyle    Category = "style"
	CategoryHost     Category = "host"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
)

// LoomError is a structured error with a stable code.
type LoomError struct {
	// Code is a unique error identifier (e.g., "L001").
	Code string

	// Category is the subsystem that produced the error.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, filled from the registry.
	Detail string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *LoomError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *LoomError) Unwrap() error {
	return e.Wrapped
}

// Wrap attaches an underlying error.
func (e *LoomError) Wrap(err error) *LoomError {
	e.Wrapped = err
	return e
}

// WithDetail overrides the registered detail text.
func (e *LoomError) WithDetail(d string) *LoomError {
	e.Detail = d
	return e
}

// Messagef appends formatted context to the short message.
func (e *LoomError) Messagef(format string, args ...any) *LoomError {
	e.Message = e.Message + ": " + fmt.Sprintf(format, args...)
	return e
}

// New creates an error from a registered code.
// Unknown codes still produce a usable error so callers never get nil.
func New(code string) *LoomError {
	if tmpl, ok := registry[code]; ok {
		return &LoomError{
			Code:     code,
			Category: tmpl.Category,
			Message:  tmpl.Message,
			Detail:   tmpl.Detail,
		}
	}
	return &LoomError{
		Code:    code,
		Message: "unknown error",
	}
}

// Newf creates an error from a registered code with extra message context.
func Newf(code string, format string, args ...any) *LoomError {
	return New(code).Messagef(format, args...)
}

// CodeOf extracts the code from an error chain, or "" if none.
func CodeOf(err error) string {
	for err != nil {
		if le, ok := err.(*LoomError); ok {
			return le.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
