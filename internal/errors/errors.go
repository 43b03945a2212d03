// Package errors provides coded domain errors for librarydesk.
//
// Two kinds of failure reach the screens: transport failures (the backend was
// unreachable or answered with a non-2xx status) and validation failures (the
// input was rejected before any request was made). Kind classifies an error
// into one of them.
//
// Usage:
//
//	// In the borrow form - return typed errors
//	if !found {
//	    return errors.ReaderNotRegistered("create the reader first")
//	}
//
//	// At the screen boundary - branch on the kind
//	switch errors.KindOf(err) {
//	case errors.KindValidation:
//	    showInline(err)
//	case errors.KindTransport:
//	    toast(err)
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeValidation          Code = "VALIDATION"
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL"
	CodeTransport           Code = "TRANSPORT"
	CodeRemote              Code = "REMOTE"
	CodeMalformedResponse   Code = "MALFORMED_RESPONSE"
	CodeUnsupported         Code = "UNSUPPORTED"
	CodeCanceled            Code = "CANCELED"
	CodeReaderNotRegistered Code = "READER_NOT_REGISTERED"
)

// Kind groups codes into the categories the screens react to.
type Kind int

const (
	// KindUnknown is an error that carries no code.
	KindUnknown Kind = iota
	// KindValidation blocks a submission before it reaches the backend.
	KindValidation
	// KindTransport is a network failure or a non-2xx response.
	KindTransport
	// KindCanceled is a call abandoned because its screen was closed.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Kind returns the category of the code.
func (c Code) Kind() Kind {
	switch c {
	case CodeValidation, CodeReaderNotRegistered:
		return KindValidation
	case CodeCanceled:
		return KindCanceled
	case CodeNotFound, CodeBadRequest, CodeAlreadyExists, CodeUnauthorized, CodeForbidden, CodeConflict,
		CodeInternal, CodeTransport, CodeRemote, CodeMalformedResponse, CodeUnsupported:
		return KindTransport
	default:
		return KindUnknown
	}
}

// FromStatus maps a non-2xx HTTP status to a code.
func FromStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusGone:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return CodeRemote
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Kind returns the category of this error.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists       = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized        = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden           = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrBadRequest          = &Error{Code: CodeBadRequest, Message: "bad request"}
	ErrConflict            = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal            = &Error{Code: CodeInternal, Message: "internal error"}
	ErrTransport           = &Error{Code: CodeTransport, Message: "transport error"}
	ErrRemote              = &Error{Code: CodeRemote, Message: "remote error"}
	ErrMalformedResponse   = &Error{Code: CodeMalformedResponse, Message: "malformed response"}
	ErrUnsupported         = &Error{Code: CodeUnsupported, Message: "unsupported operation"}
	ErrCanceled            = &Error{Code: CodeCanceled, Message: "canceled"}
	ErrReaderNotRegistered = &Error{Code: CodeReaderNotRegistered, Message: "reader not registered"}
)

// KindOf classifies err. Context cancellation that was never wrapped in a
// coded error is still reported as KindCanceled.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind()
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return KindUnknown
}

// CodeOf returns the code of the outermost coded error in err's chain.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Transport creates a transport error wrapping the network failure.
func Transport(err error) *Error {
	return &Error{Code: CodeTransport, Message: "request failed", cause: err}
}

// Remote creates an error for a non-2xx response.
func Remote(status int, msg string) *Error {
	return &Error{Code: FromStatus(status), Message: msg, Details: map[string]int{"status": status}}
}

// MalformedResponse creates an error for a response that failed schema checks.
func MalformedResponse(msg string) *Error {
	return &Error{Code: CodeMalformedResponse, Message: msg}
}

// Unsupported creates an error for a verb the backend does not expose.
func Unsupported(msg string) *Error {
	return &Error{Code: CodeUnsupported, Message: msg}
}

// Canceled creates a cancellation error.
func Canceled(msg string) *Error {
	return &Error{Code: CodeCanceled, Message: msg}
}

// ReaderNotRegistered creates the error returned when a borrow names no known reader.
func ReaderNotRegistered(msg string) *Error {
	return &Error{Code: CodeReaderNotRegistered, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
