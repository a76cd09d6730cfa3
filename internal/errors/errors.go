// Package errors defines the coded error type used to classify failures of
// the remote admin API.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies an error.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeTransport       Code = "TRANSPORT"
	CodeTimeout         Code = "TIMEOUT"
	CodeServer          Code = "SERVER"
	CodeDecode          Code = "DECODE"
)

var defaultMessages = map[Code]string{
	CodeUnknown:         "unknown error",
	CodeInvalidArgument: "invalid argument",
	CodeUnauthorized:    "not authorized",
	CodeNotFound:        "resource not found",
	CodeTransport:       "server unreachable",
	CodeTimeout:         "request timed out",
	CodeServer:          "server error",
	CodeDecode:          "malformed response",
}

// DefaultMessage returns the human readable text for a code.
func DefaultMessage(code Code) string {
	if msg, ok := defaultMessages[code]; ok {
		return msg
	}
	return defaultMessages[CodeUnknown]
}

// Error is the coded error type.
type Error struct {
	code    Code
	message string
	status  int
	cause   error
}

// Option configures an Error.
type Option func(*Error)

// WithStatus records the HTTP status that produced the error.
func WithStatus(status int) Option {
	return func(e *Error) {
		e.status = status
	}
}

// New creates an error with the given code. An empty message falls back to
// the code's default text.
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = DefaultMessage(code)
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Wrap creates a coded error around cause.
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Status is the HTTP status, zero when the request never got a response.
func (e *Error) Status() int {
	if e == nil {
		return 0
	}
	return e.status
}

// From extracts an *Error from err's chain.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeUnknown.
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}

// MessageOf returns the operator facing text for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := From(err); ok {
		return e.Message()
	}
	return err.Error()
}
