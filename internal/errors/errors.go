// Package errors defines the stable error codes surfaced by ConsoleBlue
// services and the HTTP API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable error code string.
type Code string

// Error codes. Clients switch on these, so they must not change.
const (
	EValidation         Code = "E_VALIDATION"
	ENotFound           Code = "E_NOT_FOUND"
	EConflict           Code = "E_CONFLICT"
	ENotConfigured      Code = "E_NOT_CONFIGURED"
	EServiceUnavailable Code = "E_SERVICE_UNAVAILABLE"
	EPublishFailed      Code = "E_PUBLISH_FAILED"
	EInternal           Code = "E_INTERNAL"
)

// Error is the standard error type for ConsoleBlue errors.
type Error struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string
}

// Error returns "CODE: message".
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with a format string.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &Error{Code: code, Msg: msg, Cause: err}
}

// WithDetails creates a new Error carrying structured details.
func WithDetails(code Code, msg string, details map[string]string) error {
	return &Error{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Validation reports a bad field value. The field name lands in Details["field"].
func Validation(field, msg string) error {
	return &Error{Code: EValidation, Msg: msg, Details: map[string]string{"field": field}}
}

// NotFound reports an unknown entity.
func NotFound(format string, args ...any) error {
	return Newf(ENotFound, format, args...)
}

// Conflict reports a uniqueness or state conflict.
func Conflict(format string, args ...any) error {
	return Newf(EConflict, format, args...)
}

// GetCode extracts the error code from an error, or empty string if err is
// not (and does not wrap) an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// As returns (*Error, true) if err is or wraps an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps an error to the HTTP status used by the API layer.
// Errors without a code are internal.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case EValidation:
		return http.StatusBadRequest
	case ENotFound:
		return http.StatusNotFound
	case EConflict:
		return http.StatusConflict
	case ENotConfigured:
		return http.StatusBadRequest
	case EServiceUnavailable:
		return http.StatusServiceUnavailable
	case EPublishFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}
