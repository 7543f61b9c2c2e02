package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindNotFound      ErrorKind = "not_found"
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindConflict      ErrorKind = "conflict"
	ErrorKindForbidden     ErrorKind = "forbidden"
	ErrorKindUnauthorized  ErrorKind = "unauthorized"
	ErrorKindPaymentFailed ErrorKind = "payment_failed"
	ErrorKindInternal      ErrorKind = "internal"
)

// Error is the failure value returned by aggregates and handlers.
// Code is stable and dotted, e.g. "Order.InvalidStatus".
type Error struct {
	Code    string
	Message string
	Kind    ErrorKind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, so sentinel-style checks work:
// errors.Is(err, &domain.Error{Code: "Cart.NotFound"}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the same command unchanged.
func (e *Error) Retryable() bool {
	return e.Kind == ErrorKindConflict && e.Err != nil && errors.Is(e.Err, ErrConcurrencyConflict)
}

var ErrConcurrencyConflict = errors.New("concurrency conflict")

func NotFound(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: ErrorKindNotFound}
}

func Validation(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: ErrorKindValidation}
}

func Conflict(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: ErrorKindConflict}
}

func Forbidden(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: ErrorKindForbidden}
}

func Unauthorized(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: ErrorKindUnauthorized}
}

func PaymentFailed(code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: ErrorKindPaymentFailed}
}

// Internal wraps an infrastructure failure; the cause's text is kept in the message.
func Internal(code string, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Kind: ErrorKindInternal, Err: err}
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ErrorCode returns the code of err, or "" when err carries none.
func ErrorCode(err error) string {
	if de, ok := AsError(err); ok {
		return de.Code
	}
	return ""
}
