package bookings

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	CodeAuthorization ErrorCode = "authorization"
	CodeNotFound      ErrorCode = "not_found"
	CodeConflict      ErrorCode = "conflict"
	CodeInternal      ErrorCode = "internal"
)

// Error carries a machine-checkable code and a human-readable message.
type Error struct {
	Code    ErrorCode `json:"-"`
	Message string    `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a typed workflow error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the error code, defaulting to internal for untyped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a workflow error to a response status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
