// Package apperr defines the error taxonomy surfaced over the API. Known
// application errors carry an HTTP status code and a safe user-facing message;
// anything else is treated as an internal error by the handlers.
package apperr

import "net/http"

// Error is an application error with an explicit HTTP status code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// New constructs an Error with the given status code and message.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// BadRequest is a 400 validation failure.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized is a 401 authentication failure.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotFound is a 404.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Internal is a 500 with a safe message.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}
