// Package apperr defines the error taxonomy shared by every layer. Each kind
// maps to one HTTP status; anything that does not wrap a kind is internal.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error attaches a client-facing message to one of the kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// New wraps kind with msg.
func New(kind error, msg string) error { return &Error{Kind: kind, Msg: msg} }

func InvalidInput(msg string) error    { return New(ErrInvalidInput, msg) }
func Unauthenticated(msg string) error { return New(ErrUnauthenticated, msg) }
func Forbidden(msg string) error       { return New(ErrForbidden, msg) }
func NotFound(msg string) error        { return New(ErrNotFound, msg) }
func Conflict(msg string) error        { return New(ErrConflict, msg) }

// Status returns the HTTP status code for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text that may be shown to a client. Internal errors
// never leak their details.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
