// Package apperr defines the error taxonomy shared by all domain services.
// Services return classified errors; handlers map them to HTTP statuses
// without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the expected, user-facing outcomes
// or an internal fault.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindExpired
	KindForbidden
	KindValidation
)

// Error carries a kind, a user-facing message, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Msg: msg} }
func Expired(msg string) error    { return &Error{Kind: KindExpired, Msg: msg} }
func Forbidden(msg string) error  { return &Error{Kind: KindForbidden, Msg: msg} }
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// Internal wraps an unexpected persistence or collaborator error. The wrapped
// cause is logged by callers; the message returned to clients stays generic.
func Internal(err error) error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is lets errors.Is match on kind: errors.Is(err, apperr.NotFound("")) is
// true for any not-found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// HTTPStatus maps an error kind to the HTTP status returned to clients.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindExpired:
		return http.StatusGone
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for err. Internal faults always
// produce a generic message so details never leak to clients.
func Message(err error) string {
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
