// Package apperr defines the business-rule error taxonomy shared by the
// stores, the board service, and the HTTP layer. Every error carries a
// machine-readable kind so clients can decide between refreshing and
// retrying.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindNotDue           Kind = "not_due"
	KindAlreadyCompleted Kind = "already_completed"
	KindAlreadyClaimed   Kind = "already_claimed"
)

// HTTPStatus maps a kind to its response status. Unknown kinds (including
// wrapped storage failures) fall through to 500.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindNotDue, KindAlreadyCompleted, KindAlreadyClaimed:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func NotDue(format string, args ...any) *Error {
	return newf(KindNotDue, format, args...)
}

func AlreadyCompleted(format string, args ...any) *Error {
	return newf(KindAlreadyCompleted, format, args...)
}

func AlreadyClaimed(format string, args ...any) *Error {
	return newf(KindAlreadyClaimed, format, args...)
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
