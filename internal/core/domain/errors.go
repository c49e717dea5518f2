package domain

import (
	"errors"
	"net/http"
)

// Error kinds. Every error that leaves the core carries exactly one of these
// so the transport layer can map it to a status without string matching.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrNotAvailable       = errors.New("not available")
	ErrAlreadyEnrolled    = errors.New("already enrolled")
	ErrTooManyRequests    = errors.New("too many requests")
)

// Error is a client-facing error: Message is safe to render, Kind selects the
// HTTP status.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation is shorthand for NewError(ErrValidation, message).
func Validation(message string) *Error {
	return NewError(ErrValidation, message)
}

var (
	ErrUserNotFound   = NewError(ErrNotFound, "User not found.")
	ErrUserExists     = NewError(ErrConflict, "An account with this email already exists.")
	ErrCourseNotFound = NewError(ErrNotFound, "Course not found.")
)

// StatusOf maps an error to its HTTP status. Errors without a known kind are 500.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotAvailable),
		errors.Is(err, ErrAlreadyEnrolled):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MessageOf returns the client-facing message of err, and false when err is
// not a *Error (its text must not be shown to clients).
func MessageOf(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
