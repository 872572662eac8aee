// Package apperr defines the typed failures produced by the authentication
// core. Each error carries a Kind that maps to an HTTP status and a message
// that is safe to show to the client.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindInvalidCredentials
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindInvalidAccessToken
	KindInvalidRefreshToken
)

var kindNames = map[Kind]string{
	KindInternal:            "internal",
	KindBadRequest:          "bad_request",
	KindInvalidCredentials:  "invalid_credentials",
	KindNotFound:            "not_found",
	KindUnauthorized:        "unauthorized",
	KindForbidden:           "forbidden",
	KindConflict:            "conflict",
	KindInvalidAccessToken:  "invalid_access_token",
	KindInvalidRefreshToken: "invalid_refresh_token",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
// Token failures all surface as 401 so the client cannot tell which check failed.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthorized, KindInvalidAccessToken, KindInvalidRefreshToken:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure.
type Error struct {
	Err     error
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so callers can compare against
// the package sentinels regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInternal            = &Error{Kind: KindInternal, Message: "internal server error"}
	ErrBadRequest          = &Error{Kind: KindBadRequest, Message: "bad request"}
	ErrInvalidCredentials  = &Error{Kind: KindInvalidCredentials, Message: "invalid user credentials"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Message: "unauthorized request"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict            = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidAccessToken  = &Error{Kind: KindInvalidAccessToken, Message: "invalid access token"}
	ErrInvalidRefreshToken = &Error{Kind: KindInvalidRefreshToken, Message: "invalid refresh token"}
)

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The message is never shown to clients.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status returns the HTTP status for err.
func Status(err error) int {
	return KindOf(err).Status()
}

// PublicMessage returns the message that may be sent to the client.
// Internal failures are collapsed into a generic message.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return ErrInternal.Message
}
