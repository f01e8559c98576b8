// Package errs defines the error taxonomy surfaced to the action layer and
// the classification of raw protocol errors into it.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind buckets an error by how the UI should present it.
type Kind string

const (
	KindValidation  Kind = "validation"   // missing identifier, never sent over the network
	KindAuthExpired Kind = "auth_expired" // credentials rejected, re-login required
	KindNotFound    Kind = "not_found"    // target deleted or never existed
	KindNetwork     Kind = "network"      // transport failure or offline
	KindServer      Kind = "server"       // backend 5xx
	KindUnknown     Kind = "unknown"
)

// Error is a classified failure with a user-presentable message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Validation builds a validation error. These fail fast before any I/O.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// IsKind reports whether err classifies as the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus is implemented by protocol errors that carry an HTTP-like code.
type HTTPStatus interface {
	HTTPStatus() int
}

// Classify wraps a raw protocol or transport error into a taxonomy error.
// Errors without an HTTP-like code are treated as transport failures.
func Classify(err error, action string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var hs HTTPStatus
	if errors.As(err, &hs) {
		switch code := hs.HTTPStatus(); {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return &Error{Kind: KindAuthExpired, Message: "session expired, please log in again", Cause: err}
		case code == http.StatusNotFound || code == http.StatusGone:
			return &Error{Kind: KindNotFound, Message: action + " failed: no longer exists", Cause: err}
		case code >= 500:
			return &Error{Kind: KindServer, Message: action + " failed: server error, try again later", Cause: err}
		case code > 0:
			return &Error{Kind: KindUnknown, Message: action + " failed", Cause: err}
		}
	}
	return &Error{Kind: KindNetwork, Message: action + " failed: connection problem", Cause: err}
}
