// Package apierror carries errors whose message is safe to show to a portal user.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure with an HTTP status and a user-facing message.
type Error struct {
	Status  int
	Message string
	Op      string
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Invalid reports a validation failure caught before any backend call.
func Invalid(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Forbidden reports a missing capability in the active clinic context.
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// NotFound reports a missing record.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict reports a state that forbids the requested change.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

// Upstream wraps a failed clinic backend call.
func Upstream(op string, status int, msg string) *Error {
	if msg == "" {
		msg = "the clinic service is unavailable, please retry"
	}
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &Error{Status: status, Message: msg, Op: op}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
