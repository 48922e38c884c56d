package access

import (
	"errors"
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

var (
	// ErrUnknownRole is returned when the backend reports a role we do not model.
	ErrUnknownRole = errors.New("access: unknown role")

	// ErrSessionNotFound is returned when no live session matches the token.
	ErrSessionNotFound = &apierror.Error{Status: http.StatusUnauthorized, Message: "your session has expired, please sign in again"}

	// ErrNotMember is returned when the caller has no role in the requested clinic.
	ErrNotMember = apierror.Forbidden("you are not a member of this clinic")
)
