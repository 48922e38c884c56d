package vitals

import "github.com/wolfman30/clinicdesk/internal/apierror"

var (
	// ErrNotInLibrary is returned when assigning a config that is not available.
	ErrNotInLibrary = apierror.Conflict("that vital is not in the library")

	// ErrNotAssigned is returned when changing a config that is not assigned.
	ErrNotAssigned = apierror.Conflict("that vital is not assigned")

	// ErrUnknownTemplate is returned for a template ID the clinic does not have.
	ErrUnknownTemplate = apierror.NotFound("template not found")

	// ErrInvalidDrop is returned for a drop the editor cannot perform.
	ErrInvalidDrop = apierror.Invalid("that item cannot be dropped there")
)
