package appointments

import (
	"errors"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

var (
	// ErrInvalidTimeRange is returned when start does not precede end.
	ErrInvalidTimeRange = apierror.Invalid("the appointment must start before it ends")

	// ErrNoSlotSelected is returned when a booking has no time slot.
	ErrNoSlotSelected = apierror.Invalid("please select a time slot")

	// ErrIllegalTransition is returned for status changes the lifecycle forbids.
	ErrIllegalTransition = apierror.Conflict("this appointment can no longer change to that status")

	// ErrAlreadyClosed is returned when rescheduling a cancelled or completed appointment.
	ErrAlreadyClosed = apierror.Conflict("cancelled or completed appointments cannot be rescheduled")

	// ErrUnknownStatus is returned by ParseStatus.
	ErrUnknownStatus = errors.New("appointments: unknown status")
)
