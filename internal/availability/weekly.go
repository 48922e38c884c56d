package availability

import (
	"fmt"
	"time"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

// Window is one recurring working window. Weekday follows time.Weekday.
type Window struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"` // "09:00"
	End     string `json:"end"`   // "17:00"
}

// Weekly is a doctor's recurring availability in one clinic.
type Weekly struct {
	ClinicID int64    `json:"clinic_id"`
	DoctorID int64    `json:"doctor_id"`
	Windows  []Window `json:"windows"`
}

// Validate checks each window is a non-empty range on a real weekday.
func (w *Weekly) Validate() error {
	for _, win := range w.Windows {
		if win.Weekday < 0 || win.Weekday > 6 {
			return apierror.Invalid(fmt.Sprintf("weekday %d is out of range", win.Weekday))
		}
		start, err := time.Parse("15:04", win.Start)
		if err != nil {
			return apierror.Invalid(fmt.Sprintf("invalid start time %q", win.Start))
		}
		end, err := time.Parse("15:04", win.End)
		if err != nil {
			return apierror.Invalid(fmt.Sprintf("invalid end time %q", win.End))
		}
		if !start.Before(end) {
			return apierror.Invalid(fmt.Sprintf("%s window must start before it ends", time.Weekday(win.Weekday)))
		}
	}
	return nil
}
