// Package appointments holds the appointment record, its lifecycle rules and
// the merge of personal and clinic-wide schedules.
package appointments

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the appointment lifecycle state. The backend encodes it as an integer.
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusCancelled
	StatusCompleted
)

var statusNames = [...]string{"pending", "confirmed", "cancelled", "completed"}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCompleted
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ParseStatus accepts a status name or its integer code.
func ParseStatus(raw string) (Status, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for i, name := range statusNames {
		if raw == name {
			return Status(i), nil
		}
	}
	if n, err := strconv.Atoi(raw); err == nil && Status(n).Valid() {
		return Status(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// CanTransition reports whether an appointment may move from one state to another.
// pending → confirmed, and pending/confirmed → completed or cancelled.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCompleted || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// PersonRef is the nested doctor or patient object the backend sometimes populates.
type PersonRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ClinicRef is the nested clinic object.
type ClinicRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

// Appointment is one scheduled clinical encounter.
type Appointment struct {
	ID        int64      `json:"id"`
	ClinicID  int64      `json:"clinic_id"`
	DoctorID  int64      `json:"doctor_id"`
	PatientID int64      `json:"patient_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    Status     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	InvoiceID *int64     `json:"invoice_id,omitempty"`
	Doctor    *PersonRef `json:"doctor,omitempty"`
	Patient   *PersonRef `json:"patient,omitempty"`
	Clinic    *ClinicRef `json:"clinic,omitempty"`
}

// Validate checks the time-range invariant.
func (a *Appointment) Validate() error {
	if a.StartTime.IsZero() || a.EndTime.IsZero() {
		return ErrNoSlotSelected
	}
	if !a.StartTime.Before(a.EndTime) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Duration returns the booked length.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// richness counts populated nested objects; reconciliation keeps the richer copy.
func (a *Appointment) richness() int {
	n := 0
	if a.Doctor != nil {
		n++
	}
	if a.Patient != nil {
		n++
	}
	if a.Clinic != nil {
		n++
	}
	return n
}

const (
	rescheduleMarkerPrefix = "[rescheduled from "
	rescheduleMarkerSuffix = "]"
)

// RescheduleNote prefixes notes with a marker naming the former start time.
func RescheduleNote(formerStart time.Time, notes string) string {
	marker := rescheduleMarkerPrefix + formerStart.UTC().Format(time.RFC3339) + rescheduleMarkerSuffix
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return marker
	}
	return marker + " " + notes
}

// ParseRescheduleMarker returns the former start time embedded in notes.
func ParseRescheduleMarker(notes string) (time.Time, bool) {
	i := strings.Index(notes, rescheduleMarkerPrefix)
	if i < 0 {
		return time.Time{}, false
	}
	rest := notes[i+len(rescheduleMarkerPrefix):]
	j := strings.Index(rest, rescheduleMarkerSuffix)
	if j < 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, rest[:j])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Slot is a bookable window returned by the backend.
type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SlotQuery selects available slots for one doctor on one day.
type SlotQuery struct {
	ClinicID int64
	DoctorID int64
	Date     time.Time
}

// BookRequest is the input for a new appointment.
type BookRequest struct {
	ClinicID  int64     `json:"clinic_id"`
	DoctorID  int64     `json:"doctor_id"`
	PatientID int64     `json:"patient_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes,omitempty"`
}

// Patch is a partial update sent to the backend. Nil fields are left unchanged.
type Patch struct {
	Status *Status `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}
