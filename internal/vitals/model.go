// Package vitals covers per-doctor vital assignments, the editor that
// rearranges them, and the readings recorded during appointments.
package vitals

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

// Config is a vital the clinic tracks, such as "Pulse" in "bpm".
type Config struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

// Template is a named, read-only bundle of configs.
type Template struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ConfigIDs []int64 `json:"config_ids"`
}

// Assignment ties a config to a doctor's intake form.
type Assignment struct {
	ConfigID  int64  `json:"config_id"`
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	Required  bool   `json:"required"`
	SortOrder int    `json:"sort_order"`
}

// Reading is one measured value.
type Reading struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Entry is one submitted set of readings. Entries are never edited; a
// correction is a newer entry.
type Entry struct {
	ID            int64     `json:"id,omitempty"`
	AppointmentID int64     `json:"appointment_id"`
	PatientID     int64     `json:"patient_id"`
	ClinicID      int64     `json:"clinic_id"`
	DoctorID      int64     `json:"doctor_id"`
	Readings      []Reading `json:"readings"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// Validate reports the first required vital that has no value.
func (e *Entry) Validate(assigned []Assignment) error {
	if e.AppointmentID <= 0 || e.PatientID <= 0 {
		return apierror.Invalid("vitals must belong to an appointment and patient")
	}
	have := make(map[string]bool, len(e.Readings))
	for _, r := range e.Readings {
		if strings.TrimSpace(r.Value) != "" {
			have[strings.ToLower(strings.TrimSpace(r.Name))] = true
		}
	}

	ordered := append([]Assignment(nil), assigned...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })
	for _, a := range ordered {
		if a.Required && !have[strings.ToLower(strings.TrimSpace(a.Name))] {
			return apierror.Invalid(fmt.Sprintf("%s is required", a.Name))
		}
	}
	if len(have) == 0 {
		return apierror.Invalid("enter at least one vital")
	}
	return nil
}

// Latest returns the most recently recorded entry. Ties keep the later element.
func Latest(entries []Entry) (Entry, bool) {
	if len(entries) == 0 {
		return Entry{}, false
	}
	best := 0
	for i := 1; i < len(entries); i++ {
		if !entries[i].RecordedAt.Before(entries[best].RecordedAt) {
			best = i
		}
	}
	return entries[best], true
}
