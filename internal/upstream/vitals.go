package upstream

import (
	"context"
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/vitals"
)

// Vitals implements vitals.Backend.
type Vitals struct{ c *Client }

// Vitals returns the vitals and clinic-vitals endpoints.
func (c *Client) Vitals() *Vitals { return &Vitals{c: c} }

type assignmentsPayload struct {
	ClinicID    int64               `json:"clinic_id"`
	DoctorID    int64               `json:"doctor_id"`
	Assignments []vitals.Assignment `json:"assignments"`
}

// Library lists the clinic's vital configs.
func (v *Vitals) Library(ctx context.Context, clinicID int64) ([]vitals.Config, error) {
	var out []vitals.Config
	err := v.c.do(ctx, call{op: "list_vital_configs", method: http.MethodGet, path: "/clinic-vitals/configs",
		query: map[string]string{"clinic_id": itoa(clinicID)}}, &out)
	return out, err
}

// Templates lists the clinic's vital templates.
func (v *Vitals) Templates(ctx context.Context, clinicID int64) ([]vitals.Template, error) {
	var out []vitals.Template
	err := v.c.do(ctx, call{op: "list_vital_templates", method: http.MethodGet, path: "/clinic-vitals/templates",
		query: map[string]string{"clinic_id": itoa(clinicID)}}, &out)
	return out, err
}

// DoctorAssignments returns the vitals assigned to a doctor.
func (v *Vitals) DoctorAssignments(ctx context.Context, clinicID, doctorID int64) ([]vitals.Assignment, error) {
	var out []vitals.Assignment
	err := v.c.do(ctx, call{op: "list_vital_assignments", method: http.MethodGet, path: "/clinic-vitals/doctor-assignments",
		query: map[string]string{"clinic_id": itoa(clinicID), "doctor_id": itoa(doctorID)}}, &out)
	return out, err
}

// SaveAssignments replaces a doctor's assigned vitals.
func (v *Vitals) SaveAssignments(ctx context.Context, clinicID, doctorID int64, assigned []vitals.Assignment) error {
	return v.c.do(ctx, call{op: "save_vital_assignments", method: http.MethodPut, path: "/clinic-vitals/doctor-assignments",
		body: assignmentsPayload{ClinicID: clinicID, DoctorID: doctorID, Assignments: assigned}}, nil)
}

// ListEntries returns the vitals recorded for an appointment.
func (v *Vitals) ListEntries(ctx context.Context, clinicID, appointmentID int64) ([]vitals.Entry, error) {
	var out []vitals.Entry
	err := v.c.do(ctx, call{op: "list_vital_entries", method: http.MethodGet, path: "/vitals/entries",
		query: map[string]string{"clinic_id": itoa(clinicID), "appointment_id": itoa(appointmentID)}}, &out)
	return out, err
}

// RecordEntry submits a vitals entry.
func (v *Vitals) RecordEntry(ctx context.Context, e vitals.Entry) (*vitals.Entry, error) {
	var out vitals.Entry
	if err := v.c.do(ctx, call{op: "record_vital_entry", method: http.MethodPost, path: "/vitals/entries", body: e}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
