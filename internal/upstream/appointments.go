package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfman30/clinicdesk/internal/appointments"
)

// Appointments implements appointments.Backend.
type Appointments struct{ c *Client }

// Appointments returns the appointment endpoints.
func (c *Client) Appointments() *Appointments { return &Appointments{c: c} }

// ListMine returns the signed-in doctor's appointments in [from, to) across clinics.
func (a *Appointments) ListMine(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	err := a.c.do(ctx, call{op: "list_my_appointments", method: http.MethodGet,
		path: "/doctor/my-appointments-details", query: dateRange(from, to)}, &out)
	return out, err
}

// ListClinic returns a clinic's full schedule in [from, to).
func (a *Appointments) ListClinic(ctx context.Context, clinicID int64, from, to time.Time) ([]appointments.Appointment, error) {
	q := dateRange(from, to)
	q["clinic_id"] = itoa(clinicID)
	var out []appointments.Appointment
	err := a.c.do(ctx, call{op: "list_clinic_appointments", method: http.MethodGet, path: "/appointments", query: q}, &out)
	return out, err
}

// Get fetches one appointment.
func (a *Appointments) Get(ctx context.Context, id int64) (*appointments.Appointment, error) {
	var out appointments.Appointment
	if err := a.c.do(ctx, call{op: "get_appointment", method: http.MethodGet,
		path: fmt.Sprintf("/appointments/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create books an appointment.
func (a *Appointments) Create(ctx context.Context, req appointments.BookRequest) (*appointments.Appointment, error) {
	var out appointments.Appointment
	if err := a.c.do(ctx, call{op: "create_appointment", method: http.MethodPost, path: "/appointments", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a status or notes patch.
func (a *Appointments) Update(ctx context.Context, id int64, patch appointments.Patch) (*appointments.Appointment, error) {
	var out appointments.Appointment
	if err := a.c.do(ctx, call{op: "update_appointment", method: http.MethodPut,
		path: fmt.Sprintf("/appointments/%d", id), body: patch}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Slots lists bookable slots for a doctor on a day.
func (a *Appointments) Slots(ctx context.Context, q appointments.SlotQuery) ([]appointments.Slot, error) {
	var out []appointments.Slot
	err := a.c.do(ctx, call{op: "list_slots", method: http.MethodGet, path: "/appointments/slots", query: map[string]string{
		"clinic_id": itoa(q.ClinicID),
		"doctor_id": itoa(q.DoctorID),
		"date":      q.Date.Format(time.DateOnly),
	}}, &out)
	return out, err
}
