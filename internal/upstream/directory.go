package upstream

import (
	"context"
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/directory"
)

// Directory implements directory.Backend.
type Directory struct{ c *Client }

// Directory returns the clinic-user endpoints.
func (c *Client) Directory() *Directory { return &Directory{c: c} }

// Doctors lists a clinic's doctors.
func (d *Directory) Doctors(ctx context.Context, clinicID int64) ([]directory.Doctor, error) {
	var out []directory.Doctor
	err := d.c.do(ctx, call{op: "list_doctors", method: http.MethodGet, path: "/clinic-user/clinic-doctor",
		query: map[string]string{"clinic_id": itoa(clinicID)}}, &out)
	return out, err
}

// Patients lists a clinic's patients.
func (d *Directory) Patients(ctx context.Context, clinicID int64) ([]directory.Patient, error) {
	var out []directory.Patient
	err := d.c.do(ctx, call{op: "list_patients", method: http.MethodGet, path: "/clinic-user/clinic-patient",
		query: map[string]string{"clinic_id": itoa(clinicID)}}, &out)
	return out, err
}

// Staff lists a clinic's staff members.
func (d *Directory) Staff(ctx context.Context, clinicID int64) ([]directory.StaffMember, error) {
	var out []directory.StaffMember
	err := d.c.do(ctx, call{op: "list_staff", method: http.MethodGet, path: "/clinic-user/staff",
		query: map[string]string{"clinic_id": itoa(clinicID)}}, &out)
	return out, err
}

// MyPatients lists the signed-in doctor's patients across clinics.
func (d *Directory) MyPatients(ctx context.Context) ([]directory.Patient, error) {
	var out []directory.Patient
	err := d.c.do(ctx, call{op: "list_my_patients", method: http.MethodGet, path: "/doctor/my-patients-details"}, &out)
	return out, err
}
