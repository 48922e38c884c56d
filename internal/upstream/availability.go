package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfman30/clinicdesk/internal/availability"
)

// Availability implements availability.Backend.
type Availability struct{ c *Client }

// Availability returns the availability endpoints.
func (c *Client) Availability() *Availability { return &Availability{c: c} }

// Weekly fetches a doctor's recurring weekly availability.
func (a *Availability) Weekly(ctx context.Context, clinicID, doctorID int64) (*availability.Weekly, error) {
	var out availability.Weekly
	if err := a.c.do(ctx, call{op: "get_availability", method: http.MethodGet, path: "/availability/availability",
		query: map[string]string{"clinic_id": itoa(clinicID), "doctor_id": itoa(doctorID)}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveWeekly replaces the weekly availability.
func (a *Availability) SaveWeekly(ctx context.Context, w availability.Weekly) (*availability.Weekly, error) {
	var out availability.Weekly
	if err := a.c.do(ctx, call{op: "save_availability", method: http.MethodPost, path: "/availability/availability", body: w}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListExceptions returns exceptions overlapping [from, to).
func (a *Availability) ListExceptions(ctx context.Context, clinicID, doctorID int64, from, to time.Time) ([]availability.Exception, error) {
	q := dateRange(from, to)
	q["clinic_id"] = itoa(clinicID)
	q["doctor_id"] = itoa(doctorID)
	var out []availability.Exception
	err := a.c.do(ctx, call{op: "list_exceptions", method: http.MethodGet, path: "/availability/exception", query: q}, &out)
	return out, err
}

// CreateException saves one unavailable span.
func (a *Availability) CreateException(ctx context.Context, ex availability.Exception) (*availability.Exception, error) {
	var out availability.Exception
	if err := a.c.do(ctx, call{op: "create_exception", method: http.MethodPost, path: "/availability/exception", body: ex}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteException removes a saved exception.
func (a *Availability) DeleteException(ctx context.Context, clinicID, id int64) error {
	return a.c.do(ctx, call{op: "delete_exception", method: http.MethodDelete,
		path:  fmt.Sprintf("/availability/exception/%d", id),
		query: map[string]string{"clinic_id": itoa(clinicID)}}, nil)
}
