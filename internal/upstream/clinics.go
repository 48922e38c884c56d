package upstream

import (
	"context"
	"net/http"
)

// Membership is one clinic the signed-in doctor belongs to, as the backend reports it.
type Membership struct {
	ClinicID   int64  `json:"clinic_id"`
	ClinicName string `json:"clinic_name"`
	Role       string `json:"role"`
	Timezone   string `json:"timezone,omitempty"`
}

// Memberships lists the caller's clinics and roles.
func (c *Client) Memberships(ctx context.Context) ([]Membership, error) {
	var out []Membership
	err := c.do(ctx, call{op: "list_my_clinics", method: http.MethodGet, path: "/doctor/my-clinics-details"}, &out)
	return out, err
}
