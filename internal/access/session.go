package access

import (
	"fmt"
	"time"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

// ClinicContext is the caller's membership in one clinic.
type ClinicContext struct {
	ClinicID   int64  `json:"clinic_id"`
	ClinicName string `json:"clinic_name"`
	Role       Role   `json:"role"`
	Timezone   string `json:"timezone,omitempty"`
}

// Privileged reports whether the caller sees the clinic's full schedule.
func (c ClinicContext) Privileged() bool {
	return c.Role.Privileged()
}

// Can reports whether the caller holds capability cap in this clinic.
func (c ClinicContext) Can(cap Capability) bool {
	return c.Role.Capabilities().Has(cap)
}

// Session is the authenticated portal user. It is created at login, stored
// until logout or expiry, and passed explicitly through request contexts.
type Session struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	DoctorID  int64           `json:"doctor_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Email     string          `json:"email,omitempty"`
	Token     string          `json:"-"`
	Clinics   []ClinicContext `json:"clinics"`
	CreatedAt time.Time       `json:"created_at"`
}

// Clinic returns the caller's context for clinicID.
func (s *Session) Clinic(clinicID int64) (ClinicContext, bool) {
	if s == nil {
		return ClinicContext{}, false
	}
	for _, c := range s.Clinics {
		if c.ClinicID == clinicID {
			return c, true
		}
	}
	return ClinicContext{}, false
}

// Require returns the clinic context when the caller holds cap there.
func (s *Session) Require(clinicID int64, cap Capability) (ClinicContext, error) {
	c, ok := s.Clinic(clinicID)
	if !ok {
		return ClinicContext{}, ErrNotMember
	}
	if !c.Can(cap) {
		return ClinicContext{}, apierror.Forbidden(fmt.Sprintf("your role in %s does not allow %s", displayName(c), cap))
	}
	return c, nil
}

// PrivilegedClinics returns the contexts whose full schedule the caller may see.
func (s *Session) PrivilegedClinics() []ClinicContext {
	if s == nil {
		return nil
	}
	var out []ClinicContext
	for _, c := range s.Clinics {
		if c.Privileged() {
			out = append(out, c)
		}
	}
	return out
}

func displayName(c ClinicContext) string {
	if c.ClinicName != "" {
		return c.ClinicName
	}
	return fmt.Sprintf("clinic %d", c.ClinicID)
}

// Identity is what a verified backend token says about the caller.
type Identity struct {
	UserID   int64  `json:"user_id"`
	DoctorID int64  `json:"doctor_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}
