// Package access models clinic roles, the capabilities they grant, and the
// per-user session that carries them.
package access

import (
	"fmt"
	"strings"
)

// Role is the caller's role inside one clinic.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleAdmin        Role = "admin"
	RolePartner      Role = "partner"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RoleVisiting     Role = "visiting"
)

// ParseRole normalizes a backend role string. The backend uses a few aliases
// for the same roles.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "owner", "clinic_owner":
		return RoleOwner, nil
	case "admin", "clinic_admin":
		return RoleAdmin, nil
	case "partner", "partner_doctor":
		return RolePartner, nil
	case "doctor", "staff_doctor":
		return RoleDoctor, nil
	case "receptionist", "staff":
		return RoleReceptionist, nil
	case "visiting", "visiting_doctor", "guest":
		return RoleVisiting, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

// Capability is a single permitted action.
type Capability uint16

const (
	ViewFullSchedule Capability = 1 << iota
	ManageAppointments
	ViewPatients
	ManageStaff
	ManageSettings
	ManageBilling
	ManageVitals
	ManageAvailability
)

var capabilityNames = map[Capability]string{
	ViewFullSchedule:   "view_full_schedule",
	ManageAppointments: "manage_appointments",
	ViewPatients:       "view_patients",
	ManageStaff:        "manage_staff",
	ManageSettings:     "manage_settings",
	ManageBilling:      "manage_billing",
	ManageVitals:       "manage_vitals",
	ManageAvailability: "manage_availability",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("capability(%d)", uint16(c))
}

// CapabilitySet is a bitset of capabilities.
type CapabilitySet uint16

// Has reports whether every capability in c is present.
func (s CapabilitySet) Has(c Capability) bool {
	return CapabilitySet(c)&s == CapabilitySet(c)
}

// List returns the capability names in the set, in declaration order.
func (s CapabilitySet) List() []string {
	var out []string
	for c := ViewFullSchedule; c <= ManageAvailability; c <<= 1 {
		if s.Has(c) {
			out = append(out, c.String())
		}
	}
	return out
}

func setOf(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s |= CapabilitySet(c)
	}
	return s
}

var roleCapabilities = map[Role]CapabilitySet{
	RoleOwner: setOf(ViewFullSchedule, ManageAppointments, ViewPatients, ManageStaff,
		ManageSettings, ManageBilling, ManageVitals, ManageAvailability),
	RoleAdmin: setOf(ViewFullSchedule, ManageAppointments, ViewPatients, ManageStaff,
		ManageSettings, ManageBilling, ManageVitals, ManageAvailability),
	RolePartner: setOf(ViewFullSchedule, ManageAppointments, ViewPatients,
		ManageBilling, ManageVitals, ManageAvailability),
	RoleDoctor:       setOf(ManageAppointments, ViewPatients, ManageBilling, ManageVitals, ManageAvailability),
	RoleReceptionist: setOf(ManageAppointments, ViewPatients),
	RoleVisiting:     setOf(ManageAppointments, ManageAvailability),
}

// Capabilities returns the capability set granted by r.
func (r Role) Capabilities() CapabilitySet {
	return roleCapabilities[r]
}

// Privileged reports whether r sees the clinic's full schedule and registry.
func (r Role) Privileged() bool {
	return r.Capabilities().Has(ViewFullSchedule)
}
