package billing

import (
	"context"
	"fmt"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// ErrPaid is returned when a paid invoice would be changed.
var ErrPaid = apierror.Conflict("a paid invoice can no longer be changed")

// Backend is the clinic REST backend's invoice surface.
type Backend interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	Update(ctx context.Context, id int64, inv *Invoice) (*Invoice, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	ListMine(ctx context.Context) ([]Invoice, error)
	ListClinic(ctx context.Context, clinicID int64) ([]Invoice, error)
}

// Service enforces invoice rules before calling the backend.
type Service struct {
	backend Backend
	logger  *logging.Logger
}

// NewService creates a billing service.
func NewService(backend Backend, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, logger: logger}
}

func authorize(sess *access.Session, clinicID, doctorID int64) error {
	c, err := sess.Require(clinicID, access.ManageBilling)
	if err != nil {
		return err
	}
	if !c.Privileged() && doctorID != sess.DoctorID {
		return apierror.Forbidden("you can only bill your own appointments")
	}
	return nil
}

// prepare fills defaults, recomputes the total and validates inv.
func (s *Service) prepare(sess *access.Session, inv *Invoice) error {
	if inv.DoctorID == 0 {
		inv.DoctorID = sess.DoctorID
	}
	if err := authorize(sess, inv.ClinicID, inv.DoctorID); err != nil {
		return err
	}
	if err := inv.Validate(); err != nil {
		return err
	}
	inv.TotalCents = ComputeTotal(inv.Items)
	return nil
}

// Create bills an appointment.
func (s *Service) Create(ctx context.Context, sess *access.Session, inv Invoice) (*Invoice, error) {
	inv.ID = 0
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if err := s.prepare(sess, &inv); err != nil {
		return nil, err
	}
	created, err := s.backend.Create(ctx, &inv)
	if err != nil {
		return nil, fmt.Errorf("billing: create: %w", err)
	}
	s.logger.Info("invoice created", "invoice_id", created.ID, "clinic_id", inv.ClinicID,
		"appointment_id", inv.AppointmentID, "total_cents", inv.TotalCents)
	return created, nil
}

// Update replaces an invoice's line items wholesale.
func (s *Service) Update(ctx context.Context, sess *access.Session, id int64, inv Invoice) (*Invoice, error) {
	current, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusPaid {
		return nil, ErrPaid
	}
	inv.ID = id
	inv.ClinicID = current.ClinicID
	// The invoice stays bound to its appointment and that appointment's patient.
	inv.AppointmentID = current.AppointmentID
	inv.PatientID = current.PatientID
	if inv.DoctorID == 0 {
		inv.DoctorID = current.DoctorID
	}
	if inv.Status == "" {
		inv.Status = current.Status
	}
	if err := s.prepare(sess, &inv); err != nil {
		return nil, err
	}
	updated, err := s.backend.Update(ctx, id, &inv)
	if err != nil {
		return nil, fmt.Errorf("billing: update %d: %w", id, err)
	}
	s.logger.Info("invoice updated", "invoice_id", id, "total_cents", inv.TotalCents)
	return updated, nil
}

// Get fetches one invoice the caller may see.
func (s *Service) Get(ctx context.Context, sess *access.Session, id int64) (*Invoice, error) {
	inv, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("billing: get %d: %w", id, err)
	}
	if err := authorize(sess, inv.ClinicID, inv.DoctorID); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns the clinic's invoices when clinicID is set, otherwise the
// caller's own invoices across clinics.
func (s *Service) List(ctx context.Context, sess *access.Session, clinicID int64) ([]Invoice, error) {
	if clinicID == 0 {
		list, err := s.backend.ListMine(ctx)
		if err != nil {
			return nil, fmt.Errorf("billing: list mine: %w", err)
		}
		return list, nil
	}
	c, err := sess.Require(clinicID, access.ManageBilling)
	if err != nil {
		return nil, err
	}
	list, err := s.backend.ListClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("billing: list clinic %d: %w", clinicID, err)
	}
	if c.Privileged() {
		return list, nil
	}
	own := list[:0:0]
	for _, inv := range list {
		if inv.DoctorID == sess.DoctorID {
			own = append(own, inv)
		}
	}
	return own, nil
}

// Export renders the same listing as List into an XLSX workbook.
func (s *Service) Export(ctx context.Context, sess *access.Session, clinicID int64) ([]byte, error) {
	list, err := s.List(ctx, sess, clinicID)
	if err != nil {
		return nil, err
	}
	return ExportXLSX(list)
}
