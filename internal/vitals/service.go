package vitals

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Backend is the clinic REST backend's vitals surface.
type Backend interface {
	Saver
	Library(ctx context.Context, clinicID int64) ([]Config, error)
	Templates(ctx context.Context, clinicID int64) ([]Template, error)
	DoctorAssignments(ctx context.Context, clinicID, doctorID int64) ([]Assignment, error)
	ListEntries(ctx context.Context, clinicID, appointmentID int64) ([]Entry, error)
	RecordEntry(ctx context.Context, e Entry) (*Entry, error)
}

// Service runs the assignment editor and records readings.
type Service struct {
	backend Backend
	drafts  *DraftStore
	logger  *logging.Logger
}

// NewService creates a vitals service.
func NewService(backend Backend, drafts *DraftStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, drafts: drafts, logger: logger}
}

func authorizeDoctor(sess *access.Session, clinicID, doctorID int64) error {
	c, err := sess.Require(clinicID, access.ManageVitals)
	if err != nil {
		return err
	}
	if !c.Privileged() && doctorID != sess.DoctorID {
		return apierror.Forbidden("you can only edit your own vitals form")
	}
	return nil
}

// Open returns the editor state for a doctor, starting a fresh draft from
// the backend when none exists or reset is set.
func (s *Service) Open(ctx context.Context, sess *access.Session, clinicID, doctorID int64, reset bool) (State, error) {
	if err := authorizeDoctor(sess, clinicID, doctorID); err != nil {
		return State{}, err
	}
	if !reset {
		st, ok, err := s.drafts.Load(ctx, sess.ID, clinicID, doctorID)
		if err != nil {
			return State{}, err
		}
		if ok {
			return st, nil
		}
	}

	var (
		configs   []Config
		templates []Template
		assigned  []Assignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		configs, err = s.backend.Library(gctx, clinicID)
		return err
	})
	g.Go(func() (err error) {
		templates, err = s.backend.Templates(gctx, clinicID)
		return err
	})
	g.Go(func() (err error) {
		assigned, err = s.backend.DoctorAssignments(gctx, clinicID, doctorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return State{}, fmt.Errorf("vitals: open editor: %w", err)
	}

	st := NewEditor(configs, assigned, templates).State()
	if err := s.drafts.Save(ctx, sess.ID, clinicID, doctorID, st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *Service) apply(ctx context.Context, sess *access.Session, clinicID, doctorID int64, fn func(*Editor) error) (State, error) {
	st, err := s.Open(ctx, sess, clinicID, doctorID, false)
	if err != nil {
		return State{}, err
	}
	ed := FromState(st)
	if err := fn(ed); err != nil {
		return State{}, err
	}
	next := ed.State()
	if err := s.drafts.Save(ctx, sess.ID, clinicID, doctorID, next); err != nil {
		return State{}, err
	}
	return next, nil
}

// Drop applies a drag of (kind, id) onto zone to the draft.
func (s *Service) Drop(ctx context.Context, sess *access.Session, clinicID, doctorID int64, zone Zone, kind Kind, id int64) (State, error) {
	return s.apply(ctx, sess, clinicID, doctorID, func(ed *Editor) error {
		return ed.Drop(zone, kind, id)
	})
}

// SetRequired toggles the required flag on the draft.
func (s *Service) SetRequired(ctx context.Context, sess *access.Session, clinicID, doctorID, configID int64, required bool) (State, error) {
	return s.apply(ctx, sess, clinicID, doctorID, func(ed *Editor) error {
		return ed.SetRequired(configID, required)
	})
}

// Save persists the draft's assigned list. A failed save keeps the draft as is.
func (s *Service) Save(ctx context.Context, sess *access.Session, clinicID, doctorID int64) (State, error) {
	st, err := s.Open(ctx, sess, clinicID, doctorID, false)
	if err != nil {
		return State{}, err
	}
	ed := FromState(st)
	if err := ed.Save(ctx, s.backend, clinicID, doctorID); err != nil {
		return State{}, err
	}
	saved := ed.State()
	if err := s.drafts.Save(ctx, sess.ID, clinicID, doctorID, saved); err != nil {
		s.logger.Warn("vitals saved but draft not refreshed", "clinic_id", clinicID, "doctor_id", doctorID, "error", err)
	}
	s.logger.Info("vitals assignments saved", "clinic_id", clinicID, "doctor_id", doctorID, "count", len(saved.Assigned))
	return saved, nil
}

// Discard drops the draft so the next Open reloads from the backend.
func (s *Service) Discard(ctx context.Context, sess *access.Session, clinicID, doctorID int64) error {
	if err := authorizeDoctor(sess, clinicID, doctorID); err != nil {
		return err
	}
	return s.drafts.Discard(ctx, sess.ID, clinicID, doctorID)
}

// Entries returns an appointment's readings and the latest submission.
func (s *Service) Entries(ctx context.Context, sess *access.Session, clinicID, appointmentID int64) ([]Entry, *Entry, error) {
	c, ok := sess.Clinic(clinicID)
	if !ok {
		return nil, nil, access.ErrNotMember
	}
	if !c.Can(access.ViewPatients) && !c.Can(access.ManageVitals) {
		return nil, nil, apierror.Forbidden("your role cannot view patient vitals")
	}
	entries, err := s.backend.ListEntries(ctx, clinicID, appointmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("vitals: list entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	if latest, ok := Latest(entries); ok {
		return entries, &latest, nil
	}
	return entries, nil, nil
}

// Record validates an entry against the doctor's required vitals and submits it.
func (s *Service) Record(ctx context.Context, sess *access.Session, e Entry) (*Entry, error) {
	if _, err := sess.Require(e.ClinicID, access.ManageVitals); err != nil {
		return nil, err
	}
	if e.DoctorID <= 0 {
		return nil, apierror.Invalid("vitals must name the treating doctor")
	}
	assigned, err := s.backend.DoctorAssignments(ctx, e.ClinicID, e.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("vitals: load assignments: %w", err)
	}
	if err := e.Validate(assigned); err != nil {
		return nil, err
	}
	recorded, err := s.backend.RecordEntry(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("vitals: record: %w", err)
	}
	return recorded, nil
}
