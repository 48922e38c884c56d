package appointments

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/notify"
	"github.com/wolfman30/clinicdesk/internal/slots"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

var tracer = otel.Tracer("clinicdesk.internal.appointments")

// Backend is the clinic REST backend's appointment surface.
type Backend interface {
	ListMine(ctx context.Context, from, to time.Time) ([]Appointment, error)
	ListClinic(ctx context.Context, clinicID int64, from, to time.Time) ([]Appointment, error)
	Get(ctx context.Context, id int64) (*Appointment, error)
	Create(ctx context.Context, req BookRequest) (*Appointment, error)
	Update(ctx context.Context, id int64, patch Patch) (*Appointment, error)
	Slots(ctx context.Context, q SlotQuery) ([]Slot, error)
}

// LinkRecorder persists reschedule links.
type LinkRecorder interface {
	Record(ctx context.Context, l *Link) error
	ListByAppointment(ctx context.Context, appointmentID int64) ([]Link, error)
}

// Notifier emails patients about changes.
type Notifier interface {
	NotifyBooked(ctx context.Context, v notify.Visit) error
	NotifyRescheduled(ctx context.Context, v notify.Visit, formerStart time.Time) error
}

// DegradedObserver counts data sources dropped from a merged result.
type DegradedObserver interface {
	ObserveDegraded(source string)
}

// Service runs appointment operations for a session.
type Service struct {
	backend     Backend
	links       LinkRecorder
	notifier    Notifier
	degraded    DegradedObserver
	guard       *slots.Guard
	maxParallel int
	logger      *logging.Logger
}

// NewService creates an appointment service. links, notifier and degraded may be nil.
func NewService(backend Backend, links LinkRecorder, notifier Notifier, degraded DegradedObserver, maxParallel int, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Service{
		backend:     backend,
		links:       links,
		notifier:    notifier,
		degraded:    degraded,
		guard:       slots.NewGuard(),
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// ListForSession fetches the caller's own appointments and the full schedule
// of each privileged clinic concurrently, then reconciles them. A failed
// clinic fetch is dropped from the result; a failed personal fetch fails the call.
func (s *Service) ListForSession(ctx context.Context, sess *access.Session, from, to time.Time) ([]Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointments.list_for_session")
	defer span.End()

	if !from.Before(to) {
		return nil, apierror.Invalid("the range must start before it ends")
	}

	var (
		mu   sync.Mutex
		self []Appointment
		full = make(map[int64][]Appointment)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	g.Go(func() error {
		list, err := s.backend.ListMine(gctx, from, to)
		if err != nil {
			return fmt.Errorf("appointments: list own: %w", err)
		}
		mu.Lock()
		self = list
		mu.Unlock()
		return nil
	})

	privileged := sess.PrivilegedClinics()
	span.SetAttributes(attribute.Int("clinics.privileged", len(privileged)))
	for _, c := range privileged {
		g.Go(func() error {
			list, err := s.backend.ListClinic(gctx, c.ClinicID, from, to)
			if err != nil {
				if gctx.Err() == nil {
					s.logger.Warn("clinic schedule unavailable, showing partial calendar", "clinic_id", c.ClinicID, "error", err)
					if s.degraded != nil {
						s.degraded.ObserveDegraded("clinic_schedule")
					}
				}
				return nil
			}
			mu.Lock()
			full[c.ClinicID] = list
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return Reconcile(self, sess.Clinics, full), nil
}

// Book creates an appointment after local validation.
func (s *Service) Book(ctx context.Context, sess *access.Session, req BookRequest) (*Appointment, error) {
	c, err := sess.Require(req.ClinicID, access.ManageAppointments)
	if err != nil {
		return nil, err
	}
	if err := checkBooking(sess, c, req); err != nil {
		return nil, err
	}

	created, err := s.backend.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("appointments: book: %w", err)
	}
	s.logger.Info("appointment booked", "appointment_id", created.ID, "clinic_id", created.ClinicID, "user_id", sess.UserID)

	if s.notifier != nil {
		if err := s.notifier.NotifyBooked(ctx, visitFor(created, c)); err != nil {
			s.logger.Warn("booking notice failed", "appointment_id", created.ID, "error", err)
		}
	}
	return created, nil
}

func checkBooking(sess *access.Session, c access.ClinicContext, req BookRequest) error {
	draft := Appointment{StartTime: req.StartTime, EndTime: req.EndTime}
	if err := draft.Validate(); err != nil {
		return err
	}
	if req.DoctorID <= 0 {
		return apierror.Invalid("please select a doctor")
	}
	if req.PatientID <= 0 {
		return apierror.Invalid("please select a patient")
	}
	// Doctors without clinic-wide rights only book into their own schedule.
	if !c.Privileged() && c.Role != access.RoleReceptionist && req.DoctorID != sess.DoctorID {
		return apierror.Forbidden("you can only book appointments in your own schedule")
	}
	return nil
}

// load fetches an appointment and checks the caller may manage it.
func (s *Service) load(ctx context.Context, sess *access.Session, id int64) (*Appointment, access.ClinicContext, error) {
	appt, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, access.ClinicContext{}, fmt.Errorf("appointments: get %d: %w", id, err)
	}
	c, err := sess.Require(appt.ClinicID, access.ManageAppointments)
	if err != nil {
		return nil, access.ClinicContext{}, err
	}
	if !c.Privileged() && c.Role != access.RoleReceptionist && appt.DoctorID != sess.DoctorID {
		return nil, access.ClinicContext{}, apierror.Forbidden("this appointment belongs to another doctor")
	}
	return appt, c, nil
}

// UpdateStatus moves an appointment along its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, sess *access.Session, id int64, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, apierror.Invalid("unknown appointment status")
	}
	appt, _, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == to {
		return appt, nil
	}
	if !CanTransition(appt.Status, to) {
		return nil, ErrIllegalTransition
	}

	updated, err := s.backend.Update(ctx, id, Patch{Status: &to})
	if err != nil {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	s.logger.Info("appointment status changed", "appointment_id", id, "from", appt.Status.String(), "to", to.String(), "user_id", sess.UserID)
	return updated, nil
}

// UpdateNotes replaces an appointment's notes.
func (s *Service) UpdateNotes(ctx context.Context, sess *access.Session, id int64, notes string) (*Appointment, error) {
	if _, _, err := s.load(ctx, sess, id); err != nil {
		return nil, err
	}
	updated, err := s.backend.Update(ctx, id, Patch{Notes: &notes})
	if err != nil {
		return nil, fmt.Errorf("appointments: update notes: %w", err)
	}
	return updated, nil
}

// RescheduleRequest moves an appointment to a new slot.
type RescheduleRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	DoctorID  int64     `json:"doctor_id,omitempty"` // keeps the current doctor when zero
	Notes     *string   `json:"notes,omitempty"`     // keeps the current notes when nil
}

// RescheduleResult holds both sides of a reschedule.
type RescheduleResult struct {
	Original    *Appointment `json:"original"`
	Replacement *Appointment `json:"replacement"`
	Link        *Link        `json:"link,omitempty"`
}

// Reschedule books the replacement first, then cancels the original, so a
// failure never leaves the patient without an appointment. The replacement's
// notes carry a marker naming the former start time.
func (s *Service) Reschedule(ctx context.Context, sess *access.Session, id int64, req RescheduleRequest) (*RescheduleResult, error) {
	ctx, span := tracer.Start(ctx, "appointments.reschedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", id))

	original, c, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if original.Status.Terminal() {
		return nil, ErrAlreadyClosed
	}

	notes := original.Notes
	if req.Notes != nil {
		notes = *req.Notes
	}
	if prev, ok := ParseRescheduleMarker(notes); ok {
		// Drop an older marker so the replacement names only the slot it left.
		notes = stripMarker(notes, prev)
	}
	book := BookRequest{
		ClinicID:  original.ClinicID,
		DoctorID:  original.DoctorID,
		PatientID: original.PatientID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Notes:     RescheduleNote(original.StartTime, notes),
	}
	if req.DoctorID > 0 {
		book.DoctorID = req.DoctorID
	}
	if err := checkBooking(sess, c, book); err != nil {
		return nil, err
	}

	replacement, err := s.backend.Create(ctx, book)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: reschedule: book replacement: %w", err)
	}

	cancelled := StatusCancelled
	closed, err := s.backend.Update(ctx, original.ID, Patch{Status: &cancelled})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("replacement booked but original not cancelled", "original_id", original.ID, "replacement_id", replacement.ID, "error", err)
		return nil, &apierror.Error{
			Status:  http.StatusBadGateway,
			Message: fmt.Sprintf("the new appointment was booked (#%d) but the original could not be cancelled, please cancel it manually", replacement.ID),
			Op:      "appointments: reschedule: cancel original",
		}
	}

	result := &RescheduleResult{Original: closed, Replacement: replacement}
	if s.links != nil {
		link := &Link{
			ClinicID:      original.ClinicID,
			OriginalID:    original.ID,
			ReplacementID: replacement.ID,
			FormerStart:   original.StartTime,
			NewStart:      replacement.StartTime,
			RescheduledBy: sess.UserID,
		}
		if err := s.links.Record(ctx, link); err != nil {
			s.logger.Warn("reschedule link not recorded", "original_id", original.ID, "replacement_id", replacement.ID, "error", err)
		} else {
			result.Link = link
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyRescheduled(ctx, visitFor(replacement, c), original.StartTime); err != nil {
			s.logger.Warn("reschedule notice failed", "appointment_id", replacement.ID, "error", err)
		}
	}

	s.logger.Info("appointment rescheduled", "original_id", original.ID, "replacement_id", replacement.ID, "user_id", sess.UserID)
	return result, nil
}

func stripMarker(notes string, former time.Time) string {
	marker := RescheduleNote(former, "")
	if len(notes) >= len(marker) && notes[:len(marker)] == marker {
		notes = notes[len(marker):]
	}
	if len(notes) > 0 && notes[0] == ' ' {
		notes = notes[1:]
	}
	return notes
}

// History returns the reschedule links touching an appointment.
func (s *Service) History(ctx context.Context, sess *access.Session, id int64) ([]Link, error) {
	if _, _, err := s.load(ctx, sess, id); err != nil {
		return nil, err
	}
	if s.links == nil {
		return []Link{}, nil
	}
	links, err := s.links.ListByAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []Link{}
	}
	return links, nil
}

// ListSlots returns bookable slots. A newer lookup by the same session for
// the same doctor cancels this one, and its result is discarded.
func (s *Service) ListSlots(ctx context.Context, sess *access.Session, q SlotQuery) ([]Slot, error) {
	if _, err := sess.Require(q.ClinicID, access.ManageAppointments); err != nil {
		return nil, err
	}
	if q.DoctorID <= 0 {
		return nil, apierror.Invalid("please select a doctor")
	}
	if q.Date.IsZero() {
		return nil, apierror.Invalid("please select a date")
	}

	key := fmt.Sprintf("%s:%d:%d", sess.ID, q.ClinicID, q.DoctorID)
	return slots.Latest(ctx, s.guard, key, func(ctx context.Context) ([]Slot, error) {
		list, err := s.backend.Slots(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("appointments: list slots: %w", err)
		}
		return list, nil
	})
}

func visitFor(a *Appointment, c access.ClinicContext) notify.Visit {
	v := notify.Visit{
		ClinicName: c.ClinicName,
		Start:      a.StartTime,
		End:        a.EndTime,
	}
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			v.Location = loc
		}
	}
	if a.Patient != nil {
		v.PatientEmail = a.Patient.Email
		v.PatientName = a.Patient.Name
	}
	if a.Doctor != nil {
		v.DoctorName = a.Doctor.Name
	}
	if a.Clinic != nil && a.Clinic.Name != "" {
		v.ClinicName = a.Clinic.Name
	}
	return v
}
