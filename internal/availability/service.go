package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Backend is the clinic REST backend's availability surface.
type Backend interface {
	Weekly(ctx context.Context, clinicID, doctorID int64) (*Weekly, error)
	SaveWeekly(ctx context.Context, w Weekly) (*Weekly, error)
	ListExceptions(ctx context.Context, clinicID, doctorID int64, from, to time.Time) ([]Exception, error)
	CreateException(ctx context.Context, ex Exception) (*Exception, error)
	DeleteException(ctx context.Context, clinicID, id int64) error
}

// Service reads and writes a doctor's availability.
type Service struct {
	backend Backend
	logger  *logging.Logger
}

// NewService creates an availability service.
func NewService(backend Backend, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{backend: backend, logger: logger}
}

func authorizeView(sess *access.Session, clinicID int64) error {
	if _, ok := sess.Clinic(clinicID); !ok {
		return access.ErrNotMember
	}
	return nil
}

func authorizeEdit(sess *access.Session, clinicID, doctorID int64) error {
	c, err := sess.Require(clinicID, access.ManageAvailability)
	if err != nil {
		return err
	}
	if !c.Privileged() && doctorID != sess.DoctorID {
		return apierror.Forbidden("you can only change your own availability")
	}
	return nil
}

// Weekly returns the doctor's recurring availability.
func (s *Service) Weekly(ctx context.Context, sess *access.Session, clinicID, doctorID int64) (*Weekly, error) {
	if err := authorizeView(sess, clinicID); err != nil {
		return nil, err
	}
	w, err := s.backend.Weekly(ctx, clinicID, doctorID)
	if err != nil {
		return nil, fmt.Errorf("availability: weekly: %w", err)
	}
	return w, nil
}

// SaveWeekly replaces the doctor's recurring availability.
func (s *Service) SaveWeekly(ctx context.Context, sess *access.Session, w Weekly) (*Weekly, error) {
	if err := authorizeEdit(sess, w.ClinicID, w.DoctorID); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	saved, err := s.backend.SaveWeekly(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("availability: save weekly: %w", err)
	}
	return saved, nil
}

// WeekView is the exception grid for one week.
type WeekView struct {
	WeekStart  string      `json:"week_start"`
	Exceptions []Exception `json:"exceptions"`
	Grid       *Grid       `json:"grid"`
}

func (s *Service) exceptions(ctx context.Context, clinicID, doctorID int64, weekStart time.Time, loc *time.Location) ([]Exception, error) {
	from := cellStart(weekStart, 0, 0, loc)
	to := cellStart(weekStart, Days, 0, loc)
	list, err := s.backend.ListExceptions(ctx, clinicID, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("availability: list exceptions: %w", err)
	}
	return list, nil
}

// Week returns the persisted exceptions of a week and their grid.
func (s *Service) Week(ctx context.Context, sess *access.Session, clinicID, doctorID int64, weekStart time.Time, loc *time.Location) (*WeekView, error) {
	if err := authorizeView(sess, clinicID); err != nil {
		return nil, err
	}
	list, err := s.exceptions(ctx, clinicID, doctorID, weekStart, loc)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Exception{}
	}
	return &WeekView{
		WeekStart:  weekStart.Format(time.DateOnly),
		Exceptions: list,
		Grid:       FromExceptions(list, weekStart, loc),
	}, nil
}

// StrokeRequest replays one paint stroke over the client's grid.
type StrokeRequest struct {
	Grid Grid   `json:"grid"`
	Path []Cell `json:"path"`
	// Confirm persists the stroke's unavailable runs with Note.
	Confirm bool   `json:"confirm"`
	Note    string `json:"note"`
}

// ChangeSet lists what a write did.
type ChangeSet struct {
	Created []Exception `json:"created"`
	Deleted []Exception `json:"deleted"`
}

// StrokeResponse is the painted grid plus any persisted changes.
type StrokeResponse struct {
	Grid   *Grid        `json:"grid"`
	Stroke StrokeResult `json:"stroke"`
	ChangeSet
}

// Stroke paints the path. When confirmed and the stroke painted cells
// unavailable, each touched day's unavailable runs not already covered by a
// saved exception are created with the note. Nothing is deleted here.
func (s *Service) Stroke(ctx context.Context, sess *access.Session, clinicID, doctorID int64, weekStart time.Time, loc *time.Location, req StrokeRequest) (*StrokeResponse, error) {
	if err := authorizeEdit(sess, clinicID, doctorID); err != nil {
		return nil, err
	}
	grid := req.Grid
	result, err := Apply(&grid, req.Path)
	if err != nil {
		return nil, err
	}
	resp := &StrokeResponse{Grid: &grid, Stroke: result, ChangeSet: ChangeSet{Created: []Exception{}, Deleted: []Exception{}}}
	if !req.Confirm {
		return resp, nil
	}
	if !result.NoteRequired {
		return nil, apierror.Invalid("only unavailable strokes can be confirmed; use save for other changes")
	}

	persisted, err := s.exceptions(ctx, clinicID, doctorID, weekStart, loc)
	if err != nil {
		return nil, err
	}
	// Cells already covered by a saved exception keep that exception and its note.
	covered := FromExceptions(persisted, weekStart, loc)
	fresh := grid
	for d := range fresh {
		for r := range fresh[d] {
			if covered[d][r] == PaintUnavailable {
				fresh[d][r] = PaintNone
			}
		}
	}

	create := OnDays(Runs(&fresh, weekStart, loc), result.Days)
	changes, err := s.apply(ctx, clinicID, doctorID, create, nil, req.Note)
	resp.ChangeSet = changes
	if err != nil {
		return resp, err
	}
	return resp, nil
}

// Save makes the week's persisted exceptions match the grid's unavailable runs.
func (s *Service) Save(ctx context.Context, sess *access.Session, clinicID, doctorID int64, weekStart time.Time, loc *time.Location, grid *Grid) (*ChangeSet, error) {
	if err := authorizeEdit(sess, clinicID, doctorID); err != nil {
		return nil, err
	}
	persisted, err := s.exceptions(ctx, clinicID, doctorID, weekStart, loc)
	if err != nil {
		return nil, err
	}
	create, remove := Diff(Runs(grid, weekStart, loc), persisted)
	changes, err := s.apply(ctx, clinicID, doctorID, create, remove, "")
	if err != nil {
		return &changes, err
	}
	s.logger.Info("availability exceptions saved", "clinic_id", clinicID, "doctor_id", doctorID,
		"created", len(changes.Created), "deleted", len(changes.Deleted))
	return &changes, nil
}

// apply creates before deleting and stops at the first failure.
func (s *Service) apply(ctx context.Context, clinicID, doctorID int64, create []Interval, remove []Exception, note string) (ChangeSet, error) {
	changes := ChangeSet{Created: []Exception{}, Deleted: []Exception{}}
	for _, iv := range create {
		ex, err := s.backend.CreateException(ctx, Exception{
			ClinicID:  clinicID,
			DoctorID:  doctorID,
			StartTime: iv.Start,
			EndTime:   iv.End,
			Note:      note,
		})
		if err != nil {
			return changes, fmt.Errorf("availability: create exception: %w", err)
		}
		changes.Created = append(changes.Created, *ex)
	}
	for _, ex := range remove {
		if err := s.backend.DeleteException(ctx, clinicID, ex.ID); err != nil {
			return changes, fmt.Errorf("availability: delete exception %d: %w", ex.ID, err)
		}
		changes.Deleted = append(changes.Deleted, ex)
	}
	return changes, nil
}
