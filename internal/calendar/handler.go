package calendar

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/appointments"
	"github.com/wolfman30/clinicdesk/internal/clinic"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Lister returns the caller's reconciled schedule for [from, to).
type Lister interface {
	ListForSession(ctx context.Context, sess *access.Session, from, to time.Time) ([]appointments.Appointment, error)
}

// SettingsSource resolves per-clinic timezone and visible hours.
type SettingsSource interface {
	Get(ctx context.Context, clinicID int64) (*clinic.Settings, error)
}

// Defaults apply when no clinic is selected.
type Defaults struct {
	Location *time.Location
	Hours    Hours
}

// Handler serves day and week calendar views.
type Handler struct {
	lister   Lister
	settings SettingsSource
	defaults Defaults
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a calendar handler.
func NewHandler(lister Lister, settings SettingsSource, defaults Defaults, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if defaults.Location == nil {
		defaults.Location = time.UTC
	}
	if !defaults.Hours.Valid() {
		defaults.Hours = Hours{Earliest: 8, Latest: 18}
	}
	return &Handler{lister: lister, settings: settings, defaults: defaults, logger: logger, now: time.Now}
}

// Routes returns a chi router mounted under /api/calendar.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/day", h.GetDay)
	r.Get("/week", h.GetWeek)
	return r
}

type viewRequest struct {
	sess     *access.Session
	clinicID int64
	loc      *time.Location
	hours    Hours
	date     time.Time
	opts     Options
}

func (h *Handler) parse(r *http.Request) (*viewRequest, error) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		return nil, err
	}
	clinicID, err := respond.QueryID(r, "clinic_id")
	if err != nil {
		return nil, err
	}

	req := &viewRequest{sess: sess, clinicID: clinicID, loc: h.defaults.Location, hours: h.defaults.Hours}
	if clinicID != 0 {
		if _, ok := sess.Clinic(clinicID); !ok {
			return nil, access.ErrNotMember
		}
		settings, err := h.settings.Get(r.Context(), clinicID)
		if err != nil {
			return nil, err
		}
		req.loc = settings.Location()
		earliest, latest := settings.VisibleHours()
		req.hours = Hours{Earliest: earliest, Latest: latest}
	}

	if raw := r.URL.Query().Get("include_cancelled"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apierror.Invalid("include_cancelled must be true or false")
		}
		req.opts.IncludeCancelled = include
	}

	req.date = h.now().In(req.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.ParseInLocation(time.DateOnly, raw, req.loc)
		if err != nil {
			return nil, apierror.Invalid("date must be YYYY-MM-DD")
		}
		req.date = d
	}
	return req, nil
}

func (h *Handler) fetch(ctx context.Context, req *viewRequest, from, to time.Time) ([]appointments.Appointment, error) {
	appts, err := h.lister.ListForSession(ctx, req.sess, from, to)
	if err != nil {
		return nil, err
	}
	if req.clinicID == 0 {
		return appts, nil
	}
	filtered := appts[:0:0]
	for _, a := range appts {
		if a.ClinicID == req.clinicID {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// GetDay renders one day.
// GET /api/calendar/day?date=YYYY-MM-DD&clinic_id=N
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	req, err := h.parse(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	from := DayStart(req.date, req.loc)
	appts, err := h.fetch(r.Context(), req, from, from.AddDate(0, 0, 1))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, BuildDay(appts, from, req.loc, req.hours, req.opts))
}

// GetWeek renders the Monday-based week containing date.
// GET /api/calendar/week?date=YYYY-MM-DD&clinic_id=N
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	req, err := h.parse(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	from := WeekStart(req.date, req.loc)
	appts, err := h.fetch(r.Context(), req, from, from.AddDate(0, 0, 7))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"week_start": from.Format(time.DateOnly),
		"days":       BuildWeek(appts, from, req.loc, req.hours, req.opts),
	})
}
