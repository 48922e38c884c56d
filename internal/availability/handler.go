package availability

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/calendar"
	"github.com/wolfman30/clinicdesk/internal/clinic"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// SettingsSource resolves the clinic timezone the grid is drawn in.
type SettingsSource interface {
	Get(ctx context.Context, clinicID int64) (*clinic.Settings, error)
}

// Handler exposes availability over HTTP.
type Handler struct {
	svc      *Service
	settings SettingsSource
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates an availability HTTP handler.
func NewHandler(svc *Service, settings SettingsSource, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, settings: settings, logger: logger, now: time.Now}
}

// Register adds availability routes to a router scoped to /api/clinics/{clinicID}.
func (h *Handler) Register(r chi.Router) {
	r.Get("/doctors/{doctorID}/availability", h.GetWeekly)
	r.Post("/doctors/{doctorID}/availability", h.SaveWeekly)
	r.Get("/doctors/{doctorID}/exceptions", h.GetWeek)
	r.Put("/doctors/{doctorID}/exceptions", h.SaveWeek)
	r.Post("/doctors/{doctorID}/exceptions/strokes", h.Stroke)
}

type target struct {
	sess     *access.Session
	clinicID int64
	doctorID int64
}

func (h *Handler) target(r *http.Request) (target, error) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		return target{}, err
	}
	clinicID, err := respond.IDParam(r, "clinicID")
	if err != nil {
		return target{}, err
	}
	doctorID, err := respond.IDParam(r, "doctorID")
	if err != nil {
		return target{}, err
	}
	return target{sess: sess, clinicID: clinicID, doctorID: doctorID}, nil
}

// week resolves the clinic timezone and the Monday of ?week_start.
func (h *Handler) week(r *http.Request, clinicID int64) (time.Time, *time.Location, error) {
	settings, err := h.settings.Get(r.Context(), clinicID)
	if err != nil {
		return time.Time{}, nil, err
	}
	loc := settings.Location()
	day := h.now().In(loc)
	if raw := r.URL.Query().Get("week_start"); raw != "" {
		day, err = time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return time.Time{}, nil, apierror.Invalid("week_start must be YYYY-MM-DD")
		}
	}
	return calendar.WeekStart(day, loc), loc, nil
}

// GetWeekly returns recurring availability.
// GET /api/clinics/{clinicID}/doctors/{doctorID}/availability
func (h *Handler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	weekly, err := h.svc.Weekly(r.Context(), t.sess, t.clinicID, t.doctorID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, weekly)
}

// SaveWeekly replaces recurring availability.
// POST /api/clinics/{clinicID}/doctors/{doctorID}/availability
func (h *Handler) SaveWeekly(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var weekly Weekly
	if err := respond.Decode(r, &weekly); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	weekly.ClinicID, weekly.DoctorID = t.clinicID, t.doctorID
	saved, err := h.svc.SaveWeekly(r.Context(), t.sess, weekly)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, saved)
}

// GetWeek returns a week's exceptions and grid.
// GET /api/clinics/{clinicID}/doctors/{doctorID}/exceptions?week_start=YYYY-MM-DD
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	weekStart, loc, err := h.week(r, t.clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	view, err := h.svc.Week(r.Context(), t.sess, t.clinicID, t.doctorID, weekStart, loc)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// SaveWeek diffs the grid against persisted exceptions.
// PUT /api/clinics/{clinicID}/doctors/{doctorID}/exceptions?week_start=YYYY-MM-DD
func (h *Handler) SaveWeek(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	weekStart, loc, err := h.week(r, t.clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req struct {
		Grid Grid `json:"grid"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	changes, err := h.svc.Save(r.Context(), t.sess, t.clinicID, t.doctorID, weekStart, loc, &req.Grid)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, changes)
}

// Stroke replays a paint stroke and optionally persists it.
// POST /api/clinics/{clinicID}/doctors/{doctorID}/exceptions/strokes?week_start=YYYY-MM-DD
func (h *Handler) Stroke(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	weekStart, loc, err := h.week(r, t.clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req StrokeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	resp, err := h.svc.Stroke(r.Context(), t.sess, t.clinicID, t.doctorID, weekStart, loc, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}
