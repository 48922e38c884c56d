package appointments

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// maxListRange bounds one schedule listing.
const maxListRange = 93 * 24 * time.Hour

// Handler exposes appointment operations over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates an appointments HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// Routes returns a chi router mounted under /api/appointments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Book)
	r.Get("/slots", h.Slots)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/notes", h.UpdateNotes)
	r.Post("/{id}/reschedule", h.Reschedule)
	r.Get("/{id}/history", h.History)
	return r
}

// parseInstant accepts RFC 3339 timestamps or plain dates (UTC midnight).
func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// List returns the reconciled schedule.
// GET /api/appointments?from=...&to=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	now := h.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = parseInstant(raw); err != nil {
			respond.Error(w, h.logger, apierror.Invalid("from must be a date or RFC 3339 time"))
			return
		}
	}
	to := from.AddDate(0, 0, 7)
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = parseInstant(raw); err != nil {
			respond.Error(w, h.logger, apierror.Invalid("to must be a date or RFC 3339 time"))
			return
		}
	}
	if to.Sub(from) > maxListRange {
		respond.Error(w, h.logger, apierror.Invalid("the range may span at most 93 days"))
		return
	}

	list, err := h.svc.ListForSession(r.Context(), sess, from, to)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if list == nil {
		list = []Appointment{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// Book creates an appointment.
// POST /api/appointments
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req BookRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	created, err := h.svc.Book(r.Context(), sess, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// Slots lists bookable slots for a doctor on a date.
// GET /api/appointments/slots?clinic_id=&doctor_id=&date=YYYY-MM-DD
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	clinicID, err := respond.QueryID(r, "clinic_id")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	doctorID, err := respond.QueryID(r, "doctor_id")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var date time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		if date, err = time.Parse(time.DateOnly, raw); err != nil {
			respond.Error(w, h.logger, apierror.Invalid("date must be YYYY-MM-DD"))
			return
		}
	}

	list, err := h.svc.ListSlots(r.Context(), sess, SlotQuery{ClinicID: clinicID, DoctorID: doctorID, Date: date})
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if list == nil {
		list = []Slot{}
	}
	respond.JSON(w, http.StatusOK, list)
}

type statusRequest struct {
	Status json.RawMessage `json:"status"`
}

// UpdateStatus changes the lifecycle state. The status may be a name or its code.
// PATCH /api/appointments/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req statusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	status, err := ParseStatus(strings.Trim(string(req.Status), `"`))
	if err != nil {
		respond.Error(w, h.logger, apierror.Invalid("unknown appointment status"))
		return
	}

	updated, err := h.svc.UpdateStatus(r.Context(), sess, id, status)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// UpdateNotes replaces the notes.
// PATCH /api/appointments/{id}/notes
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	updated, err := h.svc.UpdateNotes(r.Context(), sess, id, req.Notes)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// Reschedule moves an appointment to a new slot.
// POST /api/appointments/{id}/reschedule
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req RescheduleRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	result, err := h.svc.Reschedule(r.Context(), sess, id, req)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

// History lists reschedule links for an appointment.
// GET /api/appointments/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	id, err := respond.IDParam(r, "id")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	links, err := h.svc.History(r.Context(), sess, id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, links)
}
