package vitals

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Handler exposes the editor and readings over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a vitals HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register adds vitals routes to a router scoped to /api/clinics/{clinicID}.
func (h *Handler) Register(r chi.Router) {
	r.Route("/doctors/{doctorID}/vitals", func(r chi.Router) {
		r.Get("/", h.Open)
		r.Put("/", h.Save)
		r.Post("/drop", h.Drop)
		r.Patch("/assigned/{configID}", h.SetRequired)
		r.Delete("/assigned/{configID}", h.Remove)
		r.Delete("/draft", h.Discard)
	})
	r.Get("/appointments/{appointmentID}/vitals", h.ListEntries)
	r.Post("/appointments/{appointmentID}/vitals", h.RecordEntry)
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

// Open returns the editor state.
// GET /api/clinics/{clinicID}/doctors/{doctorID}/vitals[?reset=true]
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	st, err := h.svc.Open(r.Context(), t.sess, t.clinicID, t.doctorID, r.URL.Query().Get("reset") == "true")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// DropRequest is a drag-and-drop move.
type DropRequest struct {
	Zone Zone  `json:"zone"`
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

// Drop applies a move.
// POST /api/clinics/{clinicID}/doctors/{doctorID}/vitals/drop
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req DropRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	st, err := h.svc.Drop(r.Context(), t.sess, t.clinicID, t.doctorID, req.Zone, req.Kind, req.ID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// SetRequired toggles the required flag.
// PATCH /api/clinics/{clinicID}/doctors/{doctorID}/vitals/assigned/{configID}
func (h *Handler) SetRequired(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	configID, err := respond.IDParam(r, "configID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var req struct {
		Required bool `json:"required"`
	}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	st, err := h.svc.SetRequired(r.Context(), t.sess, t.clinicID, t.doctorID, configID, req.Required)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// Remove is the explicit remove control; same as dropping onto the library.
// DELETE /api/clinics/{clinicID}/doctors/{doctorID}/vitals/assigned/{configID}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	configID, err := respond.IDParam(r, "configID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	st, err := h.svc.Drop(r.Context(), t.sess, t.clinicID, t.doctorID, ZoneLibrary, KindConfig, configID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// Save persists the draft.
// PUT /api/clinics/{clinicID}/doctors/{doctorID}/vitals
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	st, err := h.svc.Save(r.Context(), t.sess, t.clinicID, t.doctorID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

// Discard drops the draft.
// DELETE /api/clinics/{clinicID}/doctors/{doctorID}/vitals/draft
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	t, err := h.target(r)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if err := h.svc.Discard(r.Context(), t.sess, t.clinicID, t.doctorID); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEntries returns an appointment's readings.
// GET /api/clinics/{clinicID}/appointments/{appointmentID}/vitals
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	clinicID, err := respond.IDParam(r, "clinicID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	appointmentID, err := respond.IDParam(r, "appointmentID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	entries, latest, err := h.svc.Entries(r.Context(), sess, clinicID, appointmentID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"entries": entries, "latest": latest})
}

// RecordEntry submits readings.
// POST /api/clinics/{clinicID}/appointments/{appointmentID}/vitals
func (h *Handler) RecordEntry(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	clinicID, err := respond.IDParam(r, "clinicID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	appointmentID, err := respond.IDParam(r, "appointmentID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var e Entry
	if err := respond.Decode(r, &e); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	e.ClinicID = clinicID
	e.AppointmentID = appointmentID
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	recorded, err := h.svc.Record(r.Context(), sess, e)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, recorded)
}
