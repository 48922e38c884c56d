package directory

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Handler exposes directories over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a directory HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register adds directory routes to a router scoped to /api/clinics/{clinicID}.
func (h *Handler) Register(r chi.Router) {
	r.Get("/doctors", h.Doctors)
	r.Get("/patients", h.Patients)
	r.Get("/staff", h.Staff)
	r.Post("/directory/refresh", h.Refresh)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch func(*http.Request, int64) (any, error)) {
	clinicID, err := respond.IDParam(r, "clinicID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	out, err := fetch(r, clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// Doctors lists doctors.
// GET /api/clinics/{clinicID}/doctors?q=
func (h *Handler) Doctors(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(r *http.Request, clinicID int64) (any, error) {
		sess, err := tenancy.RequireSession(r.Context())
		if err != nil {
			return nil, err
		}
		return h.svc.Doctors(r.Context(), sess, clinicID, r.URL.Query().Get("q"))
	})
}

// Patients lists patients.
// GET /api/clinics/{clinicID}/patients?q=
func (h *Handler) Patients(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(r *http.Request, clinicID int64) (any, error) {
		sess, err := tenancy.RequireSession(r.Context())
		if err != nil {
			return nil, err
		}
		return h.svc.Patients(r.Context(), sess, clinicID, r.URL.Query().Get("q"))
	})
}

// Staff lists staff.
// GET /api/clinics/{clinicID}/staff?q=
func (h *Handler) Staff(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(r *http.Request, clinicID int64) (any, error) {
		sess, err := tenancy.RequireSession(r.Context())
		if err != nil {
			return nil, err
		}
		return h.svc.Staff(r.Context(), sess, clinicID, r.URL.Query().Get("q"))
	})
}

// Refresh drops cached directories for the clinic.
// POST /api/clinics/{clinicID}/directory/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
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
	if _, ok := sess.Clinic(clinicID); !ok {
		respond.Error(w, h.logger, access.ErrNotMember)
		return
	}
	if err := h.svc.Invalidate(r.Context(), clinicID); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyPatients lists the caller's own patients.
// GET /api/patients?q=
func (h *Handler) MyPatients(w http.ResponseWriter, r *http.Request) {
	if _, err := tenancy.RequireSession(r.Context()); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	out, err := h.svc.MyPatients(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}
