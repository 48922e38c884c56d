package billing

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler exposes invoices over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates an invoices HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// Routes returns a chi router mounted under /api/invoices.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/export", h.Export)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	return r
}

// Create bills an appointment.
// POST /api/invoices
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	var inv Invoice
	if err := respond.Decode(r, &inv); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	created, err := h.svc.Create(r.Context(), sess, inv)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// Update replaces an invoice's line items.
// PUT /api/invoices/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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
	var inv Invoice
	if err := respond.Decode(r, &inv); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), sess, id, inv)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// Get returns one invoice.
// GET /api/invoices/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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
	inv, err := h.svc.Get(r.Context(), sess, id)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, inv)
}

// List returns the caller's invoices, or a clinic's with ?clinic_id=.
// GET /api/invoices
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
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
	list, err := h.svc.List(r.Context(), sess, clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if list == nil {
		list = []Invoice{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// Export downloads the listing as a spreadsheet.
// GET /api/invoices/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
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
	data, err := h.svc.Export(r.Context(), sess, clinicID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	filename := fmt.Sprintf("invoices_%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
