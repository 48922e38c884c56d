package clinic

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Handler provides HTTP endpoints for clinic settings.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new clinic settings HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Register adds the settings routes to a router scoped to /api/clinics/{clinicID}.
func (h *Handler) Register(r chi.Router) {
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)
}

// GetSettings returns the clinic settings for any member.
// GET /api/clinics/{clinicID}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	clinicID, err := respond.IDParam(r, "clinicID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if _, ok := sess.Clinic(clinicID); !ok {
		respond.Error(w, h.logger, access.ErrNotMember)
		return
	}

	settings, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic settings", "clinic_id", clinicID, "error", err)
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, settings)
}

// UpdateSettingsRequest is the request body for updating clinic settings.
// Omitted fields keep their stored values.
type UpdateSettingsRequest struct {
	Name          string         `json:"name,omitempty"`
	Timezone      string         `json:"timezone,omitempty"`
	EarliestHour  *int           `json:"earliest_hour,omitempty"`
	LatestHour    *int           `json:"latest_hour,omitempty"`
	SlotMinutes   *int           `json:"slot_minutes,omitempty"`
	Currency      string         `json:"currency,omitempty"`
	BusinessHours *BusinessHours `json:"business_hours,omitempty"`
}

// UpdateSettings merges the request into the stored settings.
// PUT /api/clinics/{clinicID}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	clinicID, err := respond.IDParam(r, "clinicID")
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if _, err := sess.Require(clinicID, access.ManageSettings); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	var req UpdateSettingsRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	settings, err := h.store.Get(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to get clinic settings", "clinic_id", clinicID, "error", err)
		respond.Error(w, h.logger, err)
		return
	}

	if req.Name != "" {
		settings.Name = req.Name
	}
	if req.Timezone != "" {
		settings.Timezone = req.Timezone
	}
	if req.EarliestHour != nil {
		settings.EarliestHour = *req.EarliestHour
	}
	if req.LatestHour != nil {
		settings.LatestHour = *req.LatestHour
	}
	if req.SlotMinutes != nil {
		settings.SlotMinutes = *req.SlotMinutes
	}
	if req.Currency != "" {
		settings.Currency = req.Currency
	}
	if req.BusinessHours != nil {
		settings.BusinessHours = *req.BusinessHours
	}

	if err := settings.Validate(); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if err := h.store.Set(r.Context(), settings); err != nil {
		h.logger.Error("failed to save clinic settings", "clinic_id", clinicID, "error", err)
		respond.Error(w, h.logger, err)
		return
	}

	h.logger.Info("clinic settings updated", "clinic_id", clinicID, "user_id", sess.UserID)
	respond.JSON(w, http.StatusOK, settings)
}
