// Package handlers holds the HTTP handlers that sit outside any one domain
// package: sign-in and the session lifecycle.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/internal/upstream"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// MembershipSource lists the clinics the token holder belongs to.
type MembershipSource interface {
	Memberships(ctx context.Context) ([]upstream.Membership, error)
}

// SessionStore persists sessions by token.
type SessionStore interface {
	Save(ctx context.Context, sess *access.Session) error
	Delete(ctx context.Context, token string) error
}

var errNoClinics = apierror.Forbidden("your account is not linked to any clinic")

// SessionHandler signs users in and out.
type SessionHandler struct {
	members MembershipSource
	store   SessionStore
	logger  *logging.Logger
	now     func() time.Time
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(members MembershipSource, store SessionStore, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{members: members, store: store, logger: logger, now: time.Now}
}

type clinicView struct {
	access.ClinicContext
	Privileged   bool     `json:"privileged"`
	Capabilities []string `json:"capabilities"`
}

type sessionView struct {
	ID        string       `json:"id"`
	UserID    int64        `json:"user_id"`
	DoctorID  int64        `json:"doctor_id,omitempty"`
	Name      string       `json:"name,omitempty"`
	Email     string       `json:"email,omitempty"`
	Clinics   []clinicView `json:"clinics"`
	CreatedAt time.Time    `json:"created_at"`
}

func viewOf(sess *access.Session) sessionView {
	v := sessionView{
		ID: sess.ID, UserID: sess.UserID, DoctorID: sess.DoctorID,
		Name: sess.Name, Email: sess.Email, CreatedAt: sess.CreatedAt,
		Clinics: make([]clinicView, 0, len(sess.Clinics)),
	}
	for _, c := range sess.Clinics {
		caps := c.Role.Capabilities().List()
		if caps == nil {
			caps = []string{}
		}
		v.Clinics = append(v.Clinics, clinicView{ClinicContext: c, Privileged: c.Privileged(), Capabilities: caps})
	}
	return v
}

// Login creates a session for the verified token.
// POST /api/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	id, ok := tenancy.IdentityFromContext(r.Context())
	token, hasToken := tenancy.TokenFromContext(r.Context())
	if !ok || !hasToken {
		respond.Error(w, h.logger, access.ErrSessionNotFound)
		return
	}

	memberships, err := h.members.Memberships(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	sess := &access.Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		DoctorID:  id.DoctorID,
		Name:      id.Name,
		Email:     id.Email,
		Token:     token,
		CreatedAt: h.now().UTC(),
	}
	for _, m := range memberships {
		role, err := access.ParseRole(m.Role)
		if err != nil {
			if errors.Is(err, access.ErrUnknownRole) {
				h.logger.Warn("skipping clinic with unknown role", "clinic_id", m.ClinicID, "role", m.Role)
				continue
			}
			respond.Error(w, h.logger, err)
			return
		}
		sess.Clinics = append(sess.Clinics, access.ClinicContext{
			ClinicID: m.ClinicID, ClinicName: m.ClinicName, Role: role, Timezone: m.Timezone,
		})
	}
	if len(sess.Clinics) == 0 {
		respond.Error(w, h.logger, errNoClinics)
		return
	}

	if err := h.store.Save(r.Context(), sess); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	h.logger.Info("session started", "session_id", sess.ID, "user_id", sess.UserID, "clinics", len(sess.Clinics))
	respond.JSON(w, http.StatusCreated, viewOf(sess))
}

// Get returns the current session with per-clinic capabilities.
// GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, viewOf(sess))
}

// Logout ends the current session.
// DELETE /api/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := tenancy.RequireSession(r.Context())
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if err := h.store.Delete(r.Context(), sess.Token); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	h.logger.Info("session ended", "session_id", sess.ID, "user_id", sess.UserID)
	w.WriteHeader(http.StatusNoContent)
}
