package router

import (
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// requireClinicMember rejects requests for clinics the session has no role in.
func requireClinicMember(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clinicID, err := respond.IDParam(r, "clinicID")
			if err != nil {
				respond.Error(w, logger, err)
				return
			}
			sess, err := tenancy.RequireSession(r.Context())
			if err != nil {
				respond.Error(w, logger, err)
				return
			}
			if _, ok := sess.Clinic(clinicID); !ok {
				respond.Error(w, logger, access.ErrNotMember)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
