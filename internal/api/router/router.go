package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/clinicdesk/internal/appointments"
	"github.com/wolfman30/clinicdesk/internal/availability"
	"github.com/wolfman30/clinicdesk/internal/billing"
	"github.com/wolfman30/clinicdesk/internal/calendar"
	"github.com/wolfman30/clinicdesk/internal/clinic"
	"github.com/wolfman30/clinicdesk/internal/directory"
	"github.com/wolfman30/clinicdesk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinicdesk/internal/http/middleware"
	"github.com/wolfman30/clinicdesk/internal/http/respond"
	"github.com/wolfman30/clinicdesk/internal/vitals"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	TokenSecret        string
	Sessions           httpmiddleware.SessionLoader
	LoginLimiter       *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck

	SessionHandler      *handlers.SessionHandler
	AppointmentsHandler *appointments.Handler
	CalendarHandler     *calendar.Handler
	ClinicHandler       *clinic.Handler
	DirectoryHandler    *directory.Handler
	VitalsHandler       *vitals.Handler
	AvailabilityHandler *availability.Handler
	BillingHandler      *billing.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(logger))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthHandler(cfg.HealthChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.TokenAuth(cfg.TokenSecret, logger))

		// Signing in needs only a verified token.
		if cfg.SessionHandler != nil {
			login := api.With()
			if cfg.LoginLimiter != nil {
				login = api.With(httpmiddleware.RateLimit(cfg.LoginLimiter))
			}
			login.Post("/session", cfg.SessionHandler.Login)
		}

		api.Group(func(authed chi.Router) {
			authed.Use(httpmiddleware.RequireSession(cfg.Sessions, logger))

			if cfg.SessionHandler != nil {
				authed.Get("/session", cfg.SessionHandler.Get)
				authed.Delete("/session", cfg.SessionHandler.Logout)
			}
			if cfg.AppointmentsHandler != nil {
				authed.Mount("/appointments", cfg.AppointmentsHandler.Routes())
			}
			if cfg.CalendarHandler != nil {
				authed.Mount("/calendar", cfg.CalendarHandler.Routes())
			}
			if cfg.BillingHandler != nil {
				authed.Mount("/invoices", cfg.BillingHandler.Routes())
			}
			if cfg.DirectoryHandler != nil {
				authed.Get("/patients", cfg.DirectoryHandler.MyPatients)
			}

			authed.Route("/clinics/{clinicID}", func(clinicRoutes chi.Router) {
				clinicRoutes.Use(requireClinicMember(logger))
				if cfg.ClinicHandler != nil {
					cfg.ClinicHandler.Register(clinicRoutes)
				}
				if cfg.DirectoryHandler != nil {
					cfg.DirectoryHandler.Register(clinicRoutes)
				}
				if cfg.VitalsHandler != nil {
					cfg.VitalsHandler.Register(clinicRoutes)
				}
				if cfg.AvailabilityHandler != nil {
					cfg.AvailabilityHandler.Register(clinicRoutes)
				}
			})
		})
	})

	return r
}

// healthHandler runs every check with a short deadline and reports 503 when
// any of them fails.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				resp["status"] = "degraded"
				resp[name] = err.Error()
				continue
			}
			resp[name] = "ok"
		}
		respond.JSON(w, status, resp)
	}
}
