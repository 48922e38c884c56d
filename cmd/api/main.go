package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/api/router"
	"github.com/wolfman30/clinicdesk/internal/app/bootstrap"
	"github.com/wolfman30/clinicdesk/internal/appointments"
	"github.com/wolfman30/clinicdesk/internal/availability"
	"github.com/wolfman30/clinicdesk/internal/billing"
	"github.com/wolfman30/clinicdesk/internal/calendar"
	"github.com/wolfman30/clinicdesk/internal/clinic"
	appconfig "github.com/wolfman30/clinicdesk/internal/config"
	"github.com/wolfman30/clinicdesk/internal/directory"
	"github.com/wolfman30/clinicdesk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinicdesk/internal/http/middleware"
	"github.com/wolfman30/clinicdesk/internal/notify"
	"github.com/wolfman30/clinicdesk/internal/observability/metrics"
	"github.com/wolfman30/clinicdesk/internal/upstream"
	"github.com/wolfman30/clinicdesk/internal/vitals"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

const (
	vitalsDraftTTL = 2 * time.Hour
	loginRate      = 0.5 // attempts per second per address
	loginBurst     = 10
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinicdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"upstream", cfg.UpstreamBaseURL,
	)
	if cfg.TokenSigningSecret == "" {
		logger.Warn("TOKEN_SIGNING_SECRET is empty, every /api request will be rejected")
	}

	ctx := context.Background()
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for sessions")
		os.Exit(1)
	}
	defer redisClient.Close()

	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}

	metricsHandler, upstreamMetrics := setupMetrics()
	r := buildRouter(cfg, redisClient, pool, upstreamMetrics, metricsHandler, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupMetrics builds a private registry with runtime collectors and the
// upstream request metrics.
func setupMetrics() (http.Handler, *metrics.UpstreamMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewUpstreamMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// buildRouter wires services and handlers. pool may be nil, which disables
// reschedule history.
func buildRouter(cfg *appconfig.Config, redisClient *redis.Client, pool *pgxpool.Pool, m *metrics.UpstreamMetrics, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	client := upstream.New(upstream.Config{BaseURL: cfg.UpstreamBaseURL, Timeout: cfg.UpstreamTimeout}, m, logger)

	loc, err := time.LoadLocation(cfg.DefaultClinicTZ)
	if err != nil {
		logger.Warn("invalid DEFAULT_CLINIC_TZ, using UTC", "tz", cfg.DefaultClinicTZ, "error", err)
		loc = time.UTC
	}

	sessions := access.NewSessionStore(redisClient, cfg.SessionTTL)
	settings := clinic.NewStore(redisClient, clinic.Defaults{
		Timezone:     loc.String(),
		EarliestHour: cfg.CalendarEarliestHour,
		LatestHour:   cfg.CalendarLatestHour,
	})

	var links appointments.LinkRecorder
	if pool != nil {
		links = appointments.NewLinkStore(pool)
	}
	notifier := notify.NewService(bootstrap.BuildMailer(context.Background(), cfg, logger), logger)
	apptSvc := appointments.NewService(client.Appointments(), links, notifier, m, cfg.UpstreamMaxParallel, logger)

	checks := map[string]router.HealthCheck{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}

	return router.New(&router.Config{
		Logger:             logger,
		TokenSecret:        cfg.TokenSigningSecret,
		Sessions:           sessions,
		LoginLimiter:       httpmiddleware.NewRateLimiter(loginRate, loginBurst),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       checks,

		SessionHandler:      handlers.NewSessionHandler(client, sessions, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		CalendarHandler: calendar.NewHandler(apptSvc, settings, calendar.Defaults{
			Location: loc,
			Hours:    calendar.Hours{Earliest: cfg.CalendarEarliestHour, Latest: cfg.CalendarLatestHour},
		}, logger),
		ClinicHandler:       clinic.NewHandler(settings, logger),
		DirectoryHandler:    directory.NewHandler(directory.NewService(client.Directory(), redisClient, cfg.DirectoryCacheTTL, logger), logger),
		VitalsHandler:       vitals.NewHandler(vitals.NewService(client.Vitals(), vitals.NewDraftStore(redisClient, vitalsDraftTTL), logger), logger),
		AvailabilityHandler: availability.NewHandler(availability.NewService(client.Availability(), logger), settings, logger),
		BillingHandler:      billing.NewHandler(billing.NewService(client.Invoices(), logger), logger),
	})
}
