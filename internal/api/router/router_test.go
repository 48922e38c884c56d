package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/appointments"
	"github.com/wolfman30/clinicdesk/internal/calendar"
	"github.com/wolfman30/clinicdesk/internal/clinic"
	"github.com/wolfman30/clinicdesk/internal/directory"
	"github.com/wolfman30/clinicdesk/internal/http/handlers"
	"github.com/wolfman30/clinicdesk/internal/upstream"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

const testSecret = "test-secret"

// fakeBackend serves the handful of clinic backend endpoints the router tests touch.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/doctor/my-clinics-details", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"clinic_id": 1, "clinic_name": "North", "role": "owner", "timezone": "UTC"}]`))
	})
	mux.HandleFunc("/doctor/my-appointments-details", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 10, "clinic_id": 1, "doctor_id": 3, "start_time": "2026-03-02T10:00:00Z", "end_time": "2026-03-02T10:30:00Z"}]`))
	})
	mux.HandleFunc("/appointments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"id": 10, "clinic_id": 1, "doctor_id": 3, "start_time": "2026-03-02T10:00:00Z", "end_time": "2026-03-02T10:30:00Z", "patient": {"id": 5, "name": "Lee"}},
			{"id": 11, "clinic_id": 1, "doctor_id": 4, "start_time": "2026-03-02T09:00:00Z", "end_time": "2026-03-02T09:30:00Z"}
		]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	logger := logging.Default()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	client := upstream.New(upstream.Config{BaseURL: fakeBackend(t).URL}, nil, logger)
	sessions := access.NewSessionStore(rdb, time.Hour)
	settings := clinic.NewStore(rdb, clinic.Defaults{Timezone: "UTC", EarliestHour: 8, LatestHour: 18})
	apptSvc := appointments.NewService(client.Appointments(), nil, nil, nil, 2, logger)

	return New(&Config{
		Logger:              logger,
		TokenSecret:         testSecret,
		Sessions:            sessions,
		HealthChecks:        checks,
		SessionHandler:      handlers.NewSessionHandler(client, sessions, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		CalendarHandler:     calendar.NewHandler(apptSvc, settings, calendar.Defaults{Location: time.UTC, Hours: calendar.Hours{Earliest: 8, Latest: 18}}, logger),
		ClinicHandler:       clinic.NewHandler(settings, logger),
		DirectoryHandler:    directory.NewHandler(directory.NewService(client.Directory(), rdb, time.Minute, logger), logger),
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 9, "doctor_id": 3, "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + signed
}

func do(t *testing.T, h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	rr := do(t, newTestRouter(t, nil), http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterHealthReportsFailedCheck(t *testing.T) {
	h := newTestRouter(t, map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
		"db":    func(context.Context) error { return errors.New("connection refused") },
	})
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "connection refused") {
		t.Fatalf("expected failing check in body, got %s", rr.Body.String())
	}
}

func TestRouterRequiresToken(t *testing.T) {
	rr := do(t, newTestRouter(t, nil), http.MethodGet, "/api/appointments", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRouterRequiresSessionAfterToken(t *testing.T) {
	rr := do(t, newTestRouter(t, nil), http.MethodGet, "/api/appointments", bearer(t))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before sign-in, got %d", rr.Code)
	}
}

func TestRouterSignInFlow(t *testing.T) {
	h := newTestRouter(t, nil)
	auth := bearer(t)

	if rr := do(t, h, http.MethodPost, "/api/session", auth); rr.Code != http.StatusCreated {
		t.Fatalf("sign in: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr := do(t, h, http.MethodGet, "/api/appointments?from=2026-03-02&to=2026-03-03", auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("appointments: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var list []appointments.Appointment
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].ID != 11 || list[1].ID != 10 {
		t.Fatalf("expected reconciled [11 10], got %+v", list)
	}
	if list[1].Patient == nil {
		t.Fatalf("expected the richer copy of appointment 10 to win")
	}

	if rr := do(t, h, http.MethodGet, "/api/clinics/1/settings", auth); rr.Code != http.StatusOK {
		t.Fatalf("settings: expected 200, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/clinics/2/settings", auth); rr.Code != http.StatusForbidden {
		t.Fatalf("foreign clinic: expected 403, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/calendar/day?date=2026-03-02", auth); rr.Code != http.StatusOK {
		t.Fatalf("calendar: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr := do(t, h, http.MethodDelete, "/api/session", auth); rr.Code != http.StatusNoContent {
		t.Fatalf("sign out: expected 204, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/session", auth); rr.Code != http.StatusUnauthorized {
		t.Fatalf("after sign out: expected 401, got %d", rr.Code)
	}
}
