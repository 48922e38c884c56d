package clinic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func newTestServer(t *testing.T, role access.Role) (*Store, http.Handler) {
	store := NewStore(setupTestRedis(t), Defaults{Timezone: "Europe/Berlin", EarliestHour: 8, LatestHour: 18})
	h := NewHandler(store, logging.Default())

	sess := &access.Session{
		ID:      "s1",
		UserID:  5,
		Clinics: []access.ClinicContext{{ClinicID: 7, ClinicName: "Main Street", Role: role}},
	}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenancy.WithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/clinics/{clinicID}", h.Register)
	return store, r
}

func TestGetSettingsReturnsDefaults(t *testing.T) {
	_, srv := newTestServer(t, access.RoleReceptionist)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clinics/7/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got Settings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(7), got.ClinicID)
	assert.Equal(t, "Europe/Berlin", got.Timezone)
	assert.Equal(t, 15, got.SlotMinutes)
}

func TestGetSettingsRejectsNonMember(t *testing.T) {
	_, srv := newTestServer(t, access.RoleOwner)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clinics/99/settings", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateSettingsMergesAndPersists(t *testing.T) {
	store, srv := newTestServer(t, access.RoleOwner)

	body, _ := json.Marshal(map[string]any{
		"name":          "Main Street Clinic",
		"earliest_hour": 7,
		"latest_hour":   19,
		"business_hours": map[string]any{
			"monday": map[string]string{"open": "07:00", "close": "19:00"},
		},
	})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/clinics/7/settings", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Main Street Clinic", saved.Name)
	assert.Equal(t, "Europe/Berlin", saved.Timezone)
	e, l := saved.VisibleHours()
	assert.Equal(t, 7, e)
	assert.Equal(t, 19, l)
	require.NotNil(t, saved.BusinessHours.Monday)
	assert.Nil(t, saved.BusinessHours.Tuesday)
}

func TestUpdateSettingsRequiresCapability(t *testing.T) {
	_, srv := newTestServer(t, access.RoleReceptionist)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/clinics/7/settings", bytes.NewReader([]byte(`{"name":"x"}`))))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	store, srv := newTestServer(t, access.RoleAdmin)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/clinics/7/settings", bytes.NewReader([]byte(`{"timezone":"Nowhere/City"}`))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	saved, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", saved.Timezone)
}
