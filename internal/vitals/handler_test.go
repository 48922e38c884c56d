package vitals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

type fakeBackend struct {
	configs   []Config
	templates []Template
	assigned  map[int64][]Assignment
	saveErr   error
	saves     int
	entries   []Entry
	recorded  []Entry
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		configs:   []Config{pulse, temp, weight, spo2},
		templates: []Template{{ID: 10, Name: "Intake", ConfigIDs: []int64{3, 4}}},
		assigned: map[int64][]Assignment{
			5: {{ConfigID: 1, Name: "Pulse", Required: true, SortOrder: 1}},
		},
	}
}

func (f *fakeBackend) Library(context.Context, int64) ([]Config, error)     { return f.configs, nil }
func (f *fakeBackend) Templates(context.Context, int64) ([]Template, error) { return f.templates, nil }

func (f *fakeBackend) DoctorAssignments(_ context.Context, _ int64, doctorID int64) ([]Assignment, error) {
	return f.assigned[doctorID], nil
}

func (f *fakeBackend) SaveAssignments(_ context.Context, _ int64, doctorID int64, a []Assignment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.assigned[doctorID] = a
	return nil
}

func (f *fakeBackend) ListEntries(context.Context, int64, int64) ([]Entry, error) {
	return f.entries, nil
}

func (f *fakeBackend) RecordEntry(_ context.Context, e Entry) (*Entry, error) {
	e.ID = int64(len(f.recorded) + 1)
	f.recorded = append(f.recorded, e)
	return &e, nil
}

func newVitalsServer(t *testing.T, b *fakeBackend, role access.Role) http.Handler {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	h := NewHandler(NewService(b, NewDraftStore(client, 0), logging.Default()), logging.Default())
	sess := &access.Session{ID: "s1", UserID: 9, DoctorID: 5, Clinics: []access.ClinicContext{{ClinicID: 7, Role: role}}}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenancy.WithSession(req.Context(), sess)))
		})
	})
	r.Route("/api/clinics/{clinicID}", h.Register)
	return r
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) State {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var st State
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	return st
}

func TestEditorFlowOverHTTP(t *testing.T) {
	b := newFakeBackend()
	srv := newVitalsServer(t, b, access.RoleDoctor)
	base := "/api/clinics/7/doctors/5/vitals"

	st := decodeState(t, do(t, srv, http.MethodGet, base, nil))
	assert.Len(t, st.Assigned, 1)
	assert.Len(t, st.Library, 3)

	st = decodeState(t, do(t, srv, http.MethodPost, base+"/drop", DropRequest{Zone: ZoneAssigned, Kind: KindTemplate, ID: 10}))
	assert.Len(t, st.Assigned, 3)
	assert.True(t, st.Dirty)

	st = decodeState(t, do(t, srv, http.MethodPatch, base+"/assigned/4", map[string]bool{"required": true}))
	assert.True(t, st.Assigned[2].Required)

	st = decodeState(t, do(t, srv, http.MethodDelete, base+"/assigned/1", nil))
	assert.Len(t, st.Assigned, 2)
	assert.Equal(t, 0, b.saves, "edits must not autosave")

	st = decodeState(t, do(t, srv, http.MethodPut, base, nil))
	assert.False(t, st.Dirty)
	require.Equal(t, 1, b.saves)
	saved := b.assigned[5]
	require.Len(t, saved, 2)
	assert.Equal(t, int64(3), saved[0].ConfigID)
	assert.Equal(t, 1, saved[0].SortOrder)
	assert.Equal(t, 2, saved[1].SortOrder)
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	b := newFakeBackend()
	srv := newVitalsServer(t, b, access.RoleDoctor)
	base := "/api/clinics/7/doctors/5/vitals"

	decodeState(t, do(t, srv, http.MethodPost, base+"/drop", DropRequest{Zone: ZoneAssigned, Kind: KindConfig, ID: 2}))
	b.saveErr = errors.New("backend down")

	rec := do(t, srv, http.MethodPut, base, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	st := decodeState(t, do(t, srv, http.MethodGet, base, nil))
	assert.True(t, st.Dirty)
	assert.Len(t, st.Assigned, 2)
}

func TestDoctorCannotEditColleague(t *testing.T) {
	srv := newVitalsServer(t, newFakeBackend(), access.RoleDoctor)
	rec := do(t, srv, http.MethodGet, "/api/clinics/7/doctors/6/vitals", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReceptionistCannotEditVitals(t *testing.T) {
	srv := newVitalsServer(t, newFakeBackend(), access.RoleReceptionist)
	rec := do(t, srv, http.MethodGet, "/api/clinics/7/doctors/5/vitals", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecordEntryChecksRequiredVitals(t *testing.T) {
	b := newFakeBackend()
	srv := newVitalsServer(t, b, access.RoleDoctor)

	rec := do(t, srv, http.MethodPost, "/api/clinics/7/appointments/40/vitals", map[string]any{
		"patient_id": 3,
		"doctor_id":  5,
		"readings":   []Reading{{Name: "Weight", Value: "70", Unit: "kg"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pulse is required")
	assert.Empty(t, b.recorded)

	rec = do(t, srv, http.MethodPost, "/api/clinics/7/appointments/40/vitals", map[string]any{
		"patient_id": 3,
		"doctor_id":  5,
		"readings":   []Reading{{Name: "Pulse", Value: "64", Unit: "bpm"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, b.recorded, 1)
	assert.Equal(t, int64(40), b.recorded[0].AppointmentID)
	assert.Equal(t, int64(7), b.recorded[0].ClinicID)
}

func TestListEntriesReturnsLatest(t *testing.T) {
	b := newFakeBackend()
	b.entries = []Entry{{ID: 1}, {ID: 2}}
	srv := newVitalsServer(t, b, access.RoleReceptionist)

	rec := do(t, srv, http.MethodGet, "/api/clinics/7/appointments/40/vitals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries []Entry `json:"entries"`
		Latest  *Entry  `json:"latest"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Entries, 2)
	require.NotNil(t, body.Latest)
	assert.Equal(t, int64(2), body.Latest.ID)
}
