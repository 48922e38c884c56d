package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/internal/appointments"
	"github.com/wolfman30/clinicdesk/internal/billing"
	"github.com/wolfman30/clinicdesk/internal/tenancy"
	"github.com/wolfman30/clinicdesk/internal/vitals"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string][]bool
}

func (o *recordingObserver) ObserveRequest(op string, ok bool, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = map[string][]bool{}
	}
	o.calls[op] = append(o.calls[op], ok)
}

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	return New(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second}, obs, logging.Default()), obs
}

func withToken(token string) context.Context {
	return tenancy.WithSession(context.Background(), &access.Session{ID: "s", Token: token})
}

func TestBearerTokenAndQuery(t *testing.T) {
	var gotAuth, gotClinic, gotFrom string
	c, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appointments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotClinic = r.URL.Query().Get("clinic_id")
		gotFrom = r.URL.Query().Get("from")
		_, _ = w.Write([]byte(`[{"id": 7, "clinic_id": 4, "start_time": "2026-03-02T09:00:00Z", "end_time": "2026-03-02T09:30:00Z", "status": 1}]`))
	})

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	list, err := c.Appointments().ListClinic(withToken("tok-1"), 4, from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(7), list[0].ID)
	assert.Equal(t, appointments.StatusConfirmed, list[0].Status)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "4", gotClinic)
	assert.Equal(t, "2026-03-02T00:00:00Z", gotFrom)
	assert.Equal(t, []bool{true}, obs.calls["list_clinic_appointments"])
}

func TestDataEnvelopeIsUnwrapped(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"id": 1, "name": "Pulse", "unit": "bpm"}]}`))
	})
	list, err := c.Vitals().Library(withToken("t"), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Pulse", list[0].Name)
}

func TestErrorMessageIsSurfaced(t *testing.T) {
	cases := map[string]struct {
		body   string
		status int
		want   string
	}{
		"message field": {`{"message": "slot already taken"}`, http.StatusConflict, "slot already taken"},
		"error field":   {`{"error": "invoice locked"}`, http.StatusUnprocessableEntity, "invoice locked"},
		"no body":       {``, http.StatusInternalServerError, "the clinic service is unavailable, please retry"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := c.Appointments().Get(withToken("t"), 9)
			apiErr, ok := apierror.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, "get_appointment", apiErr.Op)
			assert.Equal(t, []bool{false}, obs.calls["get_appointment"])
		})
	}
}

func TestUnreachableIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url, Timeout: time.Second}, nil, logging.Default())
	_, err := c.Memberships(withToken("t"))
	apiErr, ok := apierror.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestRequestBodiesAreJSON(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/clinic-vitals/doctor-assignments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.Vitals().SaveAssignments(withToken("t"), 2, 3, []vitals.Assignment{{ConfigID: 5, Required: true, SortOrder: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got["clinic_id"])
	assert.EqualValues(t, 3, got["doctor_id"])
	assert.Len(t, got["assignments"], 1)
}

func TestInvoicePaths(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 12, "clinic_id": 1, "total_cents": 500}`))
	})
	ctx := withToken("t")
	_, err := c.Invoices().Get(ctx, 12)
	require.NoError(t, err)
	_, err = c.Invoices().Update(ctx, 12, &billing.Invoice{})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /clinic-invoice/invoices/12", "PUT /clinic-invoice/invoices/12"}, paths)
}

func TestDeleteExceptionIgnoresEmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/availability/exception/44", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("clinic_id"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Availability().DeleteException(withToken("t"), 3, 44))
}
