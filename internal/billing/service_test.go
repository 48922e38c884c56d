package billing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/clinicdesk/internal/access"
	"github.com/wolfman30/clinicdesk/internal/apierror"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

type fakeBackend struct {
	byID    map[int64]*Invoice
	mine    []Invoice
	clinic  map[int64][]Invoice
	nextID  int64
	updates int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{byID: map[int64]*Invoice{}, clinic: map[int64][]Invoice{}, nextID: 100}
}

func (f *fakeBackend) Create(_ context.Context, inv *Invoice) (*Invoice, error) {
	f.nextID++
	cp := *inv
	cp.ID = f.nextID
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBackend) Update(_ context.Context, id int64, inv *Invoice) (*Invoice, error) {
	f.updates++
	cp := *inv
	f.byID[id] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBackend) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := f.byID[id]
	if !ok {
		return nil, apierror.NotFound("invoice not found")
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeBackend) ListMine(context.Context) ([]Invoice, error) { return f.mine, nil }

func (f *fakeBackend) ListClinic(_ context.Context, clinicID int64) ([]Invoice, error) {
	return f.clinic[clinicID], nil
}

func session() *access.Session {
	return &access.Session{
		ID: "sess-1", UserID: 9, DoctorID: 3,
		Clinics: []access.ClinicContext{
			{ClinicID: 1, ClinicName: "North", Role: access.RoleOwner},
			{ClinicID: 2, ClinicName: "South", Role: access.RoleDoctor},
			{ClinicID: 3, ClinicName: "East", Role: access.RoleReceptionist},
		},
	}
}

func draft(clinicID int64) Invoice {
	return Invoice{
		ClinicID: clinicID, AppointmentID: 40, PatientID: 11,
		Items:      []LineItem{{Service: "Consultation", PriceCents: 8000}, {Service: "ECG", PriceCents: 4550}},
		TotalCents: 1,
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	apiErr, ok := apierror.As(err)
	require.True(t, ok, "expected api error, got %v", err)
	return apiErr.Status
}

func TestCreateRecomputesTotal(t *testing.T) {
	b := newFakeBackend()
	svc := NewService(b, logging.Default())

	got, err := svc.Create(context.Background(), session(), draft(1))
	require.NoError(t, err)
	assert.Equal(t, int64(12550), got.TotalCents)
	assert.Equal(t, StatusDraft, got.Status)
	assert.Equal(t, int64(3), got.DoctorID)
}

func TestCreateRejectsInvalidBeforeUpstream(t *testing.T) {
	b := newFakeBackend()
	svc := NewService(b, logging.Default())

	inv := draft(1)
	inv.Items = nil
	_, err := svc.Create(context.Background(), session(), inv)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, b.byID)
}

func TestCreateCapabilities(t *testing.T) {
	svc := NewService(newFakeBackend(), logging.Default())

	_, err := svc.Create(context.Background(), session(), draft(3))
	assert.Equal(t, http.StatusForbidden, statusOf(t, err), "receptionists cannot bill")

	_, err = svc.Create(context.Background(), session(), draft(9))
	assert.ErrorIs(t, err, access.ErrNotMember)

	inv := draft(2)
	inv.DoctorID = 4
	_, err = svc.Create(context.Background(), session(), inv)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err), "doctors bill only their own visits")

	inv.DoctorID = 4
	inv.ClinicID = 1
	_, err = svc.Create(context.Background(), session(), inv)
	assert.NoError(t, err, "owners bill for any doctor")
}

func TestUpdateReplacesItems(t *testing.T) {
	b := newFakeBackend()
	svc := NewService(b, logging.Default())
	created, err := svc.Create(context.Background(), session(), draft(1))
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), session(), created.ID, Invoice{
		Items: []LineItem{{Service: "Follow-up", PriceCents: 3000}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.TotalCents)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), got.ClinicID)
	assert.Equal(t, int64(40), got.AppointmentID)
	assert.Equal(t, int64(11), got.PatientID)
}

func TestUpdateKeepsAppointmentPatient(t *testing.T) {
	b := newFakeBackend()
	svc := NewService(b, logging.Default())
	created, err := svc.Create(context.Background(), session(), draft(1))
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), session(), created.ID, Invoice{
		AppointmentID: 99,
		PatientID:     12,
		Items:         []LineItem{{Service: "Follow-up", PriceCents: 3000}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), got.AppointmentID)
	assert.Equal(t, int64(11), got.PatientID)
}

func TestUpdatePaidIsConflict(t *testing.T) {
	b := newFakeBackend()
	b.byID[5] = &Invoice{ID: 5, ClinicID: 1, DoctorID: 3, AppointmentID: 40, PatientID: 11, Status: StatusPaid,
		Items: []LineItem{{Service: "x", PriceCents: 1}}}
	svc := NewService(b, logging.Default())

	_, err := svc.Update(context.Background(), session(), 5, Invoice{Items: []LineItem{{Service: "y", PriceCents: 2}}})
	assert.ErrorIs(t, err, ErrPaid)
	assert.Zero(t, b.updates)
}

func TestListFiltersForNonPrivilegedDoctor(t *testing.T) {
	b := newFakeBackend()
	b.clinic[2] = []Invoice{{ID: 1, ClinicID: 2, DoctorID: 3}, {ID: 2, ClinicID: 2, DoctorID: 4}}
	b.clinic[1] = []Invoice{{ID: 3, ClinicID: 1, DoctorID: 3}, {ID: 4, ClinicID: 1, DoctorID: 4}}
	b.mine = []Invoice{{ID: 1}}
	svc := NewService(b, logging.Default())

	got, err := svc.List(context.Background(), session(), 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)

	got, err = svc.List(context.Background(), session(), 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(context.Background(), session(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
