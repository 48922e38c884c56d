package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkStoreRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	former := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	link := &Link{ClinicID: 7, OriginalID: 100, ReplacementID: 101, FormerStart: former, NewStart: former.Add(24 * time.Hour), RescheduledBy: 5}

	mock.ExpectExec("INSERT INTO reschedule_links").
		WithArgs(pgxmock.AnyArg(), int64(7), int64(100), int64(101), former, former.Add(24*time.Hour), int64(5), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewLinkStore(mock).Record(context.Background(), link))
	assert.NotEqual(t, uuid.Nil, link.ID)
	assert.False(t, link.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkStoreRecordError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO reschedule_links").WillReturnError(errors.New("connection refused"))

	err = NewLinkStore(mock).Record(context.Background(), &Link{OriginalID: 1, ReplacementID: 2})
	assert.ErrorContains(t, err, "record reschedule link")
}

func TestLinkStoreListByAppointment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	former := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	created := former.Add(-time.Hour)
	rows := pgxmock.NewRows([]string{"id", "clinic_id", "original_id", "replacement_id", "former_start", "new_start", "rescheduled_by", "created_at"}).
		AddRow(id, int64(7), int64(100), int64(101), former, former.Add(time.Hour), int64(5), created)
	mock.ExpectQuery("SELECT (.+) FROM reschedule_links").WithArgs(int64(101)).WillReturnRows(rows)

	links, err := NewLinkStore(mock).ListByAppointment(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, id, links[0].ID)
	assert.Equal(t, int64(100), links[0].OriginalID)
	assert.Equal(t, created, links[0].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
