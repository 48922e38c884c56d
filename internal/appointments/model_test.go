package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("Confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	s, err = ParseStatus("3")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseStatus("7")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	_, err = ParseStatus("maybe")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestValidate(t *testing.T) {
	a := appt(1, 1, 9, 0)
	assert.NoError(t, a.Validate())

	a.EndTime = a.StartTime
	assert.ErrorIs(t, a.Validate(), ErrInvalidTimeRange)

	a.EndTime = a.StartTime.Add(-time.Minute)
	assert.ErrorIs(t, a.Validate(), ErrInvalidTimeRange)

	assert.ErrorIs(t, (&Appointment{}).Validate(), ErrNoSlotSelected)
}

func TestRescheduleMarkerRoundTrip(t *testing.T) {
	former := time.Date(2026, 3, 9, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	notes := RescheduleNote(former, "  bring x-rays ")
	assert.Equal(t, "[rescheduled from 2026-03-09T08:00:00Z] bring x-rays", notes)

	got, ok := ParseRescheduleMarker(notes)
	require.True(t, ok)
	assert.True(t, got.Equal(former))

	assert.Equal(t, "[rescheduled from 2026-03-09T08:00:00Z]", RescheduleNote(former, ""))

	_, ok = ParseRescheduleMarker("patient asked to reschedule")
	assert.False(t, ok)
	_, ok = ParseRescheduleMarker("[rescheduled from yesterday]")
	assert.False(t, ok)
}
