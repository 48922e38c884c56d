package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	sent []Email
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func visit() Visit {
	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	return Visit{
		PatientEmail: "ana@example.com",
		PatientName:  "Ana <Lopez>",
		DoctorName:   "Dr. Weiss",
		ClinicName:   "Main Street",
		Start:        start,
		End:          start.Add(30 * time.Minute),
	}
}

func TestNotifyRescheduled(t *testing.T) {
	m := &recordingMailer{}
	svc := NewService(m, nil)

	former := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, svc.NotifyRescheduled(context.Background(), visit(), former))

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Your appointment has been rescheduled", msg.Subject)
	assert.Contains(t, msg.Text, "Monday, March 10 at 9:00 AM UTC")
	assert.Contains(t, msg.Text, "Tuesday, March 11 at 2:00 PM UTC - 2:30 PM")
	assert.Contains(t, msg.Text, "with Dr. Weiss")
	assert.Contains(t, msg.HTML, "Main Street")
}

func TestNotifyUsesClinicTimezone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	m := &recordingMailer{}
	v := visit()
	v.Location = berlin

	require.NoError(t, NewService(m, nil).NotifyBooked(context.Background(), v))
	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].Text, "3:00 PM CET")
}

func TestNotifySkipsWithoutEmail(t *testing.T) {
	m := &recordingMailer{}
	v := visit()
	v.PatientEmail = ""

	require.NoError(t, NewService(m, nil).NotifyBooked(context.Background(), v))
	assert.Empty(t, m.sent)
}

func TestNotifyWrapsMailerError(t *testing.T) {
	m := &recordingMailer{err: errors.New("quota exceeded")}
	err := NewService(m, nil).NotifyBooked(context.Background(), visit())
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestFormatRowHTMLEscapes(t *testing.T) {
	assert.Contains(t, formatRowHTML("Patient", "Ana <Lopez>"), "Ana &lt;Lopez&gt;")
	assert.Empty(t, formatRowHTML("Doctor", ""))
}
