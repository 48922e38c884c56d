package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Visit describes one appointment as the patient sees it.
type Visit struct {
	PatientEmail string
	PatientName  string
	DoctorName   string
	ClinicName   string
	Start        time.Time
	End          time.Time
	Location     *time.Location // clinic timezone; UTC when nil
}

// Service composes and sends appointment emails to patients.
type Service struct {
	mailer Mailer
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(mailer Mailer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &Service{mailer: mailer, logger: logger}
}

// NotifyBooked tells the patient about a new appointment.
func (s *Service) NotifyBooked(ctx context.Context, v Visit) error {
	if v.PatientEmail == "" {
		s.logger.Debug("notify: patient has no email, skipping booking notice")
		return nil
	}
	when := formatWhen(v.Start, v.End, v.Location)
	rows := []string{
		formatRowHTML("When", when),
		formatRowHTML("Doctor", v.DoctorName),
		formatRowHTML("Clinic", v.ClinicName),
	}
	msg := Email{
		To:      v.PatientEmail,
		ToName:  v.PatientName,
		Subject: "Your appointment is booked",
		Text:    fmt.Sprintf("Hello %s,\n\nYour appointment%s is booked for %s.\n", greetingName(v.PatientName), withDoctor(v.DoctorName), when),
		HTML:    wrapHTML("Your appointment is booked", rows),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking notice: %w", err)
	}
	return nil
}

// NotifyRescheduled tells the patient their appointment moved from formerStart.
func (s *Service) NotifyRescheduled(ctx context.Context, v Visit, formerStart time.Time) error {
	if v.PatientEmail == "" {
		s.logger.Debug("notify: patient has no email, skipping reschedule notice")
		return nil
	}
	when := formatWhen(v.Start, v.End, v.Location)
	was := formatInstant(formerStart, v.Location)
	rows := []string{
		formatRowHTML("Previously", was),
		formatRowHTML("Now", when),
		formatRowHTML("Doctor", v.DoctorName),
		formatRowHTML("Clinic", v.ClinicName),
	}
	msg := Email{
		To:      v.PatientEmail,
		ToName:  v.PatientName,
		Subject: "Your appointment has been rescheduled",
		Text: fmt.Sprintf("Hello %s,\n\nYour appointment%s on %s has moved to %s.\n",
			greetingName(v.PatientName), withDoctor(v.DoctorName), was, when),
		HTML: wrapHTML("Your appointment has been rescheduled", rows),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: reschedule notice: %w", err)
	}
	return nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func withDoctor(name string) string {
	if name == "" {
		return ""
	}
	return " with " + name
}

func formatInstant(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday, January 2 at 3:04 PM MST")
}

func formatWhen(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("%s - %s", formatInstant(start, loc), end.In(loc).Format("3:04 PM"))
}

func formatRowHTML(label, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf(`<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`,
		label, html.EscapeString(value))
}

func wrapHTML(title string, rows []string) string {
	return fmt.Sprintf(`<h2>%s</h2><table style="border-collapse: collapse;">%s</table>`, html.EscapeString(title), strings.Join(rows, ""))
}
