package calendar

import (
	"time"

	"github.com/wolfman30/clinicdesk/internal/appointments"
)

// Item is one appointment placed on a calendar day.
type Item struct {
	Appointment appointments.Appointment `json:"appointment"`
	Column      int                      `json:"column"`
	Columns     int                      `json:"columns"`
	Top         float64                  `json:"top"`
	Height      float64                  `json:"height"`
	// OpenEnded marks items that start on this day but end on a later one.
	OpenEnded bool `json:"open_ended,omitempty"`
}

// Day is the rendered content of one clinic-local calendar day.
type Day struct {
	Date  string `json:"date"`
	Hours Hours  `json:"hours"`
	Items []Item `json:"items"`
}

// Options filters what a view shows.
type Options struct {
	IncludeCancelled bool
}

// DayStart returns local midnight of t's date in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// WeekStart returns local midnight of the Monday on or before t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	day := DayStart(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// BuildDay selects appointments that start on day's local date in loc, runs
// Layout over them and attaches their vertical boxes.
func BuildDay(appts []appointments.Appointment, day time.Time, loc *time.Location, hours Hours, opts Options) Day {
	if loc == nil {
		loc = time.UTC
	}
	start := DayStart(day, loc)
	end := start.AddDate(0, 0, 1)

	var selected []appointments.Appointment
	for _, a := range appts {
		if a.Status == appointments.StatusCancelled && !opts.IncludeCancelled {
			continue
		}
		if a.StartTime.Before(start) || !a.StartTime.Before(end) {
			continue
		}
		selected = append(selected, a)
	}

	events := make([]Event, len(selected))
	for i, a := range selected {
		events[i] = Event{ID: a.ID, Start: a.StartTime, End: a.EndTime}
	}
	placements := Layout(events)

	items := make([]Item, len(selected))
	for i, a := range selected {
		box := Position(a.StartTime, a.EndTime, hours, loc)
		items[i] = Item{
			Appointment: a,
			Column:      placements[i].Column,
			Columns:     placements[i].Columns,
			Top:         box.Top,
			Height:      box.Height,
			OpenEnded:   a.EndTime.After(end),
		}
	}

	return Day{Date: start.Format(time.DateOnly), Hours: hours, Items: items}
}

// BuildWeek renders the seven days starting at the week start of anyDay.
func BuildWeek(appts []appointments.Appointment, anyDay time.Time, loc *time.Location, hours Hours, opts Options) []Day {
	first := WeekStart(anyDay, loc)
	days := make([]Day, 7)
	for i := range days {
		days[i] = BuildDay(appts, first.AddDate(0, 0, i), loc, hours, opts)
	}
	return days
}
