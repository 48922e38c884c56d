package availability

import (
	"time"
)

// Interval is a half-open [Start, End) span on one grid day.
type Interval struct {
	Day   int       `json:"day"`
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Exception is a persisted unavailable span for a doctor.
type Exception struct {
	ID        int64     `json:"id,omitempty"`
	ClinicID  int64     `json:"clinic_id"`
	DoctorID  int64     `json:"doctor_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Note      string    `json:"note,omitempty"`
}

// cellStart is the wall-clock start of row on day, in loc.
func cellStart(weekStart time.Time, day, row int, loc *time.Location) time.Time {
	ws := weekStart.In(loc)
	return time.Date(ws.Year(), ws.Month(), ws.Day()+day, 0, row*SlotMinutes, 0, 0, loc)
}

// rowExists reports whether the row's wall-clock time occurs on that day.
// Rows inside a spring-forward gap normalize onto later rows and do not.
func rowExists(weekStart time.Time, day, row int, loc *time.Location) bool {
	cs := cellStart(weekStart, day, row, loc)
	return cs.Hour()*60+cs.Minute() == row*SlotMinutes
}

// Runs collapses adjacent unavailable cells of each day into intervals,
// scanning each column once. Available cells are never reported.
func Runs(g *Grid, weekStart time.Time, loc *time.Location) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	var out []Interval
	for day := 0; day < Days; day++ {
		out = append(out, dayRuns(g, weekStart, day, loc)...)
	}
	return out
}

func dayRuns(g *Grid, weekStart time.Time, day int, loc *time.Location) []Interval {
	var out []Interval
	start := -1
	for row := 0; row <= Rows; row++ {
		if row < Rows && !rowExists(weekStart, day, row, loc) {
			continue
		}
		on := row < Rows && g[day][row] == PaintUnavailable
		switch {
		case on && start < 0:
			start = row
		case !on && start >= 0:
			out = append(out, Interval{
				Day:   day,
				Start: cellStart(weekStart, day, start, loc),
				End:   cellStart(weekStart, day, row, loc),
			})
			start = -1
		}
	}
	return out
}

// FromExceptions paints every cell that overlaps an exception unavailable.
func FromExceptions(exceptions []Exception, weekStart time.Time, loc *time.Location) *Grid {
	if loc == nil {
		loc = time.UTC
	}
	g := &Grid{}
	for _, ex := range exceptions {
		for day := 0; day < Days; day++ {
			for row := 0; row < Rows; row++ {
				if !rowExists(weekStart, day, row, loc) {
					continue
				}
				cs := cellStart(weekStart, day, row, loc)
				ce := cs.Add(SlotMinutes * time.Minute)
				if cs.Before(ex.EndTime) && ex.StartTime.Before(ce) {
					g[day][row] = PaintUnavailable
				}
			}
		}
	}
	return g
}

// Diff returns the intervals to create and the exceptions to delete so the
// persisted set matches desired exactly. Matching is by exact start and end.
func Diff(desired []Interval, persisted []Exception) (create []Interval, remove []Exception) {
	type span struct{ start, end int64 }
	key := func(s, e time.Time) span { return span{s.UnixNano(), e.UnixNano()} }

	want := make(map[span]bool, len(desired))
	for _, iv := range desired {
		want[key(iv.Start, iv.End)] = true
	}
	have := make(map[span]bool, len(persisted))
	for _, ex := range persisted {
		k := key(ex.StartTime, ex.EndTime)
		if !want[k] || have[k] {
			remove = append(remove, ex)
			continue
		}
		have[k] = true
	}
	for _, iv := range desired {
		if !have[key(iv.Start, iv.End)] {
			create = append(create, iv)
		}
	}
	return create, remove
}

// OnDays keeps intervals whose Day is listed.
func OnDays(intervals []Interval, days []int) []Interval {
	keep := make(map[int]bool, len(days))
	for _, d := range days {
		keep[d] = true
	}
	var out []Interval
	for _, iv := range intervals {
		if keep[iv.Day] {
			out = append(out, iv)
		}
	}
	return out
}
