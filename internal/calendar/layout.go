// Package calendar lays out appointments for day and week calendar views.
package calendar

import (
	"sort"
	"time"
)

// Event is one time-ranged item on a calendar day.
type Event struct {
	ID    int64
	Start time.Time
	End   time.Time
}

// Placement is the lane assignment for an event: Column in [0, Columns).
type Placement struct {
	ID      int64 `json:"id"`
	Column  int   `json:"column"`
	Columns int   `json:"columns"`
}

// Layout assigns overlap columns so concurrent events render side by side.
//
// Events are visited in start order (input order breaks ties). Each takes the
// first column whose occupant ended at or before its start, otherwise a new
// column. Every event in one contiguous overlap run shares the run's peak
// column count. Touching events (end == start) do not overlap. Zero-duration
// events occupy no time: they never open a column or widen a run, and take
// the first column free at their instant inside the run they fall in. The
// result is in input order.
func Layout(events []Event) []Placement {
	out := make([]Placement, len(events))
	if len(events) == 0 {
		return out
	}

	order := make([]int, 0, len(events))
	var instants []int
	for i, ev := range events {
		if ev.End.After(ev.Start) {
			order = append(order, i)
		} else {
			instants = append(instants, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return events[order[a]].Start.Before(events[order[b]].Start)
	})

	var (
		columnEnds []time.Time // end time of the current occupant per column
		run        []int       // input indices in the current overlap run
		runStart   time.Time
		runEnd     time.Time
		runs       []overlapRun
	)

	closeRun := func() {
		for _, idx := range run {
			out[idx].Columns = len(columnEnds)
		}
		runs = append(runs, overlapRun{
			start:   runStart,
			end:     runEnd,
			columns: len(columnEnds),
			members: append([]int(nil), run...),
		})
		run = run[:0]
		columnEnds = columnEnds[:0]
	}

	for _, idx := range order {
		ev := events[idx]

		if len(run) > 0 && !ev.Start.Before(runEnd) {
			closeRun()
		}

		col := -1
		for c, occupiedUntil := range columnEnds {
			if !occupiedUntil.After(ev.Start) {
				col = c
				break
			}
		}
		if col < 0 {
			col = len(columnEnds)
			columnEnds = append(columnEnds, ev.End)
		} else {
			columnEnds[col] = ev.End
		}

		out[idx] = Placement{ID: ev.ID, Column: col}
		run = append(run, idx)
		if len(run) == 1 {
			runStart = ev.Start
		}
		if len(run) == 1 || ev.End.After(runEnd) {
			runEnd = ev.End
		}
	}
	if len(run) > 0 {
		closeRun()
	}

	for _, idx := range instants {
		out[idx] = placeInstant(events, out, runs, idx)
	}
	return out
}

type overlapRun struct {
	start, end time.Time
	columns    int
	members    []int
}

// placeInstant puts a zero-duration event into the run covering its instant.
// Outside every run it stands alone.
func placeInstant(events []Event, placed []Placement, runs []overlapRun, idx int) Placement {
	at := events[idx].Start
	for _, r := range runs {
		if at.Before(r.start) || !at.Before(r.end) {
			continue
		}
		busy := make([]bool, r.columns)
		for _, m := range r.members {
			ev := events[m]
			if !at.Before(ev.Start) && at.Before(ev.End) {
				busy[placed[m].Column] = true
			}
		}
		col := 0
		for c, b := range busy {
			if !b {
				col = c
				break
			}
		}
		return Placement{ID: events[idx].ID, Column: col, Columns: r.columns}
	}
	return Placement{ID: events[idx].ID, Column: 0, Columns: 1}
}
