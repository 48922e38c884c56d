package calendar

import (
	"math"
	"time"
)

// MinHeightPercent keeps very short appointments visible.
const MinHeightPercent = 2.0

// Hours is the visible hour range [Earliest, Latest) of a calendar column.
type Hours struct {
	Earliest int `json:"earliest"`
	Latest   int `json:"latest"`
}

// Valid reports whether the range is non-empty and within a day.
func (h Hours) Valid() bool {
	return h.Earliest >= 0 && h.Latest <= 24 && h.Earliest < h.Latest
}

func (h Hours) totalMinutes() float64 {
	return float64(h.Latest-h.Earliest) * 60
}

// Box is the vertical placement of an event as percentages of the column.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Position maps [start, end) onto the visible range. Wall-clock fields are
// read in loc only, so a whole rendering pass shares one time reference.
func Position(start, end time.Time, hours Hours, loc *time.Location) Box {
	if loc == nil {
		loc = time.UTC
	}
	total := hours.totalMinutes()
	if total <= 0 {
		return Box{Top: 0, Height: MinHeightPercent}
	}

	local := start.In(loc)
	rangeStart := time.Date(local.Year(), local.Month(), local.Day(), hours.Earliest, 0, 0, 0, loc)
	fromStart := local.Sub(rangeStart).Minutes()
	duration := end.Sub(start).Minutes()

	top := clamp(fromStart/total*100, 0, 100)
	height := clamp(duration/total*100, MinHeightPercent, 100-top)
	return Box{Top: round2(top), Height: round2(height)}
}

// clamp bounds v to [lo, hi]; when hi < lo the floor wins.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
