// Package availability manages a doctor's weekly hours and the exceptions
// painted onto a 15-minute week grid.
package availability

import (
	"fmt"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

const (
	// Rows is the number of 15-minute cells in a day.
	Rows = 96
	// Days is the number of columns in a week.
	Days = 7
	// SlotMinutes is the length of one cell.
	SlotMinutes = 15
)

// Paint is the value of one cell.
type Paint uint8

const (
	PaintNone Paint = iota
	PaintAvailable
	// PaintUnavailable is the only value written back as exceptions.
	PaintUnavailable
)

func (p Paint) String() string {
	switch p {
	case PaintNone:
		return "none"
	case PaintAvailable:
		return "available"
	case PaintUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("paint(%d)", uint8(p))
	}
}

// toggled is the value a click produces on a cell holding p.
func (p Paint) toggled() Paint {
	if p == PaintUnavailable {
		return PaintNone
	}
	return PaintUnavailable
}

// Cell addresses one grid cell.
type Cell struct {
	Row int `json:"row"`
	Day int `json:"day"`
}

func (c Cell) valid() bool {
	return c.Row >= 0 && c.Row < Rows && c.Day >= 0 && c.Day < Days
}

// Grid is one week of cells, indexed [day][row]. Day 0 is Monday.
type Grid [Days][Rows]Paint

// At returns the paint at c.
func (g *Grid) At(c Cell) Paint {
	return g[c.Day][c.Row]
}

// Painter applies mouse strokes to a grid: Begin toggles the first cell,
// Enter repeats that value along the drag path, End closes the stroke.
type Painter struct {
	grid     *Grid
	painting bool
	value    Paint
	touched  [Days]bool
}

// NewPainter creates a painter over g.
func NewPainter(g *Grid) *Painter {
	return &Painter{grid: g}
}

// BeginStroke toggles the clicked cell and remembers the resulting value.
func (p *Painter) BeginStroke(c Cell) error {
	if !c.valid() {
		return apierror.Invalid(fmt.Sprintf("cell (%d,%d) is outside the week grid", c.Row, c.Day))
	}
	p.painting = true
	p.touched = [Days]bool{}
	p.value = p.grid.At(c).toggled()
	p.grid[c.Day][c.Row] = p.value
	p.touched[c.Day] = true
	return nil
}

// Enter paints c with the stroke's value. Outside a stroke it does nothing.
func (p *Painter) Enter(c Cell) error {
	if !p.painting {
		return nil
	}
	if !c.valid() {
		return apierror.Invalid(fmt.Sprintf("cell (%d,%d) is outside the week grid", c.Row, c.Day))
	}
	p.grid[c.Day][c.Row] = p.value
	p.touched[c.Day] = true
	return nil
}

// StrokeResult describes a finished stroke.
type StrokeResult struct {
	Value Paint `json:"value"`
	// NoteRequired is set when the stroke painted cells unavailable.
	NoteRequired bool  `json:"note_required"`
	Days         []int `json:"days"`
}

// EndStroke closes the stroke.
func (p *Painter) EndStroke() StrokeResult {
	res := StrokeResult{Value: p.value, NoteRequired: p.painting && p.value == PaintUnavailable}
	for d, hit := range p.touched {
		if hit {
			res.Days = append(res.Days, d)
		}
	}
	p.painting = false
	return res
}

// Apply replays a stroke path: the first cell begins the stroke, the rest are entered.
func Apply(g *Grid, path []Cell) (StrokeResult, error) {
	if len(path) == 0 {
		return StrokeResult{}, apierror.Invalid("a stroke needs at least one cell")
	}
	p := NewPainter(g)
	if err := p.BeginStroke(path[0]); err != nil {
		return StrokeResult{}, err
	}
	for _, c := range path[1:] {
		if err := p.Enter(c); err != nil {
			return StrokeResult{}, err
		}
	}
	return p.EndStroke(), nil
}
