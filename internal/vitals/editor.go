package vitals

import (
	"context"
	"fmt"
	"sort"
)

// Zone is a drop target.
type Zone string

const (
	ZoneLibrary  Zone = "library"
	ZoneAssigned Zone = "assigned"
)

// Kind is the type of the dragged item.
type Kind string

const (
	KindConfig   Kind = "config"
	KindTemplate Kind = "template"
)

// State is a serializable snapshot of an editor.
type State struct {
	Library   []Config     `json:"library"`
	Assigned  []Assignment `json:"assigned"`
	Templates []Template   `json:"templates"`
	Dirty     bool         `json:"dirty"`
}

// Saver persists a doctor's full assignment list.
type Saver interface {
	SaveAssignments(ctx context.Context, clinicID, doctorID int64, assigned []Assignment) error
}

// Editor moves configs between the library and a doctor's ordered
// assignment list. Nothing is persisted until Save.
type Editor struct {
	library   []Config
	assigned  []Assignment
	templates []Template
	dirty     bool
}

// NewEditor builds an editor from the clinic's configs, the doctor's current
// assignments and the clinic's templates. Assigned configs are removed from
// the library.
func NewEditor(configs []Config, assigned []Assignment, templates []Template) *Editor {
	taken := make(map[int64]bool, len(assigned))
	for _, a := range assigned {
		taken[a.ConfigID] = true
	}
	e := &Editor{templates: append([]Template(nil), templates...)}
	for _, c := range configs {
		if !taken[c.ID] {
			e.library = append(e.library, c)
		}
	}
	e.assigned = sortedAssignments(assigned)
	return e
}

// FromState restores an editor from a snapshot.
func FromState(s State) *Editor {
	return &Editor{
		library:   append([]Config(nil), s.Library...),
		assigned:  append([]Assignment(nil), s.Assigned...),
		templates: append([]Template(nil), s.Templates...),
		dirty:     s.Dirty,
	}
}

// State returns a snapshot of the editor.
func (e *Editor) State() State {
	s := State{
		Library:   append([]Config{}, e.library...),
		Assigned:  append([]Assignment{}, e.assigned...),
		Templates: append([]Template{}, e.templates...),
		Dirty:     e.dirty,
	}
	return s
}

func (e *Editor) libraryIndex(id int64) int {
	for i, c := range e.library {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) assignedIndex(id int64) int {
	for i, a := range e.assigned {
		if a.ConfigID == id {
			return i
		}
	}
	return -1
}

// Assign moves a config from the library to the end of the assigned list.
func (e *Editor) Assign(configID int64) error {
	i := e.libraryIndex(configID)
	if i < 0 {
		return ErrNotInLibrary
	}
	c := e.library[i]
	e.library = append(e.library[:i], e.library[i+1:]...)
	e.assigned = append(e.assigned, Assignment{
		ConfigID:  c.ID,
		Name:      c.Name,
		Unit:      c.Unit,
		SortOrder: len(e.assigned) + 1,
	})
	e.dirty = true
	return nil
}

// AssignTemplate appends the template's configs in template order, skipping
// any already assigned. It returns how many were added.
func (e *Editor) AssignTemplate(templateID int64) (int, error) {
	var tpl *Template
	for i := range e.templates {
		if e.templates[i].ID == templateID {
			tpl = &e.templates[i]
			break
		}
	}
	if tpl == nil {
		return 0, ErrUnknownTemplate
	}

	added := 0
	for _, id := range tpl.ConfigIDs {
		if e.assignedIndex(id) >= 0 || e.libraryIndex(id) < 0 {
			continue
		}
		if err := e.Assign(id); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Unassign moves an assigned config back to the end of the library.
func (e *Editor) Unassign(configID int64) error {
	i := e.assignedIndex(configID)
	if i < 0 {
		return ErrNotAssigned
	}
	a := e.assigned[i]
	e.assigned = append(e.assigned[:i], e.assigned[i+1:]...)
	e.library = append(e.library, Config{ID: a.ConfigID, Name: a.Name, Unit: a.Unit})
	e.dirty = true
	return nil
}

// Drop performs the move a drag of (kind, id) onto zone stands for.
func (e *Editor) Drop(zone Zone, kind Kind, id int64) error {
	switch {
	case zone == ZoneAssigned && kind == KindConfig:
		if e.assignedIndex(id) >= 0 {
			return nil
		}
		return e.Assign(id)
	case zone == ZoneAssigned && kind == KindTemplate:
		_, err := e.AssignTemplate(id)
		return err
	case zone == ZoneLibrary && kind == KindConfig:
		if e.libraryIndex(id) >= 0 {
			return nil
		}
		return e.Unassign(id)
	default:
		return ErrInvalidDrop
	}
}

// SetRequired flags an assigned config as required or optional.
func (e *Editor) SetRequired(configID int64, required bool) error {
	i := e.assignedIndex(configID)
	if i < 0 {
		return ErrNotAssigned
	}
	if e.assigned[i].Required != required {
		e.assigned[i].Required = required
		e.dirty = true
	}
	return nil
}

// Save sends the whole assigned list with sort orders 1..n. On failure the
// editor is left exactly as it was.
func (e *Editor) Save(ctx context.Context, saver Saver, clinicID, doctorID int64) error {
	out := make([]Assignment, len(e.assigned))
	for i, a := range e.assigned {
		a.SortOrder = i + 1
		out[i] = a
	}
	if err := saver.SaveAssignments(ctx, clinicID, doctorID, out); err != nil {
		return fmt.Errorf("vitals: save assignments: %w", err)
	}
	e.assigned = out
	e.dirty = false
	return nil
}

func sortedAssignments(in []Assignment) []Assignment {
	out := append([]Assignment(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}
