package appointments

import (
	"sort"

	"github.com/wolfman30/clinicdesk/internal/access"
)

// Reconcile merges the caller's personal schedule with the full schedules of
// the clinics where the caller is privileged.
//
// For privileged clinics the full-schedule record wins; for visiting clinics
// only the caller's own records appear. Records sharing an ID collapse to one,
// keeping the copy with more populated nested objects. Personal records for
// clinics missing from contexts are kept. The result is sorted by start time.
func Reconcile(self []Appointment, contexts []access.ClinicContext, full map[int64][]Appointment) []Appointment {
	privileged := make(map[int64]bool, len(contexts))
	for _, c := range contexts {
		if c.Privileged() {
			privileged[c.ClinicID] = true
		}
	}

	byID := make(map[int64]int)
	merged := make([]Appointment, 0, len(self))

	keep := func(a Appointment) {
		if i, ok := byID[a.ID]; ok {
			if a.richness() > merged[i].richness() {
				merged[i] = a
			}
			return
		}
		byID[a.ID] = len(merged)
		merged = append(merged, a)
	}

	// Full schedules first so they win ties on richness.
	clinicIDs := make([]int64, 0, len(full))
	for id := range full {
		clinicIDs = append(clinicIDs, id)
	}
	sort.Slice(clinicIDs, func(i, j int) bool { return clinicIDs[i] < clinicIDs[j] })
	for _, clinicID := range clinicIDs {
		if !privileged[clinicID] {
			continue
		}
		for _, a := range full[clinicID] {
			keep(a)
		}
	}

	for _, a := range self {
		keep(a)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].StartTime.Equal(merged[j].StartTime) {
			return merged[i].StartTime.Before(merged[j].StartTime)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}
