// Package clinic provides per-clinic portal settings.
package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/clinicdesk/internal/apierror"
)

// DayHours represents the opening hours for a single day.
// Nil means the clinic is closed that day.
type DayHours struct {
	Open  string `json:"open"`  // "09:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

func (d *DayHours) minutes() (open, close int, err error) {
	o, err := time.Parse("15:04", d.Open)
	if err != nil {
		return 0, 0, err
	}
	c, err := time.Parse("15:04", d.Close)
	if err != nil {
		return 0, 0, err
	}
	return o.Hour()*60 + o.Minute(), c.Hour()*60 + c.Minute(), nil
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// GetHoursForDay returns the hours for a given weekday (0=Sunday, 6=Saturday).
func (b *BusinessHours) GetHoursForDay(weekday time.Weekday) *DayHours {
	switch weekday {
	case time.Sunday:
		return b.Sunday
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	default:
		return nil
	}
}

// HasAnyHours returns true if at least one day has business hours configured.
func (b *BusinessHours) HasAnyHours() bool {
	return b.Sunday != nil || b.Monday != nil || b.Tuesday != nil ||
		b.Wednesday != nil || b.Thursday != nil || b.Friday != nil || b.Saturday != nil
}

// Settings holds clinic-specific portal configuration.
type Settings struct {
	ClinicID int64  `json:"clinic_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"` // e.g., "Europe/Berlin"
	// EarliestHour and LatestHour bound the calendar's visible range. Zero
	// values fall back to the business hours, then to service defaults.
	EarliestHour  int           `json:"earliest_hour,omitempty"`
	LatestHour    int           `json:"latest_hour,omitempty"`
	SlotMinutes   int           `json:"slot_minutes"`
	Currency      string        `json:"currency"`
	BusinessHours BusinessHours `json:"business_hours"`
}

// Defaults are the service-wide fallbacks applied to unset clinics.
type Defaults struct {
	Timezone     string
	EarliestHour int
	LatestHour   int
}

// DefaultSettings returns the settings used before a clinic saves its own.
func DefaultSettings(clinicID int64, d Defaults) *Settings {
	tz := d.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return &Settings{
		ClinicID:     clinicID,
		Timezone:     tz,
		EarliestHour: d.EarliestHour,
		LatestHour:   d.LatestHour,
		SlotMinutes:  15,
		Currency:     "EUR",
	}
}

// Location returns the clinic's timezone, or UTC when it is invalid or empty.
func (s *Settings) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// VisibleHours returns the calendar range [earliest, latest).
func (s *Settings) VisibleHours() (int, int) {
	if s.EarliestHour > 0 || s.LatestHour > 0 {
		if s.EarliestHour < s.LatestHour {
			return s.EarliestHour, s.LatestHour
		}
	}
	if s.BusinessHours.HasAnyHours() {
		earliest, latest := 24*60, 0
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			h := s.BusinessHours.GetHoursForDay(wd)
			if h == nil {
				continue
			}
			open, close, err := h.minutes()
			if err != nil {
				continue
			}
			earliest = min(earliest, open)
			latest = max(latest, close)
		}
		if earliest < latest {
			return earliest / 60, (latest + 59) / 60
		}
	}
	return 8, 18
}

// IsOpenAt checks if the clinic is open at the given time.
// If no business hours are configured, the clinic is treated as always open.
func (s *Settings) IsOpenAt(t time.Time) bool {
	localTime := t.In(s.Location())

	hours := s.BusinessHours.GetHoursForDay(localTime.Weekday())
	if hours == nil {
		return !s.BusinessHours.HasAnyHours()
	}
	open, close, err := hours.minutes()
	if err != nil {
		return false
	}
	current := localTime.Hour()*60 + localTime.Minute()
	return current >= open && current < close
}

// Validate checks settings supplied by an admin.
func (s *Settings) Validate() error {
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return apierror.Invalid(fmt.Sprintf("unknown timezone %q", s.Timezone))
		}
	}
	if s.EarliestHour < 0 || s.LatestHour > 24 || (s.LatestHour != 0 && s.EarliestHour >= s.LatestHour) {
		return apierror.Invalid("calendar hours must satisfy 0 <= earliest < latest <= 24")
	}
	if s.SlotMinutes <= 0 || 60%s.SlotMinutes != 0 {
		return apierror.Invalid("slot length must divide an hour")
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		h := s.BusinessHours.GetHoursForDay(wd)
		if h == nil {
			continue
		}
		open, close, err := h.minutes()
		if err != nil || open >= close {
			return apierror.Invalid(fmt.Sprintf("invalid business hours for %s", wd))
		}
	}
	return nil
}

// Store provides persistence for clinic settings.
type Store struct {
	redis    *redis.Client
	defaults Defaults
}

// NewStore creates a new clinic settings store.
func NewStore(redisClient *redis.Client, defaults Defaults) *Store {
	return &Store{redis: redisClient, defaults: defaults}
}

func (s *Store) key(clinicID int64) string {
	return fmt.Sprintf("clinicdesk:clinic:settings:%d", clinicID)
}

// Get retrieves clinic settings, returning defaults if not found.
func (s *Store) Get(ctx context.Context, clinicID int64) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultSettings(clinicID, s.defaults), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Set saves clinic settings.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(settings.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}
