package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedInput marks input that fails structural validation
// (end-before-start windows, missing titles, inverted date ranges).
// Callers at the HTTP boundary map it to a 4xx response.
var ErrMalformedInput = errors.New("malformed input")

// Service is one weekly recurring service slot, local time.
// DayOfWeek is 0-6 with 0 = Sunday, matching time.Weekday.
type Service struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	DayOfWeek   int    `yaml:"day_of_week" json:"day_of_week"`
	StartHour   int    `yaml:"start_hour" json:"start_hour"`
	StartMinute int    `yaml:"start_minute" json:"start_minute"`
	EndHour     int    `yaml:"end_hour" json:"end_hour"`
	EndMinute   int    `yaml:"end_minute" json:"end_minute"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Language    string `yaml:"language,omitempty" json:"language,omitempty"`
}

// StartMinutes returns the start time as minutes since midnight.
func (s Service) StartMinutes() int { return s.StartHour*60 + s.StartMinute }

// EndMinutes returns the end time as minutes since midnight.
func (s Service) EndMinutes() int { return s.EndHour*60 + s.EndMinute }

// Validate checks field ranges and that the window does not end before it
// starts. Service windows may not cross midnight.
func (s Service) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("service %q: name is required: %w", s.ID, ErrMalformedInput)
	}
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("service %q: day_of_week %d out of range 0-6: %w", s.ID, s.DayOfWeek, ErrMalformedInput)
	}
	for _, c := range []struct {
		name string
		v    int
		max  int
	}{
		{"start_hour", s.StartHour, 23},
		{"end_hour", s.EndHour, 23},
		{"start_minute", s.StartMinute, 59},
		{"end_minute", s.EndMinute, 59},
	} {
		if c.v < 0 || c.v > c.max {
			return fmt.Errorf("service %q: %s %d out of range: %w", s.ID, c.name, c.v, ErrMalformedInput)
		}
	}
	if s.StartMinutes() > s.EndMinutes() {
		return fmt.Errorf("service %q: window ends before it starts: %w", s.ID, ErrMalformedInput)
	}
	return nil
}

// SpecialEvent is a date-ranged schedule override (revival week, holiday
// services, conference days). While active it takes precedence over the
// regular weekly schedule.
type SpecialEvent struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Language    string `yaml:"language,omitempty" json:"language,omitempty"`

	// Inclusive calendar date range, YYYY-MM-DD.
	StartDate string `yaml:"start_date" json:"start_date"`
	EndDate   string `yaml:"end_date" json:"end_date"`

	// 24-hour HH:MM time-of-day window, inclusive at both ends.
	StartTime string `yaml:"start_time" json:"start_time"`
	EndTime   string `yaml:"end_time" json:"end_time"`

	// DaysOfWeek optionally restricts which weekdays inside the date range
	// the override applies to. Empty means every day in range.
	DaysOfWeek []int `yaml:"days_of_week,omitempty" json:"days_of_week,omitempty"`
}

// StartMinutes parses StartTime into minutes since midnight.
func (e SpecialEvent) StartMinutes() (int, error) { return ParseMinuteOfDay(e.StartTime) }

// EndMinutes parses EndTime into minutes since midnight.
func (e SpecialEvent) EndMinutes() (int, error) { return ParseMinuteOfDay(e.EndTime) }

// AppliesOn reports whether the override is in effect on the given weekday.
func (e SpecialEvent) AppliesOn(weekday int) bool {
	if len(e.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range e.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}

// Validate checks date/time formats and that neither range is inverted.
func (e SpecialEvent) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("special event: name is required: %w", ErrMalformedInput)
	}
	for _, d := range []struct {
		field string
		value string
	}{
		{"start_date", e.StartDate},
		{"end_date", e.EndDate},
	} {
		if _, err := time.Parse("2006-01-02", d.value); err != nil {
			return fmt.Errorf("special event %q: %s %q is not YYYY-MM-DD: %w", e.Name, d.field, d.value, ErrMalformedInput)
		}
	}
	if e.StartDate > e.EndDate {
		return fmt.Errorf("special event %q: date range is inverted: %w", e.Name, ErrMalformedInput)
	}
	start, err := e.StartMinutes()
	if err != nil {
		return fmt.Errorf("special event %q: %w", e.Name, err)
	}
	end, err := e.EndMinutes()
	if err != nil {
		return fmt.Errorf("special event %q: %w", e.Name, err)
	}
	if start > end {
		return fmt.Errorf("special event %q: time window is inverted: %w", e.Name, ErrMalformedInput)
	}
	for _, d := range e.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("special event %q: day_of_week %d out of range 0-6: %w", e.Name, d, ErrMalformedInput)
		}
	}
	return nil
}

// ParseMinuteOfDay converts a 24-hour "HH:MM" string into minutes since
// midnight (0-1439).
func ParseMinuteOfDay(v string) (int, error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("time %q is not HH:MM: %w", v, ErrMalformedInput)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time %q has invalid hour: %w", v, ErrMalformedInput)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q has invalid minute: %w", v, ErrMalformedInput)
	}
	return h*60 + m, nil
}

// Organizer is an event contact emitted as ORGANIZER in calendar exports.
type Organizer struct {
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email" json:"email"`
}

// EventText is the locale-specific portion of an event record.
type EventText struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Event is one content event as stored by the content store. Absolute
// timing is carried as a local date + time-of-day; duration defaults to
// an hour when unset.
type Event struct {
	ID              string               `json:"id"`
	Date            string               `json:"date"` // YYYY-MM-DD
	Time            string               `json:"time"` // HH:MM
	DurationMinutes int                  `json:"duration_minutes,omitempty"`
	URL             string               `json:"url,omitempty"`
	Organizer       *Organizer           `json:"organizer,omitempty"`
	Text            map[string]EventText `json:"text"`
}

// Localized resolves the event text for locale, falling back to fallback
// and then to any available locale.
func (e Event) Localized(locale, fallback string) EventText {
	if t, ok := e.Text[locale]; ok {
		return t
	}
	if t, ok := e.Text[fallback]; ok {
		return t
	}
	for _, t := range e.Text {
		return t
	}
	return EventText{}
}

// PrayerRequest is a public form submission. Private requests are shown
// to the prayer team only, not on the public wall.
type PrayerRequest struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Request   string    `json:"request"`
	Private   bool      `json:"private"`
	Locale    string    `json:"locale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage is a public contact-form submission.
type ContactMessage struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Locale    string    `json:"locale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
