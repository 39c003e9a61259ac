// Package content holds the event records the public site displays and
// the calendar feeds are generated from. Events live in events.json under
// the data directory, hand-authored or imported from an uploaded ICS
// file, and are cached in memory between reloads.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"churchsite/internal/ical"
	"churchsite/internal/model"
)

const eventsFile = "events.json"

// LocalizedEvent is an event record with its text resolved for one
// locale, the shape the public API serves.
type LocalizedEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	URL         string `json:"url,omitempty"`
}

// Store is the in-memory view over events.json. Safe for concurrent use.
type Store struct {
	path          string
	defaultLocale string

	mu     sync.RWMutex
	events []model.Event
}

// NewStore returns a store backed by <dataDir>/events.json. Call Load
// before first use; a missing file loads as an empty event list.
func NewStore(dataDir, defaultLocale string) *Store {
	return &Store{
		path:          filepath.Join(dataDir, eventsFile),
		defaultLocale: defaultLocale,
	}
}

// Load re-reads events.json into the cache.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.mu.Lock()
			s.events = nil
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("content: read %s: %w", s.path, err)
	}

	var events []model.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("content: parse %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

// Events returns all events localized for the given locale, sorted by
// date then time.
func (s *Store) Events(locale string) []LocalizedEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LocalizedEvent, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, s.localize(ev, locale))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// Event looks up a single event by ID.
func (s *Store) Event(id, locale string) (LocalizedEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ev := range s.events {
		if ev.ID == id {
			return s.localize(ev, locale), true
		}
	}
	return LocalizedEvent{}, false
}

func (s *Store) localize(ev model.Event, locale string) LocalizedEvent {
	text := ev.Localized(locale, s.defaultLocale)
	return LocalizedEvent{
		ID:          ev.ID,
		Title:       text.Title,
		Description: text.Description,
		Location:    text.Location,
		Date:        ev.Date,
		Time:        ev.Time,
		URL:         ev.URL,
	}
}

// CalendarEvents converts the cached events into exporter events,
// localizing text and projecting date + time-of-day through loc. Events
// with unparseable dates are skipped.
func (s *Store) CalendarEvents(locale string, loc *time.Location) []ical.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ical.Event, 0, len(s.events))
	for _, ev := range s.events {
		start, err := time.ParseInLocation("2006-01-02 15:04", ev.Date+" "+ev.Time, loc)
		if err != nil {
			continue
		}
		dur := time.Duration(ev.DurationMinutes) * time.Minute
		if dur <= 0 {
			dur = time.Hour
		}
		text := ev.Localized(locale, s.defaultLocale)
		out = append(out, ical.Event{
			ID:          ev.ID,
			Title:       text.Title,
			Description: text.Description,
			Location:    text.Location,
			URL:         ev.URL,
			Start:       start,
			End:         start.Add(dur),
			Organizer:   ev.Organizer,
		})
	}
	return out
}

// Upsert merges the given events into the store by ID (imported text
// locales are merged into existing records) and persists the result.
func (s *Store) Upsert(events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]int, len(s.events))
	for i, ev := range s.events {
		byID[ev.ID] = i
	}

	for _, ev := range events {
		if i, ok := byID[ev.ID]; ok {
			existing := s.events[i]
			if existing.Text == nil {
				existing.Text = map[string]model.EventText{}
			}
			for locale, text := range ev.Text {
				existing.Text[locale] = text
			}
			existing.Date = ev.Date
			existing.Time = ev.Time
			if ev.DurationMinutes > 0 {
				existing.DurationMinutes = ev.DurationMinutes
			}
			if ev.URL != "" {
				existing.URL = ev.URL
			}
			s.events[i] = existing
			continue
		}
		byID[ev.ID] = len(s.events)
		s.events = append(s.events, ev)
	}

	return s.saveLocked()
}

// saveLocked writes events.json atomically. Caller holds s.mu.
func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Len reports the number of cached events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
