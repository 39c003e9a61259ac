// Package ical renders RFC 5545 iCalendar documents for church events and
// weekly recurring services, and imports events from uploaded ICS files.
//
// The writer is deliberately byte-stable: property order, escaping, the
// UID scheme and the CRLF joins are part of the contract with calendar
// clients already subscribed to the published feeds, so documents are
// built by hand rather than through a serializer that folds and reorders
// lines.
package ical

import (
	"fmt"
	"strings"
	"time"

	"churchsite/internal/model"
)

const (
	// DefaultDomain is the UID suffix for the production deployment.
	DefaultDomain = "fmcbethlehem.org"

	// DefaultTimezone is the display zone hint emitted as X-WR-TIMEZONE.
	DefaultTimezone = "America/New_York"

	// MIMEType is the content type for generated calendar documents.
	MIMEType = "text/calendar; charset=utf-8"

	prodID = "-//FMC Bethlehem//churchsite//EN"
	crlf   = "\r\n"
)

// dayCodes maps day-of-week 0-6 (Sunday-based) to RRULE BYDAY codes.
var dayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// Event is one calendar entry bound for ICS output.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
	Organizer   *model.Organizer
}

// Validate rejects events that cannot be rendered into a sane VEVENT.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event: id is required: %w", model.ErrMalformedInput)
	}
	if e.Title == "" {
		return fmt.Errorf("event %q: title is required: %w", e.ID, model.ErrMalformedInput)
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return fmt.Errorf("event %q: start and end are required: %w", e.ID, model.ErrMalformedInput)
	}
	if e.End.Before(e.Start) {
		return fmt.Errorf("event %q: ends before it starts: %w", e.ID, model.ErrMalformedInput)
	}
	return nil
}

// Exporter renders ICS documents. The zero value is not usable; construct
// with NewExporter.
type Exporter struct {
	// Domain is the UID suffix ({id}@{domain}).
	Domain string
	// Timezone is the X-WR-TIMEZONE label for list feeds.
	Timezone string

	loc *time.Location
	now func() time.Time
}

// NewExporter returns an Exporter emitting UIDs under domain and
// projecting service times-of-day through loc. Empty domain falls back to
// DefaultDomain; nil loc falls back to time.Local.
func NewExporter(domain string, loc *time.Location) *Exporter {
	if domain == "" {
		domain = DefaultDomain
	}
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{
		Domain:   domain,
		Timezone: DefaultTimezone,
		loc:      loc,
		now:      time.Now,
	}
}

// WithClock overrides the DTSTAMP/occurrence clock. Tests use this to pin
// output bytes.
func (x *Exporter) WithClock(now func() time.Time) *Exporter {
	x.now = now
	return x
}

// RenderSingleEvent wraps one VEVENT in a minimal VCALENDAR.
func (x *Exporter) RenderSingleEvent(ev Event) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	x.writeCalendarHeader(&b, "", "")
	x.writeEvent(&b, ev, "")
	b.WriteString("END:VCALENDAR" + crlf)
	return b.String(), nil
}

// RenderEventList wraps the given events in a VCALENDAR carrying
// calendar-level metadata (name, description, timezone hint).
func (x *Exporter) RenderEventList(events []Event, name, description string) (string, error) {
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	x.writeCalendarHeader(&b, name, description)
	for _, ev := range events {
		x.writeEvent(&b, ev, "")
	}
	b.WriteString("END:VCALENDAR" + crlf)
	return b.String(), nil
}

// RenderRecurringServices emits one weekly-recurring VEVENT per service.
// Each VEVENT is anchored on the nearest date matching the service's
// weekday, today included even when today's window has already passed;
// the RRULE carries the recurrence forward.
func (x *Exporter) RenderRecurringServices(services []model.Service, name, description string) (string, error) {
	var b strings.Builder
	x.writeCalendarHeader(&b, name, description)
	if err := x.writeServices(&b, services); err != nil {
		return "", err
	}
	b.WriteString("END:VCALENDAR" + crlf)
	return b.String(), nil
}

// RenderCombined produces one VCALENDAR containing both the dated events
// and the weekly-recurring services ("subscribe to everything" feed).
func (x *Exporter) RenderCombined(events []Event, services []model.Service, name, description string) (string, error) {
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	x.writeCalendarHeader(&b, name, description)
	for _, ev := range events {
		x.writeEvent(&b, ev, "")
	}
	if err := x.writeServices(&b, services); err != nil {
		return "", err
	}
	b.WriteString("END:VCALENDAR" + crlf)
	return b.String(), nil
}

func (x *Exporter) writeServices(b *strings.Builder, services []model.Service) error {
	for _, s := range services {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.ID == "" {
			return fmt.Errorf("service %q: id is required for calendar export: %w", s.Name, model.ErrMalformedInput)
		}
		ev, rule := x.serviceEvent(s)
		x.writeEvent(b, ev, rule)
	}
	return nil
}

// serviceEvent projects a weekly service onto its next concrete
// occurrence. If today matches the service weekday the occurrence is
// today regardless of whether the window already passed; subscribers keep
// stable UIDs and the RRULE renders the following weeks correctly.
func (x *Exporter) serviceEvent(s model.Service) (Event, string) {
	today := x.now().In(x.loc)
	days := (s.DayOfWeek - int(today.Weekday()) + 7) % 7
	date := today.AddDate(0, 0, days)

	start := time.Date(date.Year(), date.Month(), date.Day(), s.StartHour, s.StartMinute, 0, 0, x.loc)
	end := time.Date(date.Year(), date.Month(), date.Day(), s.EndHour, s.EndMinute, 0, 0, x.loc)

	ev := Event{
		ID:          "service-" + s.ID,
		Title:       s.Name,
		Description: s.Description,
		Start:       start,
		End:         end,
	}
	return ev, "FREQ=WEEKLY;BYDAY=" + dayCodes[s.DayOfWeek]
}

func (x *Exporter) writeCalendarHeader(b *strings.Builder, name, description string) {
	b.WriteString("BEGIN:VCALENDAR" + crlf)
	b.WriteString("VERSION:2.0" + crlf)
	b.WriteString("PRODID:" + prodID + crlf)
	b.WriteString("CALSCALE:GREGORIAN" + crlf)
	b.WriteString("METHOD:PUBLISH" + crlf)
	if name != "" {
		writeProp(b, "X-WR-CALNAME", escapeText(name))
		writeProp(b, "X-WR-TIMEZONE", x.Timezone)
	}
	if description != "" {
		writeProp(b, "X-WR-CALDESC", escapeText(description))
	}
}

func (x *Exporter) writeEvent(b *strings.Builder, ev Event, rule string) {
	b.WriteString("BEGIN:VEVENT" + crlf)
	writeProp(b, "UID", ev.ID+"@"+x.Domain)
	writeProp(b, "DTSTAMP", formatUTC(x.now()))
	writeProp(b, "DTSTART", formatUTC(ev.Start))
	writeProp(b, "DTEND", formatUTC(ev.End))
	if rule != "" {
		writeProp(b, "RRULE", rule)
	}
	writeProp(b, "SUMMARY", escapeText(ev.Title))
	if ev.Description != "" {
		writeProp(b, "DESCRIPTION", escapeText(ev.Description))
	}
	if ev.Location != "" {
		writeProp(b, "LOCATION", escapeText(ev.Location))
	}
	if ev.URL != "" {
		writeProp(b, "URL", ev.URL)
	}
	if ev.Organizer != nil && ev.Organizer.Email != "" {
		b.WriteString("ORGANIZER;CN=" + escapeText(ev.Organizer.Name) + ":mailto:" + ev.Organizer.Email + crlf)
	}
	writeProp(b, "STATUS", "CONFIRMED")
	writeProp(b, "TRANSP", "OPAQUE")
	b.WriteString("END:VEVENT" + crlf)
}

func writeProp(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(":")
	b.WriteString(value)
	b.WriteString(crlf)
}

// formatUTC renders an instant as an RFC 5545 UTC date-time,
// YYYYMMDDTHHMMSSZ.
func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeText escapes text values per RFC 5545 §3.3.11. Backslashes are
// escaped first so inserted escapes are never re-escaped; carriage
// returns are stripped entirely.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// SuggestedFilename normalizes a download filename, appending the .ics
// extension when omitted.
func SuggestedFilename(name string) string {
	if name == "" {
		name = "calendar"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".ics") {
		name += ".ics"
	}
	return name
}
