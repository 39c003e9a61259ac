package ical

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"churchsite/internal/model"
)

// ImportResult carries the outcome of parsing an uploaded ICS file.
type ImportResult struct {
	Events  []model.Event
	Skipped int // VEVENTs dropped for missing UID/summary/times
}

// ImportEvents parses an ICS payload into content events, placing the
// text fields under the given locale. VEVENTs missing a UID, summary or
// start time are skipped rather than failing the whole import.
//
// UIDs are trimmed of any @domain suffix so re-importing a feed this
// service generated round-trips to the original event IDs.
func ImportEvents(r io.Reader, locale string) (ImportResult, error) {
	var res ImportResult
	if locale == "" {
		return res, fmt.Errorf("import: locale is required: %w", model.ErrMalformedInput)
	}

	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return res, fmt.Errorf("import: parse calendar: %w", err)
	}

	for _, ve := range cal.Events() {
		ev, err := importVEvent(ve, locale)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Events = append(res.Events, ev)
	}

	if len(res.Events) == 0 && res.Skipped == 0 {
		return res, errors.New("import: calendar contains no events")
	}
	return res, nil
}

func importVEvent(ve *ics.VEvent, locale string) (model.Event, error) {
	var out model.Event

	uidProp := ve.GetProperty(ics.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	id, _, _ := strings.Cut(uidProp.Value, "@")
	if id == "" {
		return out, errors.New("empty UID before domain")
	}

	var text model.EventText
	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil {
		text.Title = p.Value
	}
	if text.Title == "" {
		return out, errors.New("missing SUMMARY")
	}
	if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
		text.Description = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyLocation); p != nil {
		text.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// Tolerate a missing DTEND; assume the default duration.
		end = start.Add(time.Hour)
	}
	if end.Before(start) {
		return out, errors.New("DTEND before DTSTART")
	}

	out = model.Event{
		ID:              id,
		Date:            start.Format("2006-01-02"),
		Time:            start.Format("15:04"),
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Text:            map[string]model.EventText{locale: text},
	}
	if p := ve.GetProperty("URL"); p != nil {
		out.URL = p.Value
	}
	return out, nil
}
