// Package schedule answers "is a service live right now, and what comes
// next" from the weekly service schedule plus date-ranged special-event
// overrides, and projects services into concrete upcoming occurrences.
package schedule

import (
	"fmt"
	"time"

	"churchsite/internal/model"
)

// Status is the result of one resolution pass.
type Status struct {
	IsLive bool

	// Current is the service live right now, nil when nothing is live.
	// When an override is active it is synthesized from the override,
	// tagged with today's weekday.
	Current *model.Service

	// Next is the next upcoming regular service, nil when the schedule
	// is empty. Overrides never suppress this lookahead.
	Next *model.Service

	// TimeUntilNext is a display string ("2h 5m", "35m", "Tomorrow at
	// 09:00", "Sunday at 09:00"). Empty when there is no next service or
	// when the live state is override-driven.
	TimeUntilNext string
}

// Resolve determines the live/next state at the single instant now.
// Callers must capture now once and pass it in; re-reading the clock
// mid-resolution can flicker across a minute rollover.
//
// Precedence: the first matching special event wins over the regular
// schedule, and overrides earlier in the list win over later ones.
// Service windows are inclusive at both ends: a service is live at the
// exact start minute and still live at the exact end minute.
func Resolve(now time.Time, services []model.Service, specials []model.SpecialEvent) Status {
	weekday := int(now.Weekday())
	minute := now.Hour()*60 + now.Minute()
	today := now.Format("2006-01-02")

	var st Status
	st.Next, st.TimeUntilNext = nextService(weekday, minute, services)

	for i := range specials {
		sp := &specials[i]
		if !specialActive(sp, today, weekday, minute) {
			continue
		}
		st.IsLive = true
		st.Current = synthesize(sp, weekday)
		// Override-driven live state reports no countdown; the next
		// regular service is still exposed for display.
		st.TimeUntilNext = ""
		return st
	}

	for i := range services {
		s := services[i]
		if s.DayOfWeek == weekday && s.StartMinutes() <= minute && minute <= s.EndMinutes() {
			st.IsLive = true
			st.Current = &s
			break
		}
	}

	return st
}

// specialActive reports whether sp covers the given local date, weekday
// and minute-of-day. Malformed time strings never match; config
// validation rejects them before they get here.
func specialActive(sp *model.SpecialEvent, today string, weekday, minute int) bool {
	if today < sp.StartDate || today > sp.EndDate {
		return false
	}
	if !sp.AppliesOn(weekday) {
		return false
	}
	start, err := sp.StartMinutes()
	if err != nil {
		return false
	}
	end, err := sp.EndMinutes()
	if err != nil {
		return false
	}
	return start <= minute && minute <= end
}

// synthesize shapes an active override like a regular service so callers
// get one uniform "current service" type.
func synthesize(sp *model.SpecialEvent, weekday int) *model.Service {
	start, _ := sp.StartMinutes()
	end, _ := sp.EndMinutes()
	return &model.Service{
		Name:        sp.Name,
		DayOfWeek:   weekday,
		StartHour:   start / 60,
		StartMinute: start % 60,
		EndHour:     end / 60,
		EndMinute:   end % 60,
		Description: sp.Description,
		Language:    sp.Language,
	}
}

// nextService finds the next upcoming regular service after the given
// weekday/minute and formats the time-until string for it.
//
// Today's remaining entries (start strictly after the current minute) win
// first; otherwise the scan walks forward day by day up to a full week
// and picks the earliest start on the first day that has any entry.
func nextService(weekday, minute int, services []model.Service) (*model.Service, string) {
	var best *model.Service
	for i := range services {
		s := &services[i]
		if s.DayOfWeek != weekday || s.StartMinutes() <= minute {
			continue
		}
		if best == nil || s.StartMinutes() < best.StartMinutes() {
			best = s
		}
	}
	if best != nil {
		diff := best.StartMinutes() - minute
		return best, formatSameDay(diff)
	}

	for offset := 1; offset <= 7; offset++ {
		day := (weekday + offset) % 7
		for i := range services {
			s := &services[i]
			if s.DayOfWeek != day {
				continue
			}
			if best == nil || s.StartMinutes() < best.StartMinutes() {
				best = s
			}
		}
		if best != nil {
			return best, formatFutureDay(best, offset)
		}
	}

	return nil, ""
}

func formatSameDay(diffMinutes int) string {
	h := diffMinutes / 60
	m := diffMinutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func formatFutureDay(s *model.Service, offset int) string {
	at := fmt.Sprintf("%02d:%02d", s.StartHour, s.StartMinute)
	if offset == 1 {
		return "Tomorrow at " + at
	}
	return time.Weekday(s.DayOfWeek).String() + " at " + at
}
