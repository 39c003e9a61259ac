package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"churchsite/internal/model"
)

const (
	defaultHorizonWeeks = 4
	maxHorizonWeeks     = 12
)

// rruleWeekdays maps day-of-week 0-6 (Sunday-based) to rrule weekday
// constants.
var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Occurrence is one concrete dated instance of a weekly service.
type Occurrence struct {
	Service model.Service
	Start   time.Time
	End     time.Time
}

// UpcomingOccurrences projects every weekly service forward from now into
// concrete occurrences within the given horizon, sorted by start time.
// weeks is clamped to [1, 12]; zero or negative means the default horizon.
func UpcomingOccurrences(now time.Time, services []model.Service, weeks int) ([]Occurrence, error) {
	if weeks <= 0 {
		weeks = defaultHorizonWeeks
	}
	if weeks > maxHorizonWeeks {
		weeks = maxHorizonWeeks
	}
	horizon := now.AddDate(0, 0, weeks*7)

	out := make([]Occurrence, 0, len(services)*weeks)
	for _, s := range services {
		if err := s.Validate(); err != nil {
			return nil, err
		}

		// Anchor the rule at today's date so the first candidate can be
		// today; Between filters anything already past.
		dtstart := time.Date(now.Year(), now.Month(), now.Day(),
			s.StartHour, s.StartMinute, 0, 0, now.Location())

		r, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   dtstart,
			Byweekday: []rrule.Weekday{rruleWeekdays[s.DayOfWeek]},
		})
		if err != nil {
			return nil, fmt.Errorf("service %q: build rule: %w", s.ID, err)
		}

		dur := time.Duration(s.EndMinutes()-s.StartMinutes()) * time.Minute
		for _, start := range r.Between(now, horizon, true) {
			out = append(out, Occurrence{
				Service: s,
				Start:   start,
				End:     start.Add(dur),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
