package schedule

import (
	"testing"
	"time"

	"churchsite/internal/model"
)

// 2025-11-02 is a Sunday, 2025-11-05 a Wednesday.
func sundayAt(hour, min int) time.Time {
	return time.Date(2025, 11, 2, hour, min, 0, 0, time.UTC)
}

func weeklySchedule() []model.Service {
	return []model.Service{
		{
			ID: "sunday-morning", Name: "Sunday Morning Worship",
			DayOfWeek: 0, StartHour: 9, StartMinute: 0, EndHour: 11, EndMinute: 30,
		},
		{
			ID: "sunday-evening", Name: "Sunday Evening Service",
			DayOfWeek: 0, StartHour: 18, StartMinute: 0, EndHour: 19, EndMinute: 30,
		},
		{
			ID: "wednesday-prayer", Name: "Wednesday Prayer Meeting",
			DayOfWeek: 3, StartHour: 19, StartMinute: 0, EndHour: 20, EndMinute: 30,
		},
	}
}

func TestResolve_InclusiveWindowBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		live bool
	}{
		{"first second of start minute", sundayAt(9, 0), true},
		{"last minute of window", sundayAt(11, 30), true},
		{"one minute before start", sundayAt(8, 59), false},
		{"one minute after end", sundayAt(11, 31), false},
		{"mid service", sundayAt(10, 15), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := Resolve(tc.now, weeklySchedule(), nil)
			if st.IsLive != tc.live {
				t.Fatalf("IsLive = %v, want %v", st.IsLive, tc.live)
			}
			if tc.live && st.Current == nil {
				t.Fatal("live but Current is nil")
			}
			if !tc.live && st.Current != nil {
				t.Fatalf("not live but Current = %q", st.Current.Name)
			}
		})
	}
}

func TestResolve_OneMinuteBeforeStartReportsNext(t *testing.T) {
	t.Parallel()

	st := Resolve(sundayAt(8, 59), weeklySchedule(), nil)
	if st.IsLive {
		t.Fatal("should not be live one minute before start")
	}
	if st.Next == nil || st.Next.ID != "sunday-morning" {
		t.Fatalf("Next = %+v, want sunday-morning", st.Next)
	}
	if st.TimeUntilNext != "1m" {
		t.Fatalf("TimeUntilNext = %q, want \"1m\"", st.TimeUntilNext)
	}
}

func TestResolve_EmptySchedule(t *testing.T) {
	t.Parallel()

	st := Resolve(sundayAt(10, 0), nil, nil)
	if st.IsLive || st.Current != nil || st.Next != nil || st.TimeUntilNext != "" {
		t.Fatalf("empty schedule should resolve to zero status, got %+v", st)
	}
}

func TestResolve_OverrideWinsOverRegularService(t *testing.T) {
	t.Parallel()

	specials := []model.SpecialEvent{{
		Name:      "Harvest Festival Service",
		StartDate: "2025-11-02",
		EndDate:   "2025-11-02",
		StartTime: "09:00",
		EndTime:   "11:30",
	}}

	st := Resolve(sundayAt(10, 0), weeklySchedule(), specials)
	if !st.IsLive {
		t.Fatal("override window should be live")
	}
	if st.Current == nil || st.Current.Name != "Harvest Festival Service" {
		t.Fatalf("Current = %+v, want the override", st.Current)
	}
	if st.Current.DayOfWeek != 0 {
		t.Fatalf("synthesized override weekday = %d, want 0", st.Current.DayOfWeek)
	}
	// The regular-schedule lookahead is still reported, but the countdown
	// is suppressed while an override is live.
	if st.Next == nil || st.Next.ID != "sunday-evening" {
		t.Fatalf("Next = %+v, want sunday-evening", st.Next)
	}
	if st.TimeUntilNext != "" {
		t.Fatalf("TimeUntilNext = %q, want suppressed", st.TimeUntilNext)
	}
}

func TestResolve_FirstMatchingOverrideWins(t *testing.T) {
	t.Parallel()

	specials := []model.SpecialEvent{
		{Name: "First", StartDate: "2025-11-01", EndDate: "2025-11-03", StartTime: "09:00", EndTime: "12:00"},
		{Name: "Second", StartDate: "2025-11-02", EndDate: "2025-11-02", StartTime: "09:00", EndTime: "12:00"},
	}

	st := Resolve(sundayAt(10, 0), nil, specials)
	if st.Current == nil || st.Current.Name != "First" {
		t.Fatalf("Current = %+v, want first override in list order", st.Current)
	}
}

func TestResolve_OverrideDayOfWeekRestriction(t *testing.T) {
	t.Parallel()

	specials := []model.SpecialEvent{{
		Name:       "Revival Week",
		StartDate:  "2025-10-27",
		EndDate:    "2025-11-09",
		StartTime:  "19:00",
		EndTime:    "21:00",
		DaysOfWeek: []int{1, 2, 4}, // Mon, Tue, Thu only
	}}

	// Sunday 19:30 falls inside the date and time range but not the
	// weekday set.
	st := Resolve(sundayAt(19, 30), nil, specials)
	if st.IsLive {
		t.Fatal("override restricted to Mon/Tue/Thu must not match Sunday")
	}

	// Monday 2025-11-03 19:30 matches.
	monday := time.Date(2025, 11, 3, 19, 30, 0, 0, time.UTC)
	st = Resolve(monday, nil, specials)
	if !st.IsLive || st.Current == nil || st.Current.Name != "Revival Week" {
		t.Fatalf("expected Revival Week live on Monday, got %+v", st)
	}
}

func TestResolve_TimeUntilNextFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		now  time.Time
		next string
		want string
	}{
		{
			name: "hours and minutes later today",
			now:  sundayAt(15, 55),
			next: "sunday-evening",
			want: "2h 5m",
		},
		{
			name: "minutes only later today",
			now:  sundayAt(17, 25),
			next: "sunday-evening",
			want: "35m",
		},
		{
			name: "tomorrow",
			// Saturday 2025-11-01: next service is Sunday morning.
			now:  time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC),
			next: "sunday-morning",
			want: "Tomorrow at 09:00",
		},
		{
			name: "later in the week",
			// Monday 2025-11-03: next service is Wednesday evening.
			now:  time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
			next: "wednesday-prayer",
			want: "Wednesday at 19:00",
		},
		{
			name: "after last service of the week wraps to Sunday",
			// Wednesday 21:00, after the prayer meeting ended.
			now:  time.Date(2025, 11, 5, 21, 0, 0, 0, time.UTC),
			next: "sunday-morning",
			want: "Sunday at 09:00",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := Resolve(tc.now, weeklySchedule(), nil)
			if st.Next == nil || st.Next.ID != tc.next {
				t.Fatalf("Next = %+v, want %s", st.Next, tc.next)
			}
			if st.TimeUntilNext != tc.want {
				t.Fatalf("TimeUntilNext = %q, want %q", st.TimeUntilNext, tc.want)
			}
		})
	}
}

func TestResolve_EarliestRemainingEntryWinsToday(t *testing.T) {
	t.Parallel()

	// Before both Sunday services: the morning one is next even though
	// the evening entry appears later in the slice order.
	services := []model.Service{
		weeklySchedule()[1], // evening first in list
		weeklySchedule()[0], // morning second
	}
	st := Resolve(sundayAt(7, 0), services, nil)
	if st.Next == nil || st.Next.ID != "sunday-morning" {
		t.Fatalf("Next = %+v, want earliest start today", st.Next)
	}
	if st.TimeUntilNext != "2h 0m" {
		t.Fatalf("TimeUntilNext = %q, want \"2h 0m\"", st.TimeUntilNext)
	}
}

func TestResolve_LiveNowStillReportsNext(t *testing.T) {
	t.Parallel()

	// During the morning service the evening service is next, with a
	// countdown (only override-driven live state suppresses it).
	st := Resolve(sundayAt(10, 0), weeklySchedule(), nil)
	if !st.IsLive || st.Current == nil || st.Current.ID != "sunday-morning" {
		t.Fatalf("expected sunday-morning live, got %+v", st)
	}
	if st.Next == nil || st.Next.ID != "sunday-evening" {
		t.Fatalf("Next = %+v, want sunday-evening", st.Next)
	}
	if st.TimeUntilNext != "8h 0m" {
		t.Fatalf("TimeUntilNext = %q, want \"8h 0m\"", st.TimeUntilNext)
	}
}

func TestResolve_ServiceStartingAtMidnight(t *testing.T) {
	t.Parallel()

	services := []model.Service{{
		ID: "midnight-vigil", Name: "New Year Vigil",
		DayOfWeek: 0, StartHour: 0, StartMinute: 0, EndHour: 1, EndMinute: 0,
	}}

	st := Resolve(sundayAt(0, 0), services, nil)
	if !st.IsLive {
		t.Fatal("service starting at 00:00 must be live at exactly midnight")
	}

	// Saturday 23:59: the vigil is tomorrow.
	st = Resolve(time.Date(2025, 11, 1, 23, 59, 0, 0, time.UTC), services, nil)
	if st.IsLive {
		t.Fatal("must not be live the minute before midnight")
	}
	if st.TimeUntilNext != "Tomorrow at 00:00" {
		t.Fatalf("TimeUntilNext = %q, want \"Tomorrow at 00:00\"", st.TimeUntilNext)
	}
}
