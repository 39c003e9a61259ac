package ical

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"churchsite/internal/model"
)

func fixedExporter(t *testing.T, now time.Time) *Exporter {
	t.Helper()
	x := NewExporter("fmcbethlehem.org", time.UTC)
	x.WithClock(func() time.Time { return now })
	return x
}

func galaEvent() Event {
	return Event{
		ID:    "e1",
		Title: "Fall Gala",
		Start: time.Date(2025, 11, 1, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 11, 1, 16, 0, 0, 0, time.UTC),
	}
}

func TestRenderSingleEvent_RequiredFields(t *testing.T) {
	t.Parallel()

	x := fixedExporter(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	out, err := x.RenderSingleEvent(galaEvent())
	if err != nil {
		t.Fatalf("RenderSingleEvent: %v", err)
	}

	for _, want := range []string{
		"UID:e1@fmcbethlehem.org\r\n",
		"DTSTART:20251101T140000Z\r\n",
		"DTEND:20251101T160000Z\r\n",
		"SUMMARY:Fall Gala\r\n",
		"STATUS:CONFIRMED\r\n",
		"TRANSP:OPAQUE\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\n") {
		t.Fatalf("unexpected document prefix:\n%s", out)
	}
	if !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
		t.Fatalf("document must end with END:VCALENDAR and CRLF:\n%s", out)
	}
	// Every line joined with CRLF, no stray bare LF.
	if strings.Contains(strings.ReplaceAll(out, "\r\n", ""), "\n") {
		t.Fatal("found bare LF in output")
	}
}

func TestRenderSingleEvent_OptionalFields(t *testing.T) {
	t.Parallel()

	ev := galaEvent()
	ev.Location = "Fellowship Hall"
	ev.Description = "Annual fundraiser"
	ev.URL = "https://fmcbethlehem.org/events/e1"
	ev.Organizer = &model.Organizer{Name: "Church Office", Email: "office@fmcbethlehem.org"}

	x := fixedExporter(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	out, err := x.RenderSingleEvent(ev)
	if err != nil {
		t.Fatalf("RenderSingleEvent: %v", err)
	}
	for _, want := range []string{
		"LOCATION:Fellowship Hall\r\n",
		"DESCRIPTION:Annual fundraiser\r\n",
		"URL:https://fmcbethlehem.org/events/e1\r\n",
		"ORGANIZER;CN=Church Office:mailto:office@fmcbethlehem.org\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestEscaping(t *testing.T) {
	t.Parallel()

	ev := galaEvent()
	ev.Title = "Tea; Cookies, and \"Fun\"\nJoin us \\ all"

	x := fixedExporter(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	out, err := x.RenderSingleEvent(ev)
	if err != nil {
		t.Fatalf("RenderSingleEvent: %v", err)
	}

	want := `SUMMARY:Tea\; Cookies\, and "Fun"\nJoin us \\ all` + "\r\n"
	if !strings.Contains(out, want) {
		t.Fatalf("escaped summary missing\nwant %q\nin\n%s", want, out)
	}
	// Backslash escaping must run first: the escaped semicolon's own
	// backslash may not be doubled.
	if strings.Contains(out, `\\;`) {
		t.Fatal("double-escaped semicolon found")
	}
}

func TestEscaping_StripsCarriageReturns(t *testing.T) {
	t.Parallel()

	if got := escapeText("line1\r\nline2"); got != `line1\nline2` {
		t.Fatalf("escapeText = %q, want carriage return stripped", got)
	}
}

func TestRenderEventList_Structure(t *testing.T) {
	t.Parallel()

	events := []Event{galaEvent()}
	second := galaEvent()
	second.ID = "e2"
	second.Title = "Christmas Concert"
	second.Start = time.Date(2025, 12, 20, 23, 0, 0, 0, time.UTC)
	second.End = time.Date(2025, 12, 21, 1, 0, 0, 0, time.UTC)
	events = append(events, second)

	x := fixedExporter(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	out, err := x.RenderEventList(events, "FMC Bethlehem Events", "Upcoming church events")
	if err != nil {
		t.Fatalf("RenderEventList: %v", err)
	}

	if n := strings.Count(out, "BEGIN:VEVENT\r\n"); n != 2 {
		t.Fatalf("BEGIN:VEVENT count = %d, want 2", n)
	}
	if n := strings.Count(out, "END:VEVENT\r\n"); n != 2 {
		t.Fatalf("END:VEVENT count = %d, want 2", n)
	}
	if n := strings.Count(out, "BEGIN:VCALENDAR\r\n"); n != 1 {
		t.Fatalf("BEGIN:VCALENDAR count = %d, want 1", n)
	}
	if n := strings.Count(out, "END:VCALENDAR\r\n"); n != 1 {
		t.Fatalf("END:VCALENDAR count = %d, want 1", n)
	}
	for _, want := range []string{
		"X-WR-CALNAME:FMC Bethlehem Events\r\n",
		"X-WR-TIMEZONE:America/New_York\r\n",
		"X-WR-CALDESC:Upcoming church events\r\n",
		"UID:e2@fmcbethlehem.org\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func wednesdayService() model.Service {
	return model.Service{
		ID: "midweek", Name: "Midweek Service",
		DayOfWeek: 3, StartHour: 19, StartMinute: 0, EndHour: 20, EndMinute: 30,
	}
}

func TestRenderRecurringServices_TodayMatchesBeforeStart(t *testing.T) {
	t.Parallel()

	// Wednesday 2025-11-05 08:00 UTC: the occurrence is today.
	x := fixedExporter(t, time.Date(2025, 11, 5, 8, 0, 0, 0, time.UTC))
	out, err := x.RenderRecurringServices([]model.Service{wednesdayService()}, "Weekly Services", "")
	if err != nil {
		t.Fatalf("RenderRecurringServices: %v", err)
	}

	for _, want := range []string{
		"UID:service-midweek@fmcbethlehem.org\r\n",
		"DTSTART:20251105T190000Z\r\n",
		"DTEND:20251105T203000Z\r\n",
		"RRULE:FREQ=WEEKLY;BYDAY=WE\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestRenderRecurringServices_TodayMatchesAfterEnd(t *testing.T) {
	t.Parallel()

	// Wednesday 21:00, after the window: DTSTART still carries today's
	// date. The rule anchors on the nearest matching weekday, today
	// included, regardless of the passed window.
	x := fixedExporter(t, time.Date(2025, 11, 5, 21, 0, 0, 0, time.UTC))
	out, err := x.RenderRecurringServices([]model.Service{wednesdayService()}, "Weekly Services", "")
	if err != nil {
		t.Fatalf("RenderRecurringServices: %v", err)
	}
	if !strings.Contains(out, "DTSTART:20251105T190000Z\r\n") {
		t.Fatalf("expected today's date in DTSTART even after the window passed\n%s", out)
	}
}

func TestRenderRecurringServices_OtherWeekday(t *testing.T) {
	t.Parallel()

	// Friday 2025-11-07: next Wednesday is 2025-11-12.
	x := fixedExporter(t, time.Date(2025, 11, 7, 12, 0, 0, 0, time.UTC))
	out, err := x.RenderRecurringServices([]model.Service{wednesdayService()}, "Weekly Services", "")
	if err != nil {
		t.Fatalf("RenderRecurringServices: %v", err)
	}
	if !strings.Contains(out, "DTSTART:20251112T190000Z\r\n") {
		t.Fatalf("expected next Wednesday's date in DTSTART\n%s", out)
	}
}

func TestRenderCombined(t *testing.T) {
	t.Parallel()

	x := fixedExporter(t, time.Date(2025, 11, 5, 8, 0, 0, 0, time.UTC))
	out, err := x.RenderCombined([]Event{galaEvent()}, []model.Service{wednesdayService()}, "FMC Bethlehem", "All events and services")
	if err != nil {
		t.Fatalf("RenderCombined: %v", err)
	}
	if n := strings.Count(out, "BEGIN:VEVENT\r\n"); n != 2 {
		t.Fatalf("BEGIN:VEVENT count = %d, want 2 (one event + one service)", n)
	}
	if n := strings.Count(out, "RRULE:"); n != 1 {
		t.Fatalf("RRULE count = %d, want exactly 1", n)
	}
}

func TestRender_ValidationErrors(t *testing.T) {
	t.Parallel()

	x := fixedExporter(t, time.Now())

	noTitle := galaEvent()
	noTitle.Title = ""
	if _, err := x.RenderSingleEvent(noTitle); err == nil {
		t.Fatal("expected error for missing title")
	}

	inverted := galaEvent()
	inverted.Start, inverted.End = inverted.End, inverted.Start
	if _, err := x.RenderSingleEvent(inverted); err == nil {
		t.Fatal("expected error for end before start")
	}

	badService := wednesdayService()
	badService.StartHour, badService.EndHour = 20, 19
	badService.EndMinute = 0
	if _, err := x.RenderRecurringServices([]model.Service{badService}, "", ""); err == nil {
		t.Fatal("expected error for end-before-start service")
	}
}

func TestGeneratedFeedsParseUnderGolangIcal(t *testing.T) {
	t.Parallel()

	x := fixedExporter(t, time.Date(2025, 11, 5, 8, 0, 0, 0, time.UTC))
	out, err := x.RenderCombined([]Event{galaEvent()}, []model.Service{wednesdayService()}, "FMC Bethlehem", "Feed")
	if err != nil {
		t.Fatalf("RenderCombined: %v", err)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("generated feed does not parse: %v", err)
	}
	if got := len(cal.Events()); got != 2 {
		t.Fatalf("parsed %d events, want 2", got)
	}
}

func TestImportEvents_RoundTrip(t *testing.T) {
	t.Parallel()

	ev := galaEvent()
	ev.Location = "Fellowship Hall"
	ev.Description = "Annual fundraiser"

	x := fixedExporter(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	out, err := x.RenderSingleEvent(ev)
	if err != nil {
		t.Fatalf("RenderSingleEvent: %v", err)
	}

	res, err := ImportEvents(strings.NewReader(out), "en")
	if err != nil {
		t.Fatalf("ImportEvents: %v", err)
	}
	if len(res.Events) != 1 || res.Skipped != 0 {
		t.Fatalf("got %d events (%d skipped), want 1", len(res.Events), res.Skipped)
	}

	got := res.Events[0]
	if got.ID != "e1" {
		t.Fatalf("ID = %q, want UID trimmed back to \"e1\"", got.ID)
	}
	if got.Date != "2025-11-01" || got.Time != "14:00" {
		t.Fatalf("Date/Time = %q %q, want 2025-11-01 14:00", got.Date, got.Time)
	}
	if got.DurationMinutes != 120 {
		t.Fatalf("DurationMinutes = %d, want 120", got.DurationMinutes)
	}
	text := got.Text["en"]
	if text.Title != "Fall Gala" || text.Location != "Fellowship Hall" {
		t.Fatalf("unexpected localized text %+v", text)
	}
}

func TestSuggestedFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":              "calendar.ics",
		"events":        "events.ics",
		"events.ics":    "events.ics",
		"Services.ICS":  "Services.ICS",
		"fall-schedule": "fall-schedule.ics",
	}
	for in, want := range cases {
		if got := SuggestedFilename(in); got != want {
			t.Errorf("SuggestedFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
