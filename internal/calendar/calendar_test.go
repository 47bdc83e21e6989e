package calendar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"salofyi/internal/model"
	"salofyi/internal/schedule"
)

func helsinki(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

var week = [7]schedule.HourRange{{From: 6, To: 21}, {From: 6, To: 21}, {From: 12, To: 20}, {From: 6, To: 21}, {From: 6, To: 21}, {From: 11, To: 18}, {From: 11, To: 18}}

// testWeek transforms Monday 2026-10-19 through Sunday 2026-10-25. The
// Wednesday is closed and the Friday has shortened hours.
func testWeek(t *testing.T) ([]schedule.RenderData, Feed) {
	t.Helper()
	loc := helsinki(t)
	opts := schedule.Options{
		Location:         loc,
		PageHeader:       "Salon uimahalli",
		DisplayHours:     schedule.HourRange{From: 5, To: 23},
		WeeklyOpenHours:  week,
		WholePoolMarkers: schedule.Markers{"H", "K"},
		HalfPoolMarkers:  schedule.Markers{"M", "S"},
		SingleLanePools:  schedule.Markers{"T", "L"},
		OverrideNote:     "Poikkeusaukiolo",
	}

	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)
	var days []model.RawDay
	for i := 0; i < 7; i++ {
		days = append(days, model.RawDay{Epoch: monday.AddDate(0, 0, i).UnixMilli()})
	}
	start := monday.Add(17 * time.Hour)
	days[0].RoomParts = []model.RoomPart{
		{RoomID: "1", RoomPartName: "Kilpa-allas", RoomName: "Kilpa-allas"},
		{RoomID: "1", RoomPartName: "Rata 1", RoomName: "Kilpa-allas"},
		{RoomID: "1", RoomPartName: "Rata 2", RoomName: "Kilpa-allas"},
	}
	days[0].Episodes = []model.Episode{{
		RoomID:         "1",
		RoomPartName:   "Kilpa-allas",
		StartTime:      model.TimePoint{Hours: 17, Time: start.UnixMilli()},
		EndTime:        model.TimePoint{Hours: 19, Minutes: 30, Time: start.Add(150 * time.Minute).UnixMilli()},
		EventTextField: []model.TextField{"Uimakilpailut"},
	}}

	extra := []model.ExtraOpenHours{
		{Date: "2026-10-21", Note: "Huoltotauko"},
		{Date: "2026-10-23", OpenFrom: model.SecondsOf(36000), OpenTo: model.SecondsOf(57600)},
	}
	now := monday.Add(8 * time.Hour)
	out := schedule.TransformMulti(days, extra, opts, now)

	return out, Feed{Title: "Salon uimahalli", Location: loc, Week: week, Now: now}
}

func TestBookingsSkipsSynthesizedEvents(t *testing.T) {
	days, feed := testWeek(t)

	events, err := Parse([]byte(feed.Bookings(days).Serialize()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.Summary != "Uimakilpailut" || ev.Location != "Kilpa-allas, Kilpa-allas" {
		t.Errorf("event = %+v", ev)
	}
	loc := feed.Location
	if want := time.Date(2026, 10, 19, 17, 0, 0, 0, loc); !ev.Start.Equal(want) {
		t.Errorf("start = %v, want %v", ev.Start, want)
	}
	if want := time.Date(2026, 10, 19, 19, 30, 0, 0, loc); !ev.End.Equal(want) {
		t.Errorf("end = %v, want %v", ev.End, want)
	}
	if !strings.HasSuffix(ev.UID, "@salo.fyi") {
		t.Errorf("uid = %q", ev.UID)
	}

	again, _ := Parse([]byte(feed.Bookings(days).Serialize()))
	if again[0].UID != ev.UID {
		t.Error("UIDs must be stable across rebuilds")
	}
}

func TestOpenHoursExpansion(t *testing.T) {
	days, feed := testWeek(t)
	loc := feed.Location

	body := feed.OpenHours(days).Serialize()
	if !strings.Contains(body, "RRULE:FREQ=WEEKLY") {
		t.Fatalf("no weekly rule in feed:\n%s", body)
	}

	events, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(events) != 9 {
		t.Errorf("got %d events, want 7 weekly + 2 overrides", len(events))
	}

	from := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)
	occ, err := Expand(events, from, from.AddDate(0, 0, 7), loc)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}

	byDate := map[string][]Occurrence{}
	for _, o := range occ {
		d := o.Start.In(loc).Format(dateLayout)
		byDate[d] = append(byDate[d], o)
	}

	if len(byDate) != 7 {
		t.Fatalf("occurrences on %d dates, want 7: %v", len(byDate), occ)
	}
	for date, list := range byDate {
		if len(list) != 1 {
			t.Errorf("%s has %d occurrences", date, len(list))
		}
	}

	if o := byDate["2026-10-21"][0]; !o.AllDay || o.Summary != "Suljettu" || o.Description != "Huoltotauko" {
		t.Errorf("closed day = %+v", o)
	}
	if o := byDate["2026-10-23"][0]; o.Start.Hour() != 10 || o.End.Hour() != 16 || o.Description != "Poikkeusaukiolo" {
		t.Errorf("override day = %+v", o)
	}
	// Daylight saving ends on this Sunday; the local opening time stays.
	if o := byDate["2026-10-25"][0]; o.Start.Hour() != 11 || o.End.Hour() != 18 {
		t.Errorf("sunday = %+v", o)
	}
	if o := byDate["2026-10-19"][0]; o.Summary != "Avoinna" || o.Start.Hour() != 6 || o.End.Hour() != 21 {
		t.Errorf("monday = %+v", o)
	}
}

func TestOpenHoursSkipsClosedWeekdays(t *testing.T) {
	days, feed := testWeek(t)
	feed.Week[6] = schedule.HourRange{}

	events, err := Parse([]byte(feed.OpenHours(days).Serialize()))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 8 {
		t.Errorf("got %d events, want 6 weekly + 2 overrides", len(events))
	}
}

func TestWriteFeeds(t *testing.T) {
	days, feed := testWeek(t)
	dir := t.TempDir()

	if err := feed.WriteFeeds(dir, days); err != nil {
		t.Fatalf("WriteFeeds: %v", err)
	}
	for _, name := range []string{BookingsFile, OpenHoursFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.HasPrefix(string(data), "BEGIN:VCALENDAR") {
			t.Errorf("%s is not a calendar", name)
		}
	}
}

func TestFeedWithoutIANAZone(t *testing.T) {
	days, feed := testWeek(t)
	feed.Location = time.FixedZone("EET", 2*60*60)

	body := feed.Bookings(days).Serialize()
	if strings.Contains(body, "TZID=") {
		t.Error("fixed zones must be written as UTC")
	}
	events, err := Parse([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Start.Location() != time.UTC {
		t.Errorf("start location = %v", events[0].Start.Location())
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	now := time.Now()
	if _, err := Expand(nil, now, now.Add(-time.Hour), time.UTC); err == nil {
		t.Error("expected error")
	}
}
