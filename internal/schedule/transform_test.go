package schedule

import (
	"testing"
	"time"

	"salofyi/internal/model"
)

func rawDay(d time.Time) model.RawDay {
	return model.RawDay{
		Epoch:     d.UnixMilli(),
		RoomParts: competitionPool(),
		Episodes: []model.Episode{
			episode("1", "Rata 1", "Seura", at(10, 0), at(11, 0)),
		},
	}
}

func TestTransformDayNavigation(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 30, 0, 0, testZone)

	tests := []struct {
		name      string
		date      time.Time
		file      string
		prev      string
		next      string
		today     bool
		yesterday bool
		tomorrow  bool
	}{
		{"today", day(2026, 10, 19), "index", "/2026-10-18", "/2026-10-20", true, false, false},
		{"tomorrow", day(2026, 10, 20), "2026-10-20", "/", "/2026-10-21", false, false, true},
		{"yesterday", day(2026, 10, 18), "2026-10-18", "/2026-10-17", "/", false, true, false},
		{"next week", day(2026, 10, 25), "2026-10-25", "/2026-10-24", "/2026-10-26", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TransformDay(rawDay(tt.date), nil, testOptions(), now)
			if got.FileName() != tt.file {
				t.Errorf("file = %q, want %q", got.FileName(), tt.file)
			}
			if got.PrevDateLink != tt.prev || got.NextDateLink != tt.next {
				t.Errorf("links = %q / %q, want %q / %q", got.PrevDateLink, got.NextDateLink, tt.prev, tt.next)
			}
			if got.IsToday != tt.today || got.IsYesterday != tt.yesterday || got.IsTomorrow != tt.tomorrow {
				t.Errorf("flags = %v %v %v", got.IsToday, got.IsYesterday, got.IsTomorrow)
			}
		})
	}
}

func TestTransformDayContent(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 5, 0, 0, testZone)
	opts := testOptions()
	opts.BasePath = "/uimahalli/"

	got := TransformDay(rawDay(day(2026, 10, 19)), nil, opts, now)

	if got.Date != "2026-10-19" || got.Title != "Salon uimahalli" {
		t.Errorf("date %q title %q", got.Date, got.Title)
	}
	if got.CurrentDayStamp != "Maanantai 19.10." {
		t.Errorf("day stamp = %q", got.CurrentDayStamp)
	}
	if got.UpdatedStamp != "19.10.2026 klo 08:05" {
		t.Errorf("updated stamp = %q", got.UpdatedStamp)
	}
	if got.PrevDateLink != "/uimahalli/2026-10-18" {
		t.Errorf("prev link = %q", got.PrevDateLink)
	}
	if len(got.Pools) != 1 || got.Lanes != 3 {
		t.Errorf("pools %d lanes %d", len(got.Pools), got.Lanes)
	}
	if len(got.Hours) != 18 || got.Hours[0] != 5 || got.Hours[17] != 22 {
		t.Errorf("hours = %v", got.Hours)
	}
	if got.HeatWeights[10] != 1 || got.Heatmap[10] != HeatColor(1) {
		t.Errorf("heat at 10 = %v %+v", got.HeatWeights[10], got.Heatmap[10])
	}
	if got.IsClosed || len(got.OpenHours) != 15 || got.Note != "" {
		t.Errorf("open hours %v closed %v note %q", got.OpenHours, got.IsClosed, got.Note)
	}
}

func TestTransformDayEmpty(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, testZone)
	got := TransformDay(model.RawDay{Epoch: day(2026, 10, 21).UnixMilli()}, nil, testOptions(), now)

	if len(got.Pools) != 0 || got.Lanes != 0 {
		t.Errorf("expected no pools, got %+v", got.Pools)
	}
	if len(got.Heatmap) != 18 {
		t.Errorf("heatmap keys = %d", len(got.Heatmap))
	}
	for h, c := range got.Heatmap {
		if c != (RGB{0, 255, 0}) {
			t.Errorf("hour %d = %+v", h, c)
		}
	}
	if got.CurrentDayStamp != "Keskiviikko 21.10." {
		t.Errorf("day stamp = %q", got.CurrentDayStamp)
	}
}

func TestTransformMulti(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, testZone)
	days := []model.RawDay{
		rawDay(day(2026, 10, 18)),
		rawDay(day(2026, 10, 19)),
		rawDay(day(2026, 10, 20)),
	}
	extra := []model.ExtraOpenHours{{Date: "2026-10-20", Note: "Suljettu"}}

	out := TransformMulti(days, extra, testOptions(), now)

	if len(out) != len(days) {
		t.Fatalf("got %d pages, want %d", len(out), len(days))
	}
	for i, want := range []string{"2026-10-18", "index", "2026-10-20"} {
		if out[i].FileName() != want {
			t.Errorf("page %d = %q, want %q", i, out[i].FileName(), want)
		}
	}
	if !out[2].IsClosed || out[2].Note != "Suljettu" {
		t.Errorf("override not applied: closed %v note %q", out[2].IsClosed, out[2].Note)
	}
	if out[0].UpdatedStamp != out[2].UpdatedStamp {
		t.Error("pages of one batch must share the update stamp")
	}
}

func TestDayDate(t *testing.T) {
	epoch := time.Date(2026, 10, 19, 23, 59, 0, 0, testZone).UnixMilli()
	got := DayDate(epoch, testZone)
	if !got.Equal(day(2026, 10, 19)) {
		t.Errorf("DayDate = %v", got)
	}
}
