package schedule

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salofyi/internal/model"
)

var finnishWeekdays = [7]string{
	"maanantai", "tiistai", "keskiviikko", "torstai", "perjantai", "lauantai", "sunnuntai",
}

// RenderData is everything the day page template needs.
type RenderData struct {
	Epoch int64  `json:"epoch"`
	Date  string `json:"date"`
	Title string `json:"title"`

	Pools []Pool `json:"pools"`
	Hours []int  `json:"hours"`
	// Lanes is the lane count over all pools.
	Lanes int `json:"lanes"`

	OpenHours []int  `json:"open_hours"`
	IsClosed  bool   `json:"is_closed"`
	Note      string `json:"note"`
	// Override is set when an exceptional opening row replaced the weekly hours.
	Override bool `json:"override"`

	Heatmap     map[int]RGB     `json:"heatmap"`
	HeatWeights map[int]float64 `json:"heat_weights"`

	CurrentDayStamp string `json:"current_day_stamp"`
	UpdatedStamp    string `json:"updated_stamp"`

	PrevDateLink string `json:"prev_date_link"`
	NextDateLink string `json:"next_date_link"`
	IsToday      bool   `json:"is_today"`
	IsYesterday  bool   `json:"is_yesterday"`
	IsTomorrow   bool   `json:"is_tomorrow"`
}

// FileName is the output file stem: the today page is the index.
func (d RenderData) FileName() string {
	if d.IsToday {
		return "index"
	}
	return d.Date
}

// DayDate returns the calendar day identified by a millisecond epoch.
func DayDate(epochMillis int64, loc *time.Location) time.Time {
	t := time.Unix(epochMillis/1000, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TransformDay builds the render data of one day. now is the wall clock of
// the whole batch and decides which page is "today".
func TransformDay(day model.RawDay, overrides OverrideIndex, opts Options, now time.Time) RenderData {
	loc := opts.location()

	pools := BuildPools(day.RoomParts, opts)
	PlaceEvents(day.Episodes, pools, opts)
	list := pools.List()
	heat := CalculateHeatmap(list, opts)

	pageDate := DayDate(day.Epoch, loc)
	open := ResolveOpenHours(pageDate, overrides, opts)

	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	prevDate := pageDate.AddDate(0, 0, -1)
	nextDate := pageDate.AddDate(0, 0, 1)

	isToday := sameDay(pageDate, today)
	isYesterday := sameDay(pageDate, today.AddDate(0, 0, -1))
	isTomorrow := sameDay(pageDate, today.AddDate(0, 0, 1))

	// The root page is always today: tomorrow links back to it and
	// yesterday links forward to it.
	base := opts.basePath()
	prevLink := base + prevDate.Format(dateLayout)
	if isTomorrow {
		prevLink = base
	}
	nextLink := base + nextDate.Format(dateLayout)
	if isYesterday {
		nextLink = base
	}

	lanes := 0
	for _, p := range list {
		lanes += len(p.Lanes)
	}

	return RenderData{
		Epoch:           day.Epoch,
		Date:            pageDate.Format(dateLayout),
		Title:           opts.PageHeader,
		Pools:           list,
		Hours:           opts.DisplayHours.Hours(),
		Lanes:           lanes,
		OpenHours:       open.Hours,
		IsClosed:        open.IsClosed,
		Note:            open.Note,
		Override:        open.Override,
		Heatmap:         heat.Colors,
		HeatWeights:     heat.Weights,
		CurrentDayStamp: DayStamp(pageDate),
		UpdatedStamp:    now.Format("02.01.2006 klo 15:04"),
		PrevDateLink:    prevLink,
		NextDateLink:    nextLink,
		IsToday:         isToday,
		IsYesterday:     isYesterday,
		IsTomorrow:      isTomorrow,
	}
}

// TransformMulti transforms every day in input order. Overrides are indexed
// once and now is shared by all days.
func TransformMulti(days []model.RawDay, extra []model.ExtraOpenHours, opts Options, now time.Time) []RenderData {
	overrides := IndexOverrides(extra)

	out := make([]RenderData, 0, len(days))
	for _, day := range days {
		out = append(out, TransformDay(day, overrides, opts, now))
	}
	return out
}

// DayStamp formats a date like "Maanantai 19.10.".
func DayStamp(d time.Time) string {
	// Casers carry state; one per call keeps days safe to transform in parallel.
	return cases.Title(language.Finnish).String(finnishWeekdays[isoWeekday(d)]) + " " + d.Format("02.01.")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
