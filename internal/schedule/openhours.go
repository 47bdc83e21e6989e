package schedule

import (
	"strings"
	"time"

	"salofyi/internal/model"
)

const dateLayout = "2006-01-02"

// OpenHours is the resolved opening time of one day.
type OpenHours struct {
	Hours    []int
	IsClosed bool
	// Note is set only when an override row applies.
	Note     string
	Override bool
}

// OverrideIndex maps YYYY-MM-DD to the override row of that date.
type OverrideIndex map[string]model.ExtraOpenHours

// IndexOverrides keys override rows by date. Rows with a malformed date are
// ignored; of duplicate dates the last row wins.
func IndexOverrides(rows []model.ExtraOpenHours) OverrideIndex {
	idx := make(OverrideIndex, len(rows))
	for _, row := range rows {
		d, err := time.Parse(dateLayout, strings.TrimSpace(row.Date))
		if err != nil {
			continue
		}
		idx[d.Format(dateLayout)] = row
	}
	return idx
}

// ResolveOpenHours returns the opening hours of date. An override row for
// the date replaces the weekly default; an override without any bounds
// closes the hall for the day.
func ResolveOpenHours(date time.Time, overrides OverrideIndex, opts Options) OpenHours {
	def := opts.WeeklyOpenHours[isoWeekday(date)]

	row, ok := overrides[date.Format(dateLayout)]
	if !ok {
		hours := def.Hours()
		return OpenHours{Hours: hours, IsClosed: len(hours) == 0}
	}

	note := strings.TrimSpace(row.Note)
	if note == "" {
		note = opts.OverrideNote
	}

	if !row.OpenFrom.Valid && !row.OpenTo.Valid {
		return OpenHours{Hours: []int{}, IsClosed: true, Note: note, Override: true}
	}

	r := def
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if row.OpenFrom.Valid {
		r.From = midnight.Add(time.Duration(row.OpenFrom.Value) * time.Second).Hour()
	}
	if row.OpenTo.Valid {
		r.To = midnight.Add(time.Duration(row.OpenTo.Value) * time.Second).Hour()
	}

	hours := r.Hours()
	return OpenHours{Hours: hours, IsClosed: len(hours) == 0, Note: note, Override: true}
}

// isoWeekday returns 0 for Monday through 6 for Sunday.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
