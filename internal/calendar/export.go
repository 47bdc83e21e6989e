// Package calendar exports the schedule as iCalendar feeds: one with every
// booking and one with the opening hours of the hall.
package calendar

import (
	"fmt"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"salofyi/internal/fsutil"
	appLog "salofyi/internal/log"
	"salofyi/internal/schedule"
)

const (
	BookingsFile    = "swimmi.ics"
	OpenHoursFile   = "aukiolo.ics"
	productID       = "-//salo.fyi//swimmi//FI"
	localTimeLayout = "20060102T150405"
	utcTimeLayout   = "20060102T150405Z"
	dateLayout      = "2006-01-02"
)

// uidSpace namespaces the name-based UIDs of exported events, so a booking
// keeps its UID across rebuilds.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://salo.fyi/swimmi"))

var rruleDays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Feed describes the calendars to build.
type Feed struct {
	Title    string
	Location *time.Location
	// Week holds the default opening hours, Monday first.
	Week [7]schedule.HourRange
	// Now is the DTSTAMP of every event.
	Now time.Time
}

func (f Feed) loc() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// stamper writes date-times with a TZID when the location has an IANA
// name, and as UTC otherwise.
type stamper struct {
	loc  *time.Location
	tzid string
}

func newStamper(loc *time.Location) stamper {
	name := loc.String()
	if name == "Local" || name == "UTC" {
		return stamper{loc: loc}
	}
	if _, err := time.LoadLocation(name); err != nil {
		return stamper{loc: loc}
	}
	return stamper{loc: loc, tzid: name}
}

func (s stamper) set(e *ical.VEvent, prop ical.ComponentProperty, t time.Time) {
	if s.tzid == "" {
		e.SetProperty(prop, t.UTC().Format(utcTimeLayout))
		return
	}
	e.SetProperty(prop, t.In(s.loc).Format(localTimeLayout), ical.WithTZID(s.tzid))
}

func (s stamper) exdate(e *ical.VEvent, t time.Time) {
	if s.tzid == "" {
		e.AddExdate(t.UTC().Format(utcTimeLayout))
		return
	}
	e.AddExdate(t.In(s.loc).Format(localTimeLayout), ical.WithTZID(s.tzid))
}

func (f Feed) newCalendar(name, desc string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)
	cal.SetXWRCalDesc(desc)
	cal.SetXWRTimezone(f.loc().String())
	return cal
}

func eventUID(parts ...any) string {
	return uuid.NewSHA1(uidSpace, []byte(fmt.Sprint(parts...))).String() + "@salo.fyi"
}

func dayDate(day schedule.RenderData, loc *time.Location) (time.Time, bool) {
	d, err := time.ParseInLocation(dateLayout, day.Date, loc)
	if err != nil {
		appLog.Warn("calendar: skipping day with bad date", "date", day.Date)
		return time.Time{}, false
	}
	return d, true
}

func at(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

// Bookings builds a calendar with one event per booking. Synthesized
// whole-pool and half-pool copies are left out.
func (f Feed) Bookings(days []schedule.RenderData) *ical.Calendar {
	loc := f.loc()
	st := newStamper(loc)
	cal := f.newCalendar(f.Title+" – varaukset", "Ratavaraukset")

	for _, day := range days {
		date, ok := dayDate(day, loc)
		if !ok {
			continue
		}
		for _, pool := range day.Pools {
			for _, e := range pool.Events {
				if e.Fake {
					continue
				}
				start := at(date, e.StartHour, e.StartMin)
				end := at(date, e.EndHour, e.EndMin)
				if end.Before(start) {
					end = start
				}

				lane := e.LaneFull
				if lane == "" {
					lane = e.Lane
				}

				ev := cal.AddEvent(eventUID(day.Date, pool.RoomID, e.Lane, e.StartHour, e.StartMin, e.Info))
				ev.SetDtStampTime(f.Now)
				st.set(ev, ical.ComponentPropertyDtStart, start)
				st.set(ev, ical.ComponentPropertyDtEnd, end)
				ev.SetSummary(e.Info)
				ev.SetLocation(pool.Name + ", " + lane)
				ev.SetDescription(e.HumanTime)
				ev.SetTimeTransparency(ical.TransparencyTransparent)
			}
		}
	}
	return cal
}

// OpenHours builds a calendar of the opening hours over the span of days:
// one weekly recurring event per open weekday, with the override days cut
// out of the recurrence and added as events of their own.
func (f Feed) OpenHours(days []schedule.RenderData) *ical.Calendar {
	loc := f.loc()
	st := newStamper(loc)
	cal := f.newCalendar(f.Title+" – aukiolo", "Aukioloajat")

	var dates []time.Time
	var overrides []schedule.RenderData
	var overrideDates []time.Time
	for _, day := range days {
		d, ok := dayDate(day, loc)
		if !ok {
			continue
		}
		dates = append(dates, d)
		if day.Override {
			overrides = append(overrides, day)
			overrideDates = append(overrideDates, d)
		}
	}
	if len(dates) == 0 {
		return cal
	}

	first, last := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	until := at(last, 23, 59)

	for wd, hours := range f.Week {
		if hours.To <= hours.From {
			continue
		}
		start := first
		for isoWeekday(start) != wd {
			start = start.AddDate(0, 0, 1)
		}
		if start.After(last) {
			continue
		}

		rule := rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: []rrule.Weekday{rruleDays[wd]},
			Until:     until,
		}

		ev := cal.AddEvent(eventUID("open", wd, hours.From, hours.To, first.Format(dateLayout)))
		ev.SetDtStampTime(f.Now)
		st.set(ev, ical.ComponentPropertyDtStart, at(start, hours.From, 0))
		st.set(ev, ical.ComponentPropertyDtEnd, at(start, hours.To, 0))
		ev.SetSummary("Avoinna")
		ev.AddRrule(rule.RRuleString())
		for _, d := range overrideDates {
			if isoWeekday(d) == wd {
				st.exdate(ev, at(d, hours.From, 0))
			}
		}
	}

	for i, day := range overrides {
		d := overrideDates[i]
		ev := cal.AddEvent(eventUID("override", day.Date))
		ev.SetDtStampTime(f.Now)
		ev.SetDescription(day.Note)

		if day.IsClosed || len(day.OpenHours) == 0 {
			ev.SetAllDayStartAt(d)
			ev.SetAllDayEndAt(d.AddDate(0, 0, 1))
			ev.SetSummary("Suljettu")
			continue
		}
		from := day.OpenHours[0]
		to := day.OpenHours[len(day.OpenHours)-1] + 1
		st.set(ev, ical.ComponentPropertyDtStart, at(d, from, 0))
		st.set(ev, ical.ComponentPropertyDtEnd, at(d, to, 0))
		ev.SetSummary("Avoinna (poikkeus)")
	}
	return cal
}

// WriteFeeds writes both calendars into dir.
func (f Feed) WriteFeeds(dir string, days []schedule.RenderData) error {
	feeds := []struct {
		name string
		cal  *ical.Calendar
	}{
		{BookingsFile, f.Bookings(days)},
		{OpenHoursFile, f.OpenHours(days)},
	}
	for _, feed := range feeds {
		path := filepath.Join(dir, feed.name)
		if err := fsutil.WriteFileAtomic(path, []byte(feed.cal.Serialize()), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", feed.name, err)
		}
		appLog.Info("calendar written", "path", path, "events", len(feed.cal.Events()))
	}
	return nil
}

func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
