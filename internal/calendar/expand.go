package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "salofyi/internal/log"
)

const maxOccurrencesPerEvent = 5000

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// Expand returns the occurrences of events that overlap [from, to],
// recurring events expanded through their RRULE minus EXDATEs, sorted by
// start and converted to loc.
func Expand(events []Event, from, to time.Time, loc *time.Location) ([]Occurrence, error) {
	if to.Before(from) {
		return nil, errors.New("expand: range end is before range start")
	}
	if loc == nil {
		loc = time.Local
	}

	var out []Occurrence
	for _, ev := range events {
		if ev.RRule == "" {
			if overlaps(ev.Start, ev.End, from, to) {
				out = append(out, occurrence(ev, ev.Start, ev.End, loc))
			}
			continue
		}

		r, err := rrule.StrToRRule(ev.RRule)
		if err != nil {
			appLog.Error("expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
			continue
		}
		r.DTStart(ev.Start)

		var set rrule.Set
		set.RRule(r)
		for _, ex := range ev.ExDates {
			set.ExDate(ex.In(ev.Start.Location()))
		}

		dur := ev.End.Sub(ev.Start)
		starts := set.Between(from.In(ev.Start.Location()), to.In(ev.Start.Location()), true)
		if len(starts) > maxOccurrencesPerEvent {
			appLog.Warn("expand: occurrences truncated", "uid", ev.UID, "cap", maxOccurrencesPerEvent)
			starts = starts[:maxOccurrencesPerEvent]
		}
		for _, s := range starts {
			out = append(out, occurrence(ev, s, s.Add(dur), loc))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func occurrence(ev Event, start, end time.Time, loc *time.Location) Occurrence {
	if ev.AllDay {
		// DATE values carry no zone; keep the calendar day.
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	}
	return Occurrence{
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start.In(loc),
		End:         end.In(loc),
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
