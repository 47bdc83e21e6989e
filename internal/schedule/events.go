package schedule

import (
	"slices"
	"sort"
	"strings"
	"time"

	"salofyi/internal/model"
)

// PlacedEvent is a booking attached to one lane of a pool.
type PlacedEvent struct {
	UsageRestriction bool   `json:"usage_restriction"`
	Info             string `json:"info"`
	Lane             string `json:"lane"`
	// LaneFull is the upstream room part name; empty for single-lane pools.
	LaneFull string `json:"lane_full"`

	StartHour int `json:"start_hour"`
	StartMin  int `json:"start_min"`
	EndHour   int `json:"end_hour"`
	EndMin    int `json:"end_min"`
	// Hours lists every hour the booking touches, ascending.
	Hours []int `json:"hours"`

	Color       RGBA   `json:"color"`
	BorderColor RGBA   `json:"border_color"`
	HumanTime   string `json:"human_time"`

	// Fake marks copies synthesized from whole-pool and half-pool bookings.
	Fake bool `json:"fake"`
}

// onLane returns a synthesized copy of e placed on lane.
func (e PlacedEvent) onLane(lane string) PlacedEvent {
	fake := e
	fake.Lane = lane
	fake.Fake = true
	fake.Hours = slices.Clone(e.Hours)
	return fake
}

// EncompassingHours returns the start hour, every hour up to the end hour,
// and the end hour itself when the booking ends past its full hour.
func EncompassingHours(startHour, endHour, endMin int) []int {
	hours := []int{startHour}
	for h := startHour; h < endHour; h++ {
		hours = append(hours, h)
	}
	if endMin != 0 {
		hours = append(hours, endHour)
	}
	slices.Sort(hours)
	return slices.Compact(hours)
}

// FilterEpisodes drops episodes without a name and the hall's own
// "no booking" / "closed" entries.
func FilterEpisodes(episodes []model.Episode, opts Options) []model.Episode {
	out := make([]model.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if len(ep.EventTextField) == 0 {
			continue
		}
		name := strings.ToLower(ep.Name())
		ignored := false
		for _, phrase := range opts.IgnorePhrases {
			if phrase != "" && strings.Contains(name, strings.ToLower(phrase)) {
				ignored = true
				break
			}
		}
		if !ignored {
			out = append(out, ep)
		}
	}
	return out
}

// SortEpisodes orders episodes by start timestamp, then by lane letter.
func SortEpisodes(episodes []model.Episode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i], episodes[j]
		if a.StartTime.Time != b.StartTime.Time {
			return a.StartTime.Time < b.StartTime.Time
		}
		return LaneLetter(a.RoomPartName) < LaneLetter(b.RoomPartName)
	})
}

// PlaceEvents attaches the day's episodes to their pools. Episodes of
// unknown rooms are dropped. Whole-pool and half-pool bookings are also
// copied onto the lanes they block; the copies precede the original.
func PlaceEvents(episodes []model.Episode, pools *Pools, opts Options) {
	sorted := FilterEpisodes(episodes, opts)
	SortEpisodes(sorted)

	loc := opts.location()
	for _, ep := range sorted {
		pool, ok := pools.Get(ep.RoomID)
		if !ok {
			continue
		}

		event := newPlacedEvent(ep, opts, loc)

		switch {
		case opts.WholePoolMarkers.Has(event.Lane):
			for _, lane := range pool.Lanes {
				pool.Events = append(pool.Events, event.onLane(lane))
			}
		case opts.HalfPoolMarkers.Has(event.Lane):
			for _, lane := range pool.Lanes {
				if !opts.HalfPoolMarkers.Has(lane) {
					pool.Events = append(pool.Events, event.onLane(lane))
				}
			}
		}

		pool.Events = append(pool.Events, event)
	}
}

func newPlacedEvent(ep model.Episode, opts Options, loc *time.Location) PlacedEvent {
	lane := LaneLetter(ep.RoomPartName)

	laneFull := ep.RoomPartName
	if opts.SingleLanePools.Has(lane) {
		laneFull = ""
	}

	fill, border := eventColors(ep.EventColorRed, ep.EventColorGreen, ep.EventColorBlue)

	return PlacedEvent{
		UsageRestriction: bool(ep.UsageRestrictionID),
		Info:             ep.Name(),
		Lane:             lane,
		LaneFull:         laneFull,
		StartHour:        ep.StartTime.Hours,
		StartMin:         ep.StartTime.Minutes,
		EndHour:          ep.EndTime.Hours,
		EndMin:           ep.EndTime.Minutes,
		Hours:            EncompassingHours(ep.StartTime.Hours, ep.EndTime.Hours, ep.EndTime.Minutes),
		Color:            fill,
		BorderColor:      border,
		HumanTime:        hhmm(ep.StartTime.Time, loc) + " - " + hhmm(ep.EndTime.Time, loc),
	}
}

func hhmm(epochMillis int64, loc *time.Location) string {
	return time.UnixMilli(epochMillis).In(loc).Format("15:04")
}
