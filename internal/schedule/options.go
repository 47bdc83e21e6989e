// Package schedule turns one day of raw Timmi booking records into the
// per-pool, per-lane structure the swimming hall page is rendered from.
//
// The transform is pure: all facility specifics (marker letters, weights,
// hours) come in through Options and the wall clock is passed in by the
// caller, so a batch of days is rendered against one consistent "now".
package schedule

import (
	"slices"
	"time"
)

// HourRange is a [From, To) range of hours of the day.
type HourRange struct {
	From int
	To   int
}

// Hours lists every hour in the range; empty when To <= From.
func (r HourRange) Hours() []int {
	if r.To <= r.From {
		return []int{}
	}
	out := make([]int, 0, r.To-r.From)
	for h := r.From; h < r.To; h++ {
		out = append(out, h)
	}
	return out
}

// Markers is a set of single-letter lane codes.
type Markers []string

func (m Markers) Has(letter string) bool {
	return slices.Contains(m, letter)
}

// LaneWeight scales the heat contributed by some lanes of one pool.
type LaneWeight struct {
	// Pool is the pool letter (first letter of the pool name).
	Pool       string
	Lanes      []string
	Multiplier float64
}

// Options carries the configuration of one swimming hall.
type Options struct {
	// Location is the zone Timmi timestamps and dates are interpreted in.
	Location *time.Location

	PageHeader string
	// BasePath is the URL of the today page; other days live at BasePath+date.
	BasePath string

	DisplayHours HourRange
	// WeeklyOpenHours is indexed by ISO weekday, Monday first.
	WeeklyOpenHours [7]HourRange

	WholePoolMarkers Markers
	HalfPoolMarkers  Markers
	SingleLanePools  Markers

	// IgnorePhrases drop episodes whose lowercase name contains any of them.
	IgnorePhrases []string
	// NameFixes maps broken upstream pool names to their proper spelling.
	NameFixes map[string]string
	// OverrideNote is shown when an override row has no note of its own.
	OverrideNote string

	// PoolWeights multiplies heat by pool letter.
	PoolWeights map[string]float64
	LaneWeights []LaneWeight
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) basePath() string {
	if o.BasePath == "" {
		return "/"
	}
	return o.BasePath
}
