package schedule

import (
	"strings"

	"salofyi/internal/model"
)

// Pool is one basin with its lanes and the bookings placed on them.
type Pool struct {
	RoomID    model.RoomID `json:"room_id"`
	Name      string       `json:"name"`
	ShortName string       `json:"short_name"`
	Letter    string       `json:"letter"`
	Info      string       `json:"info"`
	// Lanes keeps one entry per room part occurrence, duplicates included;
	// its length is the pool's lane capacity.
	Lanes  []string      `json:"lanes"`
	Events []PlacedEvent `json:"events"`
}

// Pools is an ordered map of pools keyed by room id, in first-seen order.
type Pools struct {
	order []model.RoomID
	byID  map[model.RoomID]*Pool
}

func newPools() *Pools {
	return &Pools{byID: make(map[model.RoomID]*Pool)}
}

func (p *Pools) Get(id model.RoomID) (*Pool, bool) {
	pool, ok := p.byID[id]
	return pool, ok
}

func (p *Pools) Len() int {
	return len(p.order)
}

// List returns the pools in first-seen order.
func (p *Pools) List() []Pool {
	out := make([]Pool, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.byID[id])
	}
	return out
}

// LaneLetter derives the single-letter lane code from a room part name:
// "Rata 3" is "3", "Syvä pää" is "S", "Hyppyallas" is "H".
func LaneLetter(roomPartName string) string {
	name := strings.ReplaceAll(roomPartName, "Rata ", "")
	name = strings.ReplaceAll(name, "pää", "")
	return firstRunes(name, 1)
}

// BuildPools reconstructs the pool → lanes hierarchy from flat room parts.
// Parts without a room id and whole-pool marker parts are skipped.
func BuildPools(parts []model.RoomPart, opts Options) *Pools {
	pools := newPools()

	type lane struct {
		id     model.RoomID
		letter string
	}
	lanes := make([]lane, 0, len(parts))

	// First pass: seed every pool from its first addressable room part.
	for _, part := range parts {
		if part.RoomID == "" {
			continue
		}
		letter := LaneLetter(part.RoomPartName)
		if opts.WholePoolMarkers.Has(letter) {
			continue
		}
		lanes = append(lanes, lane{part.RoomID, letter})

		if _, ok := pools.byID[part.RoomID]; ok {
			continue
		}
		name := part.RoomName
		if fixed, ok := opts.NameFixes[name]; ok {
			name = fixed
		}
		pools.order = append(pools.order, part.RoomID)
		pools.byID[part.RoomID] = &Pool{
			RoomID:    part.RoomID,
			Name:      name,
			ShortName: firstRunes(name, 4) + ".",
			Letter:    firstRunes(name, 1),
			Info:      part.AdditionalInfo,
			Lanes:     []string{},
			Events:    []PlacedEvent{},
		}
	}

	// Second pass: every occurrence adds a lane.
	for _, l := range lanes {
		pool := pools.byID[l.id]
		pool.Lanes = append(pool.Lanes, l.letter)
	}

	return pools
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
