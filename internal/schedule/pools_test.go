package schedule

import (
	"reflect"
	"testing"
	"time"

	"salofyi/internal/model"
)

var testZone = time.FixedZone("EET", 2*60*60)

func testOptions() Options {
	return Options{
		Location:     testZone,
		PageHeader:   "Salon uimahalli",
		BasePath:     "/",
		DisplayHours: HourRange{From: 5, To: 23},
		WeeklyOpenHours: [7]HourRange{
			{6, 21}, {6, 21}, {12, 20}, {6, 21}, {6, 21}, {11, 18}, {11, 18},
		},
		WholePoolMarkers: Markers{"H", "K"},
		HalfPoolMarkers:  Markers{"M", "S"},
		SingleLanePools:  Markers{"T", "L"},
		IgnorePhrases:    []string{"ei varaus", "suljettu"},
		NameFixes:        map[string]string{"Hyppy-allas": "Hyppyallas"},
		OverrideNote:     "Poikkeusaukiolo",
		PoolWeights:      map[string]float64{"L": 0.75, "T": 2.25},
		LaneWeights:      []LaneWeight{{Pool: "H", Lanes: []string{"1", "3"}, Multiplier: 1.5}},
	}
}

func part(id model.RoomID, partName, roomName string) model.RoomPart {
	return model.RoomPart{RoomID: id, RoomPartName: partName, RoomName: roomName}
}

func TestLaneLetter(t *testing.T) {
	tests := map[string]string{
		"Rata 3":        "3",
		"Rata 10":       "1",
		"Rata H":        "H",
		"Syvä pää":      "S",
		"Matala pää":    "M",
		"Hyppyallas":    "H",
		"Kilpa-allas":   "K",
		"Terapia-allas": "T",
		"Äänekoski":     "Ä",
		"":              "",
	}
	for in, want := range tests {
		if got := LaneLetter(in); got != want {
			t.Errorf("LaneLetter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPoolsSingleLane(t *testing.T) {
	pools := BuildPools([]model.RoomPart{part("1", "Rata 3", "Kilpa-allas")}, testOptions())

	pool, ok := pools.Get("1")
	if !ok {
		t.Fatal("pool 1 missing")
	}
	if pool.Name != "Kilpa-allas" || pool.ShortName != "Kilp." || pool.Letter != "K" {
		t.Errorf("unexpected pool header %+v", pool)
	}
	if !reflect.DeepEqual(pool.Lanes, []string{"3"}) {
		t.Errorf("lanes = %v", pool.Lanes)
	}
}

func TestBuildPoolsHierarchy(t *testing.T) {
	parts := []model.RoomPart{
		part("2", "Hyppyallas", "Hyppy-allas"),
		part("1", "Kilpa-allas", "Kilpa-allas"),
		part("1", "Rata 1", "Kilpa-allas"),
		part("2", "Rata 1", "Hyppy-allas"),
		part("1", "Rata 2", "Kilpa-allas"),
		part("", "Rata 9", "Orphan"),
		part("1", "Rata 2", "Kilpa-allas"),
		part("3", "Terapia-allas", "Terapia-allas"),
	}
	parts[2].AdditionalInfo = "25 m"

	pools := BuildPools(parts, testOptions())
	list := pools.List()

	if len(list) != 3 {
		t.Fatalf("got %d pools, want 3", len(list))
	}

	// First-seen order of addressable parts: the marker parts of pools
	// 2 and 1 do not seed anything.
	wantOrder := []model.RoomID{"1", "2", "3"}
	for i, p := range list {
		if p.RoomID != wantOrder[i] {
			t.Errorf("pool %d = %s, want %s", i, p.RoomID, wantOrder[i])
		}
	}

	if !reflect.DeepEqual(list[0].Lanes, []string{"1", "2", "2"}) {
		t.Errorf("pool 1 lanes = %v (duplicates must be kept)", list[0].Lanes)
	}
	if list[0].Info != "25 m" {
		t.Errorf("pool 1 info = %q", list[0].Info)
	}
	if list[1].Name != "Hyppyallas" || list[1].ShortName != "Hypp." {
		t.Errorf("name fix not applied: %+v", list[1])
	}
	if !reflect.DeepEqual(list[2].Lanes, []string{"T"}) {
		t.Errorf("pool 3 lanes = %v", list[2].Lanes)
	}

	for _, p := range list {
		for _, lane := range p.Lanes {
			if testOptions().WholePoolMarkers.Has(lane) {
				t.Errorf("pool %s contains whole-pool marker lane %q", p.RoomID, lane)
			}
		}
	}
}

func TestBuildPoolsEmpty(t *testing.T) {
	pools := BuildPools(nil, testOptions())
	if pools.Len() != 0 || len(pools.List()) != 0 {
		t.Errorf("expected no pools, got %d", pools.Len())
	}
}
