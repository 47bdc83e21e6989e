package schedule

import (
	"math"
	"testing"

	"salofyi/internal/model"
)

func TestHeatColorScale(t *testing.T) {
	tests := []struct {
		heat float64
		want RGB
	}{
		{-1, RGB{0, 255, 0}},
		{0, RGB{0, 255, 0}},
		{1.5, RGB{128, 255, 0}},
		{3, RGB{255, 255, 0}},
		{6, RGB{255, 128, 0}},
		{9, RGB{255, 0, 0}},
		{42, RGB{255, 0, 0}},
	}
	for _, tt := range tests {
		if got := HeatColor(tt.heat); got != tt.want {
			t.Errorf("HeatColor(%v) = %+v, want %+v", tt.heat, got, tt.want)
		}
	}
}

func TestHeatColorMonotonic(t *testing.T) {
	prev := HeatColor(0)
	for heat := 0.25; heat <= 9; heat += 0.25 {
		c := HeatColor(heat)
		if c.R < prev.R || c.G > prev.G || c.B != 0 {
			t.Fatalf("HeatColor not monotonic at %v: %+v after %+v", heat, c, prev)
		}
		prev = c
	}
}

func TestHeatmapEmptyDay(t *testing.T) {
	opts := testOptions()
	heat := CalculateHeatmap(nil, opts)

	hours := opts.DisplayHours.Hours()
	if len(heat.Colors) != len(hours) || len(heat.Weights) != len(hours) {
		t.Fatalf("got %d colors / %d weights, want %d", len(heat.Colors), len(heat.Weights), len(hours))
	}
	for _, h := range hours {
		if heat.Weights[h] != 0 {
			t.Errorf("hour %d weight = %v", h, heat.Weights[h])
		}
		if heat.Colors[h] != (RGB{0, 255, 0}) {
			t.Errorf("hour %d color = %+v", h, heat.Colors[h])
		}
	}
}

func TestHeatmapPartialHours(t *testing.T) {
	opts := testOptions()
	pools := BuildPools(competitionPool(), opts)
	PlaceEvents([]model.Episode{episode("1", "Rata 2", "Seura", at(10, 30), at(12, 15))}, pools, opts)

	heat := CalculateHeatmap(pools.List(), opts)

	want := map[int]float64{9: 0, 10: 0.5, 11: 1, 12: 0.25, 13: 0}
	for h, w := range want {
		if math.Abs(heat.Weights[h]-w) > 1e-9 {
			t.Errorf("hour %d weight = %v, want %v", h, heat.Weights[h], w)
		}
	}
}

func TestHeatmapWeights(t *testing.T) {
	opts := testOptions()
	parts := []model.RoomPart{
		part("2", "Rata 1", "Hyppyallas"),
		part("2", "Rata 2", "Hyppyallas"),
		part("3", "Terapia-allas", "Terapia-allas"),
		part("4", "Lasten allas", "Lasten allas"),
	}
	pools := BuildPools(parts, opts)
	PlaceEvents([]model.Episode{
		episode("2", "Rata 1", "Hyppy", at(8, 0), at(9, 0)),
		episode("2", "Rata 2", "Hyppy", at(9, 0), at(10, 0)),
		episode("3", "Terapia-allas", "Kuntoutus", at(10, 0), at(11, 0)),
		episode("4", "Lasten allas", "Vauvauinti", at(11, 0), at(12, 0)),
	}, pools, opts)

	heat := CalculateHeatmap(pools.List(), opts)

	want := map[int]float64{
		8:  1.5,  // jump pool lane 1 penalty
		9:  1,    // jump pool lane 2 has no penalty
		10: 2.25, // therapy pool
		11: 0.75, // children's pool
	}
	for h, w := range want {
		if math.Abs(heat.Weights[h]-w) > 1e-9 {
			t.Errorf("hour %d weight = %v, want %v", h, heat.Weights[h], w)
		}
	}
}

func TestHeatmapIgnoresHoursOutsideRange(t *testing.T) {
	opts := testOptions()
	pools := BuildPools(competitionPool(), opts)
	PlaceEvents([]model.Episode{
		episode("1", "Rata 1", "Aamu", at(3, 0), at(5, 30)),
		episode("1", "Rata 1", "Ilta", at(22, 0), at(23, 45)),
	}, pools, opts)

	heat := CalculateHeatmap(pools.List(), opts)

	if len(heat.Weights) != 18 {
		t.Fatalf("key set changed: %d keys", len(heat.Weights))
	}
	if _, ok := heat.Weights[3]; ok {
		t.Error("hour 3 should not be in the heatmap")
	}
	if _, ok := heat.Weights[23]; ok {
		t.Error("hour 23 should not be in the heatmap")
	}
	if math.Abs(heat.Weights[5]-0.5) > 1e-9 {
		t.Errorf("hour 5 weight = %v, want 0.5", heat.Weights[5])
	}
	if heat.Weights[22] != 1 {
		t.Errorf("hour 22 weight = %v, want 1", heat.Weights[22])
	}
}

func TestHeatmapCountsFakes(t *testing.T) {
	opts := testOptions()
	pools := BuildPools(competitionPool(), opts)
	PlaceEvents([]model.Episode{episode("1", "Kilpa-allas", "Kilpailut", at(14, 0), at(15, 0))}, pools, opts)

	heat := CalculateHeatmap(pools.List(), opts)

	// Three blocked lanes plus the whole-pool booking itself.
	if heat.Weights[14] != 4 {
		t.Errorf("hour 14 weight = %v, want 4", heat.Weights[14])
	}
	if heat.Colors[14] != HeatColor(4) {
		t.Errorf("hour 14 color = %+v", heat.Colors[14])
	}
}
