package schedule

import "slices"

// Heatmap is the busyness of every displayed hour.
type Heatmap struct {
	Weights map[int]float64
	Colors  map[int]RGB
}

// CalculateHeatmap sums the weighted lane occupancy of every display hour.
// Partial hours count by the fraction of the hour the booking covers, and
// the configured pool and lane multipliers are applied on top. Hours outside
// the display range are ignored.
func CalculateHeatmap(pools []Pool, opts Options) Heatmap {
	hours := opts.DisplayHours.Hours()
	weights := make(map[int]float64, len(hours))
	for _, h := range hours {
		weights[h] = 0
	}

	for _, pool := range pools {
		for _, event := range pool.Events {
			for _, h := range event.Hours {
				if _, ok := weights[h]; !ok {
					continue
				}
				weights[h] += eventWeight(pool, event, h, opts)
			}
		}
	}

	colors := make(map[int]RGB, len(weights))
	for h, w := range weights {
		colors[h] = HeatColor(w)
	}
	return Heatmap{Weights: weights, Colors: colors}
}

func eventWeight(pool Pool, event PlacedEvent, hour int, opts Options) float64 {
	w := 1.0
	if hour == event.StartHour && event.StartMin > 0 {
		w *= 1 - float64(event.StartMin)/60
	}
	if hour == event.EndHour && event.EndMin > 0 {
		w *= float64(event.EndMin) / 60
	}

	if m, ok := opts.PoolWeights[pool.Letter]; ok {
		w *= m
	}
	for _, rule := range opts.LaneWeights {
		if rule.Pool == pool.Letter && slices.Contains(rule.Lanes, event.Lane) {
			w *= rule.Multiplier
		}
	}
	return w
}
