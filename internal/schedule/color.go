package schedule

import (
	"fmt"
	"math"
)

const (
	// eventLightness is forced on every booking color; upstream colors vary
	// wildly in contrast. The HLS round-trip runs on raw 0-255 channels, so
	// this is on that scale too.
	eventLightness = 125.0
	borderDarken   = 0.85
	eventAlpha     = 0.7

	maxHeat      = 9.0
	yellowAtHeat = 3.0
)

// RGB is a color with 0-255 channels.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// RGBA is an RGB color with an alpha channel in [0, 1].
type RGBA struct {
	RGB
	A float64 `json:"a"`
}

func (c RGBA) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A)
}

// eventColors returns the fill and border color of a booking.
// The border is darkened from the unrounded fill.
func eventColors(r, g, b int) (fill, border RGBA) {
	h, _, s := rgbToHLS(float64(r), float64(g), float64(b))
	nr, ng, nb := hlsToRGB(h, eventLightness, s)

	h, l, s := rgbToHLS(nr, ng, nb)
	dr, dg, db := hlsToRGB(h, l*borderDarken, s)

	return RGBA{rgb255(nr, ng, nb), eventAlpha}, RGBA{rgb255(dr, dg, db), eventAlpha}
}

// HeatColor maps an accumulated heat weight to a green-yellow-red scale.
func HeatColor(heat float64) RGB {
	heat = math.Max(0, math.Min(maxHeat, heat))
	t := heat / maxHeat
	pivot := yellowAtHeat / maxHeat

	if t <= pivot {
		return RGB{R: channel(t / pivot), G: 255}
	}
	return RGB{R: 255, G: channel(1 - (t-pivot)/(1-pivot))}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func rgb255(r, g, b float64) RGB {
	c := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return RGB{c(r), c(g), c(b)}
}

// rgbToHLS converts channels to hue, lightness and saturation. The channel
// scale is not normalised: lightness comes out on the input scale.
func rgbToHLS(r, g, b float64) (h, l, s float64) {
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	sumc := maxc + minc
	rangec := maxc - minc
	l = sumc / 2
	if rangec == 0 {
		return 0, l, 0
	}
	if l <= 0.5 {
		s = rangec / sumc
	} else {
		s = rangec / (2 - sumc)
	}

	rc := (maxc - r) / rangec
	gc := (maxc - g) / rangec
	bc := (maxc - b) / rangec
	switch maxc {
	case r:
		h = bc - gc
	case g:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	return floorMod(h/6, 1), l, s
}

func hlsToRGB(h, l, s float64) (r, g, b float64) {
	if s == 0 {
		return l, l, l
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return hueChannel(m1, m2, h+1.0/3), hueChannel(m1, m2, h), hueChannel(m1, m2, h-1.0/3)
}

func hueChannel(m1, m2, hue float64) float64 {
	hue = floorMod(hue, 1)
	switch {
	case hue < 1.0/6:
		return m1 + (m2-m1)*hue*6
	case hue < 0.5:
		return m2
	case hue < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-hue)*6
	}
	return m1
}

func floorMod(x, m float64) float64 {
	return x - m*math.Floor(x/m)
}
