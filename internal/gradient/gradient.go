// Package gradient builds 256-entry RGBA lookup tables that map an overlap
// count (0-255) to a color, following the same stop-and-interpolate design
// as the reference renderer's LinearGradient.
package gradient

import (
	"fmt"
	"image/color"
)

// Stop is a (count, color) anchor in the gradient. Stops must be given in
// increasing Count order.
type Stop struct {
	Count int
	Color color.NRGBA
}

// Palette is a precomputed 256-entry lookup table from overlap count to
// color. Palette(0) is always fully transparent.
type Palette [256]color.NRGBA

// New builds a Palette by linearly interpolating between consecutive stops
// and holding the last stop's color for every count beyond it.
func New(stops []Stop) Palette {
	var p Palette
	if len(stops) == 0 {
		return p
	}

	for i := 0; i < len(stops)-1; i++ {
		a, b := stops[i], stops[i+1]
		for idx := a.Count; idx <= b.Count && idx < 256; idx++ {
			var t float64
			if b.Count > a.Count {
				t = float64(idx-a.Count) / float64(b.Count-a.Count)
			}
			p[idx] = lerp(a.Color, b.Color, t)
		}
	}

	last := stops[len(stops)-1]
	for idx := last.Count; idx < 256; idx++ {
		p[idx] = last.Color
	}

	return p
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: lerpByte(a.R, b.R, t),
		G: lerpByte(a.G, b.G, t),
		B: lerpByte(a.B, b.B, t),
		A: lerpByte(a.A, b.A, t),
	}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8((1-t)*float64(a) + t*float64(b))
}

// Sample returns the color for the given overlap count, clamping to [0,255].
func (p Palette) Sample(count int) color.NRGBA {
	if count < 0 {
		count = 0
	}
	if count > 255 {
		count = 255
	}
	return p[count]
}

var (
	transparent = color.NRGBA{0, 0, 0, 0}

	// Orange is the default heatmap palette: transparent, dark orange, bright
	// orange by count 10.
	Orange = New([]Stop{
		{0, transparent},
		{1, color.NRGBA{252, 74, 26, 255}},
		{10, color.NRGBA{247, 183, 51, 255}},
	})

	// Pinkish ramps through a semi-transparent light pink into solid white.
	Pinkish = New([]Stop{
		{0, transparent},
		{1, color.NRGBA{255, 177, 255, 127}},
		{10, color.NRGBA{255, 177, 255, 255}},
		{50, color.NRGBA{255, 255, 255, 255}},
	})

	// BlueRed ramps blue to red to white.
	BlueRed = New([]Stop{
		{0, transparent},
		{1, color.NRGBA{63, 94, 251, 255}},
		{10, color.NRGBA{252, 70, 107, 255}},
		{50, color.NRGBA{255, 255, 255, 255}},
	})

	// Red ramps dark red through light yellow to white.
	Red = New([]Stop{
		{0, transparent},
		{1, color.NRGBA{178, 10, 44, 255}},
		{10, color.NRGBA{255, 251, 213, 255}},
		{50, color.NRGBA{255, 255, 255, 255}},
	})
)

// Preset looks up a named built-in palette by its `gradient` query parameter
// name. Unknown names return an error.
func Preset(name string) (Palette, error) {
	switch name {
	case "", "orange":
		return Orange, nil
	case "pinkish":
		return Pinkish, nil
	case "blue_red":
		return BlueRed, nil
	case "red":
		return Red, nil
	default:
		return Palette{}, fmt.Errorf("gradient: unknown preset %q", name)
	}
}

// Custom builds a palette from caller-supplied min/mid/max colors and a
// midpoint count, matching the reference renderer's from_hex_colors shape:
// transparent at 0, minColor at 1, midColor at midpoint, maxColor at 255.
// midpoint is clamped to [1,254].
func Custom(minColor, midColor, maxColor color.NRGBA, midpoint int) Palette {
	if midpoint < 1 {
		midpoint = 1
	}
	if midpoint > 254 {
		midpoint = 254
	}
	return New([]Stop{
		{0, transparent},
		{1, minColor},
		{midpoint, midColor},
		{255, maxColor},
	})
}

// ParseHexColor parses a 6- or 8-digit hex color string (with or without a
// leading '#') into an NRGBA. A 6-digit string is assumed fully opaque.
func ParseHexColor(s string) (color.NRGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	switch len(s) {
	case 6:
		r, g, b, err := parseHexTriple(s)
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 8:
		r, g, b, err := parseHexTriple(s[:6])
		if err != nil {
			return color.NRGBA{}, err
		}
		a, err := parseHexByte(s[6:8])
		if err != nil {
			return color.NRGBA{}, err
		}
		return color.NRGBA{R: r, G: g, B: b, A: a}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("gradient: invalid hex color %q", s)
	}
}

func parseHexTriple(s string) (r, g, b uint8, err error) {
	r, err = parseHexByte(s[0:2])
	if err != nil {
		return 0, 0, 0, err
	}
	g, err = parseHexByte(s[2:4])
	if err != nil {
		return 0, 0, 0, err
	}
	b, err = parseHexByte(s[4:6])
	if err != nil {
		return 0, 0, 0, err
	}
	return r, g, b, nil
}

func parseHexByte(s string) (uint8, error) {
	var v int
	_, err := fmt.Sscanf(s, "%02x", &v)
	if err != nil {
		return 0, fmt.Errorf("gradient: invalid hex byte %q: %w", s, err)
	}
	return uint8(v), nil
}
