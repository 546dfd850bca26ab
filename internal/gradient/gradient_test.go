package gradient

import (
	"image/color"
	"testing"
)

func TestPalette_ZeroIsTransparent(t *testing.T) {
	// palette(0).a == 0 for every palette, preset or custom.
	presets := []Palette{Orange, Pinkish, BlueRed, Red}
	for i, p := range presets {
		if got := p.Sample(0); got.A != 0 {
			t.Errorf("preset %d: Sample(0).A = %d, want 0", i, got.A)
		}
	}

	custom := Custom(
		color.NRGBA{255, 0, 0, 255},
		color.NRGBA{0, 255, 0, 255},
		color.NRGBA{0, 0, 255, 255},
		10,
	)
	if got := custom.Sample(0); got.A != 0 {
		t.Errorf("custom: Sample(0).A = %d, want 0", got.A)
	}
}

func TestPreset_Orange(t *testing.T) {
	p, err := Preset("orange")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Sample(1); got != (color.NRGBA{252, 74, 26, 255}) {
		t.Errorf("Sample(1) = %v", got)
	}
	if got := p.Sample(10); got != (color.NRGBA{247, 183, 51, 255}) {
		t.Errorf("Sample(10) = %v", got)
	}
	// Beyond the last stop, the color holds.
	if got := p.Sample(200); got != (color.NRGBA{247, 183, 51, 255}) {
		t.Errorf("Sample(200) = %v, want held last-stop color", got)
	}
}

func TestPreset_Default(t *testing.T) {
	p, err := Preset("")
	if err != nil {
		t.Fatal(err)
	}
	if p != Orange {
		t.Error("empty preset name should default to Orange")
	}
}

func TestPreset_Unknown(t *testing.T) {
	if _, err := Preset("not-a-gradient"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestSample_Clamps(t *testing.T) {
	p := Orange
	if p.Sample(-5) != p.Sample(0) {
		t.Error("Sample(-5) should clamp to Sample(0)")
	}
	if p.Sample(9999) != p.Sample(255) {
		t.Error("Sample(9999) should clamp to Sample(255)")
	}
}

func TestCustom_MidpointClamped(t *testing.T) {
	min := color.NRGBA{10, 10, 10, 255}
	mid := color.NRGBA{20, 20, 20, 255}
	max := color.NRGBA{30, 30, 30, 255}

	p := Custom(min, mid, max, 0) // below range, clamps to 1
	if p.Sample(1) != mid {
		t.Errorf("midpoint clamp: Sample(1) = %v, want mid %v", p.Sample(1), mid)
	}

	p2 := Custom(min, mid, max, 1000) // above range, clamps to 254
	if p2.Sample(254) != mid {
		t.Errorf("midpoint clamp: Sample(254) = %v, want mid %v", p2.Sample(254), mid)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ff0000", color.NRGBA{255, 0, 0, 255}},
		{"00ff00", color.NRGBA{0, 255, 0, 255}},
		{"#0000ff80", color.NRGBA{0, 0, 255, 128}},
	}
	for _, c := range cases {
		got, err := ParseHexColor(c.in)
		if err != nil {
			t.Fatalf("ParseHexColor(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseHexColor_Invalid(t *testing.T) {
	if _, err := ParseHexColor("xyz"); err == nil {
		t.Fatal("expected error for invalid hex color")
	}
	if _, err := ParseHexColor("zzzzzz"); err == nil {
		t.Fatal("expected error for non-hex digits")
	}
}

func TestInterpolation_Monotonic(t *testing.T) {
	p, _ := Preset("blue_red")
	// Between stop 1 and stop 10, red channel should move monotonically
	// from 63 toward 252.
	prev := p.Sample(1).R
	for i := 2; i <= 10; i++ {
		cur := p.Sample(i).R
		if cur < prev {
			t.Errorf("interpolated R not monotonic at %d: %d < %d", i, cur, prev)
		}
		prev = cur
	}
}
