package heatmap

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/MeKo-Tech/routeheat/internal/activity"
	"github.com/MeKo-Tech/routeheat/internal/polyline"
	"github.com/MeKo-Tech/routeheat/internal/tile"
)

func encodedLineThroughTile(z, x, y uint32) string {
	x0, y0, x1, y1 := tile.WorldBounds(z, x, y)
	lon0, lat0 := tile.WorldPixelToLonLat(x0+10, y0+10, z)
	lon1, lat1 := tile.WorldPixelToLonLat(x1-10, y1-10, z)
	pts := []polyline.Point{{Lon: lon0, Lat: lat0}, {Lon: lon1, Lat: lat1}}
	return polyline.Encode(pts, polyline.DefaultPrecision)
}

func TestRender_ProducesValidPNG(t *testing.T) {
	z, x, y := uint32(10), uint32(500), uint32(500)
	provider := &activity.MemoryProvider{All: []activity.Activity{
		{
			ID:             "a1",
			Type:           "run",
			EncodedSummary: encodedLineThroughTile(z, x, y),
			Bounds:         tileBounds(z, x, y),
		},
	}}
	r := NewRenderer(provider, nil)

	out, err := r.Render(context.Background(), z, x, y, Options{Palette: Palette{Preset: "orange"}})
	if err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != tile.Size || img.Bounds().Dy() != tile.Size {
		t.Errorf("image size = %v, want %dx%d", img.Bounds(), tile.Size, tile.Size)
	}
}

func TestRender_EmptyTileIsFullyTransparent(t *testing.T) {
	z, x, y := uint32(10), uint32(1), uint32(1)
	provider := &activity.MemoryProvider{}
	r := NewRenderer(provider, nil)

	out, err := r.Render(context.Background(), z, x, y, Options{Palette: Palette{Preset: "orange"}})
	if err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	_, _, _, a := img.At(5, 5).RGBA()
	if a != 0 {
		t.Errorf("empty tile pixel alpha = %d, want 0", a)
	}
}

func TestRender_InvalidTileAddress(t *testing.T) {
	provider := &activity.MemoryProvider{}
	r := NewRenderer(provider, nil)

	_, err := r.Render(context.Background(), 99, 0, 0, Options{Palette: Palette{Preset: "orange"}})
	if err == nil {
		t.Fatal("expected error")
	}
	var herr *Error
	if !errorsAs(err, &herr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if herr.Kind != KindInvalidTileAddress {
		t.Errorf("Kind = %v, want KindInvalidTileAddress", herr.Kind)
	}
}

func TestRender_InvalidGradientPreset(t *testing.T) {
	provider := &activity.MemoryProvider{}
	r := NewRenderer(provider, nil)

	_, err := r.Render(context.Background(), 1, 0, 0, Options{Palette: Palette{Preset: "not-a-real-gradient"}})
	if err == nil {
		t.Fatal("expected error")
	}
	var herr *Error
	if !errorsAs(err, &herr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if herr.Kind != KindInvalidPaletteArgs {
		t.Errorf("Kind = %v, want KindInvalidPaletteArgs", herr.Kind)
	}
}

func TestRender_ActivityTypeFilter(t *testing.T) {
	z, x, y := uint32(10), uint32(500), uint32(500)
	line := encodedLineThroughTile(z, x, y)
	provider := &activity.MemoryProvider{All: []activity.Activity{
		{ID: "run1", Type: "run", EncodedSummary: line, Bounds: tileBounds(z, x, y)},
		{ID: "ride1", Type: "ride", EncodedSummary: line, Bounds: tileBounds(z, x, y)},
	}}
	r := NewRenderer(provider, nil)

	out, err := r.Render(context.Background(), z, x, y, Options{
		Palette: Palette{Preset: "orange"},
		Filter:  Filter{ActivityType: "ride"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("invalid png: %v", err)
	}
}

func TestRender_SplitByActivityType(t *testing.T) {
	z, x, y := uint32(10), uint32(500), uint32(500)
	line := encodedLineThroughTile(z, x, y)
	provider := &activity.MemoryProvider{All: []activity.Activity{
		{ID: "run1", Type: "run", EncodedSummary: line, Bounds: tileBounds(z, x, y)},
		{ID: "run2", Type: "run", EncodedSummary: line, Bounds: tileBounds(z, x, y)},
		{ID: "ride1", Type: "ride", EncodedSummary: line, Bounds: tileBounds(z, x, y)},
	}}
	r := NewRenderer(provider, nil)

	out, err := r.Render(context.Background(), z, x, y, Options{
		Palette: Palette{Preset: "orange"},
		Filter:  Filter{SplitByActivityType: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != tile.Size || img.Bounds().Dy() != tile.Size {
		t.Errorf("image size = %v, want %dx%d", img.Bounds(), tile.Size, tile.Size)
	}
}

// errorsAs is a tiny local wrapper so this file doesn't need an extra import
// line per call site.
func errorsAs(err error, target **Error) bool {
	herr, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = herr
	return true
}
