// Package heatmap orchestrates the full render path for a single tile:
// fetching relevant activities, decoding their polylines, projecting and
// clipping them onto the tile, rasterizing overlap counts, applying a color
// gradient, and encoding the result as a PNG.
package heatmap

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"log/slog"

	"github.com/MeKo-Tech/routeheat/internal/activity"
	"github.com/MeKo-Tech/routeheat/internal/clip"
	"github.com/MeKo-Tech/routeheat/internal/composite"
	"github.com/MeKo-Tech/routeheat/internal/gradient"
	"github.com/MeKo-Tech/routeheat/internal/polyline"
	"github.com/MeKo-Tech/routeheat/internal/raster"
	"github.com/MeKo-Tech/routeheat/internal/tile"
	"github.com/MeKo-Tech/routeheat/internal/types"
)

// clipMarginPx is the number of pixels the per-tile clip rectangle is
// expanded by on every side. A line whose endpoints both lie just outside
// the tile can still cross through it; expanding the clip box by one pixel
// of slack avoids an off-by-one gap at the very edge of the tile where a
// segment grazes the boundary.
const clipMarginPx = 1.0

// boundsPrefilterFraction inflates a tile's geographic bounds before
// querying the activity provider, so activities that dip outside the tile
// but still draw a visible segment near its edge are not filtered out too
// early.
const boundsPrefilterFraction = 0.1

// Filter narrows which activities are drawn into the tile.
type Filter struct {
	ActivityType string
	StartDate    string // RFC3339 date, empty means unbounded
	EndDate      string

	// SplitByActivityType renders one overlap grid per distinct activity
	// type seen in the prefiltered set and alpha-composites the colorized
	// layers together, instead of combining every activity into one grid.
	// ActivityType is ignored when this is set.
	SplitByActivityType bool
}

// Palette selects a gradient either by preset name or by explicit custom
// stops.
type Palette struct {
	Preset   string
	Custom   bool
	MinColor string
	MidColor string
	MaxColor string
	Midpoint int
}

// Options configures a single Render call.
type Options struct {
	Palette Palette
	Filter  Filter
}

// Renderer wires an activity Provider to the rasterization pipeline.
type Renderer struct {
	provider activity.Provider
	logger   *slog.Logger
}

// NewRenderer constructs a Renderer over the given activity Provider.
func NewRenderer(provider activity.Provider, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{provider: provider, logger: logger}
}

// Render produces the PNG bytes for tile (z,x,y) under opts.
func (r *Renderer) Render(ctx context.Context, z, x, y uint32, opts Options) ([]byte, error) {
	if err := tile.Validate(z, x, y); err != nil {
		return nil, newError(KindInvalidTileAddress, "invalid tile address", err)
	}

	palette, err := resolvePalette(opts.Palette)
	if err != nil {
		return nil, err
	}

	filter, err := r.buildFilter(z, x, y, opts.Filter)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("fetching activities", "z", z, "x", x, "y", y)
	activities, err := r.provider.Activities(ctx, filter)
	if err != nil {
		return nil, newError(KindProviderUnavailable, "activity provider query failed", err)
	}

	var img *image.NRGBA
	if opts.Filter.SplitByActivityType {
		img, err = r.renderSplitByType(ctx, z, x, y, activities, palette)
	} else {
		img, err = r.renderCombined(ctx, z, x, y, activities, palette)
	}
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, newError(KindEncodeFailure, "png encode failed", err)
	}

	return buf.Bytes(), nil
}

// renderCombined draws every activity into a single overlap grid.
func (r *Renderer) renderCombined(ctx context.Context, z, x, y uint32, activities []activity.Activity, palette gradient.Palette) (*image.NRGBA, error) {
	grid := raster.NewGrid(tile.Size)
	if err := r.drawInto(ctx, grid, activities, z, x, y); err != nil {
		return nil, err
	}
	return paint(grid, palette), nil
}

// renderSplitByType draws each distinct activity type into its own overlap
// grid, colorizes each with palette independently, then alpha-composites
// the layers bottom-to-top in a stable type order.
func (r *Renderer) renderSplitByType(ctx context.Context, z, x, y uint32, activities []activity.Activity, palette gradient.Palette) (*image.NRGBA, error) {
	byType := make(map[string][]activity.Activity)
	for _, act := range activities {
		byType[act.Type] = append(byType[act.Type], act)
	}

	layers := make(map[string]image.Image, len(byType))
	for actType, acts := range byType {
		grid := raster.NewGrid(tile.Size)
		if err := r.drawInto(ctx, grid, acts, z, x, y); err != nil {
			return nil, err
		}
		layers[actType] = paint(grid, palette)
	}

	composited, err := composite.Layers(layers, nil, tile.Size)
	if err != nil {
		return nil, newError(KindAllocFailure, "failed to composite per-type layers", err)
	}
	return composited, nil
}

// drawInto decodes and rasterizes every activity's polyline into grid.
func (r *Renderer) drawInto(ctx context.Context, grid *raster.Grid, activities []activity.Activity, z, x, y uint32) error {
	x0, y0, _, _ := tile.WorldBounds(z, x, y)
	rect := clip.Rect{
		X0: -clipMarginPx,
		Y0: -clipMarginPx,
		X1: tile.Size - 1 + clipMarginPx,
		Y1: tile.Size - 1 + clipMarginPx,
	}

	for _, act := range activities {
		if err := ctx.Err(); err != nil {
			return newError(KindRenderTimeout, "render canceled while drawing activities", err)
		}

		points, err := polyline.Decode(act.EncodedSummary)
		if err != nil {
			r.logger.Warn("skipping activity with malformed polyline", "activity", act.ID, "error", err)
			continue
		}

		drawActivity(grid, points, z, x0, y0, rect)
	}

	return nil
}

// drawActivity projects and clips one activity's decoded points into
// tile-local pixel space and rasterizes every segment between consecutive
// source indices.
func drawActivity(grid *raster.Grid, points []polyline.Point, z uint32, x0, y0 float64, rect clip.Rect) {
	for i := 1; i < len(points); i++ {
		p0, p1 := points[i-1], points[i]
		if p1.Index-p0.Index != 1 {
			continue
		}

		wx0, wy0 := tile.LonLatToWorldPixel(p0.Lon, p0.Lat, z)
		wx1, wy1 := tile.LonLatToWorldPixel(p1.Lon, p1.Lat, z)

		local0 := clip.Point{X: wx0 - x0, Y: wy0 - y0}
		local1 := clip.Point{X: wx1 - x0, Y: wy1 - y0}

		q0, q1, ok := clip.Segment(local0, local1, rect)
		if !ok {
			continue
		}

		grid.DrawSegment(
			raster.Point{X: q0.X, Y: q0.Y, Index: p0.Index},
			raster.Point{X: q1.X, Y: q1.Y, Index: p1.Index},
		)
	}
}

func paint(grid *raster.Grid, palette gradient.Palette) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, grid.Size, grid.Size))
	for py := 0; py < grid.Size; py++ {
		for px := 0; px < grid.Size; px++ {
			c := palette.Sample(int(grid.At(px, py)))
			img.SetNRGBA(px, py, c)
		}
	}
	return img
}

func resolvePalette(p Palette) (gradient.Palette, error) {
	if p.Custom {
		minC, err := gradient.ParseHexColor(p.MinColor)
		if err != nil {
			return gradient.Palette{}, newError(KindInvalidPaletteArgs, "invalid min_color", err)
		}
		midC, err := gradient.ParseHexColor(p.MidColor)
		if err != nil {
			return gradient.Palette{}, newError(KindInvalidPaletteArgs, "invalid mid_color", err)
		}
		maxC, err := gradient.ParseHexColor(p.MaxColor)
		if err != nil {
			return gradient.Palette{}, newError(KindInvalidPaletteArgs, "invalid max_color", err)
		}
		return gradient.Custom(minC, midC, maxC, p.Midpoint), nil
	}

	preset, err := gradient.Preset(p.Preset)
	if err != nil {
		return gradient.Palette{}, newError(KindInvalidPaletteArgs, "invalid gradient preset", err)
	}
	return preset, nil
}

func (r *Renderer) buildFilter(z, x, y uint32, f Filter) (activity.Filter, error) {
	bounds := tileBounds(z, x, y).ExpandByFraction(boundsPrefilterFraction)

	filter := activity.Filter{
		Bounds: bounds,
		Type:   f.ActivityType,
	}

	if f.StartDate != "" {
		t, err := parseDate(f.StartDate)
		if err != nil {
			return activity.Filter{}, newError(KindInvalidPaletteArgs, "invalid start_date", err)
		}
		filter.StartDate = t
	}
	if f.EndDate != "" {
		t, err := parseDate(f.EndDate)
		if err != nil {
			return activity.Filter{}, newError(KindInvalidPaletteArgs, "invalid end_date", err)
		}
		filter.EndDate = t
	}

	return filter, nil
}

func tileBounds(z, x, y uint32) types.BoundingBox {
	c := tile.NewCoords(z, x, y)
	b := c.Bounds()
	return types.BoundingBox{MinLon: b[0], MinLat: b[1], MaxLon: b[2], MaxLat: b[3]}
}
