// Package tile implements the Web Mercator tile addressing scheme: tile
// coordinates, their geographic bounds, and the pixel projection used to map
// decoded polyline points onto a tile's raster grid.
package tile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Size is the canonical tile edge length in pixels.
const Size = 512

// MaxZoom is the highest zoom level this package's tile geometry supports.
const MaxZoom = 22

// Coords identifies one tile in the Web Mercator tile pyramid (z/x/y).
type Coords struct {
	Z uint32 // Zoom level (0-MaxZoom)
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// NewCoords creates a new Coords from zoom, x, y values.
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// ParseCoords parses a tile string like "z13_x4297_y2754" into Coords.
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	return c, nil
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}".
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the file path for this tile.
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// Tile returns the maptile.Tile for this coordinate.
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Bounds returns the geographic bounding box for this tile in WGS84
// (EPSG:4326). Returns [minLon, minLat, maxLon, maxLat].
func (c Coords) Bounds() [4]float64 {
	tile := c.Tile()
	bound := tile.Bound()

	return [4]float64{
		bound.Min.Lon(), // minLon
		bound.Min.Lat(), // minLat
		bound.Max.Lon(), // maxLon
		bound.Max.Lat(), // maxLat
	}
}

// BoundsMercator returns the bounding box in Web Mercator projection
// (EPSG:3857). Returns [minX, minY, maxX, maxY] in meters.
func (c Coords) BoundsMercator() [4]float64 {
	bounds := c.Bounds()
	minLon, minLat := bounds[0], bounds[1]
	maxLon, maxLat := bounds[2], bounds[3]

	minX, minY := lonLatToMercator(minLon, minLat)
	maxX, maxY := lonLatToMercator(maxLon, maxLat)

	return [4]float64{minX, minY, maxX, maxY}
}

// Center returns the center point of the tile in WGS84 (lon, lat).
func (c Coords) Center() (float64, float64) {
	bounds := c.Bounds()
	lon := (bounds[0] + bounds[2]) / 2.0
	lat := (bounds[1] + bounds[3]) / 2.0
	return lon, lat
}

// CenterMercator returns the center point in Web Mercator (x, y) in meters.
func (c Coords) CenterMercator() (float64, float64) {
	lon, lat := c.Center()
	return lonLatToMercator(lon, lat)
}

// WorldPixelBounds returns this tile's bounds in world-pixel space at its own
// zoom level: (x0, y0, x1, y1), where x1-x0 == y1-y0 == Size. This is the
// rectangle the renderer subtracts from a projected point to get tile-local
// pixel coordinates.
func (c Coords) WorldPixelBounds() (x0, y0, x1, y1 float64) {
	return WorldBounds(c.Z, c.X, c.Y)
}

// Valid reports whether c is a legal tile address: 0 <= Z <= MaxZoom and
// 0 <= X,Y < 2^Z.
func (c Coords) Valid() bool {
	return Valid(c.Z, c.X, c.Y)
}

// Validate returns ErrInvalidTileAddress if c is out of range.
func (c Coords) Validate() error {
	return Validate(c.Z, c.X, c.Y)
}

// lonLatToMercator converts WGS84 coordinates to Web Mercator (EPSG:3857).
func lonLatToMercator(lon, lat float64) (float64, float64) {
	const earthRadius = 6378137.0 // meters

	x := earthRadius * lon * math.Pi / 180.0

	latRad := lat * math.Pi / 180.0
	y := earthRadius * math.Log(math.Tan(math.Pi/4.0+latRad/2.0))

	return x, y
}

// mercatorToLonLat converts Web Mercator (EPSG:3857) to WGS84.
func mercatorToLonLat(x, y float64) (float64, float64) {
	const earthRadius = 6378137.0

	lon := (x / earthRadius) * 180.0 / math.Pi
	lat := (math.Atan(math.Exp(y/earthRadius)) - math.Pi/4.0) * 2.0 * 180.0 / math.Pi

	return lon, lat
}

// Valid reports whether (z,x,y) is a legal tile address: 0 <= z <= MaxZoom
// and 0 <= x,y < 2^z.
func Valid(z, x, y uint32) bool {
	if z > MaxZoom {
		return false
	}
	n := uint32(1) << z
	return x < n && y < n
}

// LonLatToWorldPixel projects a geodetic point to world-pixel coordinates at
// zoom z using spherical Web Mercator:
//
//	px = (lon+180)/360 * 2^z * T
//	py = (1 - ln(tan(phi) + sec(phi))/pi) / 2 * 2^z * T
//
// Valid only for |lat| < ~85.0511 degrees (the Web Mercator limit).
func LonLatToWorldPixel(lon, lat float64, z uint32) (px, py float64) {
	n := math.Pow(2, float64(z)) * Size
	phi := lat * math.Pi / 180.0

	px = (lon + 180.0) / 360.0 * n
	py = (1.0 - math.Log(math.Tan(phi)+1.0/math.Cos(phi))/math.Pi) / 2.0 * n
	return px, py
}

// WorldPixelToLonLat inverts LonLatToWorldPixel.
func WorldPixelToLonLat(px, py float64, z uint32) (lon, lat float64) {
	n := math.Pow(2, float64(z)) * Size

	lon = px/n*360.0 - 180.0
	yFrac := 1.0 - 2.0*py/n
	lat = 180.0 / math.Pi * math.Atan(math.Sinh(yFrac*math.Pi))
	return lon, lat
}

// WorldBounds returns the world-pixel bounds (x0,y0,x1,y1) of tile (z,x,y) at
// the canonical tile size.
func WorldBounds(z, x, y uint32) (x0, y0, x1, y1 float64) {
	x0 = float64(x) * Size
	y0 = float64(y) * Size
	return x0, y0, x0 + Size, y0 + Size
}

// RoundHalfAwayFromZero rounds half away from zero, so that a world point
// sitting exactly on a pixel boundary maps to the same local pixel on both
// neighboring tiles.
func RoundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v + 0.5)
	}
	return math.Floor(v + 0.5)
}

// ErrInvalidTileAddress is returned by Validate for an out-of-range z/x/y.
type ErrInvalidTileAddress struct {
	Z, X, Y uint32
}

func (e *ErrInvalidTileAddress) Error() string {
	return fmt.Sprintf("invalid tile address z=%d x=%d y=%d", e.Z, e.X, e.Y)
}

// Validate returns ErrInvalidTileAddress if (z,x,y) is out of range.
func Validate(z, x, y uint32) error {
	if !Valid(z, x, y) {
		return &ErrInvalidTileAddress{Z: z, X: x, Y: y}
	}
	return nil
}

// TileRange represents a range of tiles to render.
type TileRange struct {
	MinZ, MaxZ uint32 // Zoom range
	MinX, MaxX uint32 // X range
	MinY, MaxY uint32 // Y range
}

// ForEach calls the given function for each tile in the range.
func (r TileRange) ForEach(fn func(Coords)) {
	for z := r.MinZ; z <= r.MaxZ; z++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			for y := r.MinY; y <= r.MaxY; y++ {
				fn(NewCoords(z, x, y))
			}
		}
	}
}

// Count returns the total number of tiles in this range.
func (r TileRange) Count() int {
	count := 0
	for z := r.MinZ; z <= r.MaxZ; z++ {
		xCount := r.MaxX - r.MinX + 1
		yCount := r.MaxY - r.MinY + 1
		count += int(xCount * yCount)
	}
	return count
}

// TileRangeFromBounds creates a TileRange covering a geographic bounding box.
// bounds: [minLon, minLat, maxLon, maxLat] in WGS84.
// NOTE: deprecated for multi-zoom ranges — it computes X/Y only at minZ and
// applies it to all zoom levels. Use TilesInBBox instead.
func TileRangeFromBounds(minZ, maxZ uint32, bounds [4]float64) TileRange {
	minLon, minLat, maxLon, maxLat := bounds[0], bounds[1], bounds[2], bounds[3]

	minPoint := orb.Point{minLon, minLat}
	maxPoint := orb.Point{maxLon, maxLat}

	minTile := maptile.At(minPoint, maptile.Zoom(minZ))
	maxTile := maptile.At(maxPoint, maptile.Zoom(minZ))

	minX, maxX := minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}

	minY, maxY := minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	return TileRange{
		MinZ: minZ,
		MaxZ: maxZ,
		MinX: minX,
		MaxX: maxX,
		MinY: minY,
		MaxY: maxY,
	}
}

// TilesInBBox returns all tile coordinates within a bounding box across a
// zoom range. bbox: [minLon, minLat, maxLon, maxLat] in WGS84. Tile
// coordinates are computed at each zoom level independently.
func TilesInBBox(bbox [4]float64, zoomMin, zoomMax int) []Coords {
	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]

	estimatedCount := TileCount(bbox, zoomMin, zoomMax)
	tiles := make([]Coords, 0, estimatedCount)

	minPoint := orb.Point{minLon, minLat}
	maxPoint := orb.Point{maxLon, maxLat}

	for z := zoomMin; z <= zoomMax; z++ {
		zoom := maptile.Zoom(z)

		minTile := maptile.At(minPoint, zoom)
		maxTile := maptile.At(maxPoint, zoom)

		minX, maxX := minTile.X, maxTile.X
		if minX > maxX {
			minX, maxX = maxX, minX
		}

		minY, maxY := minTile.Y, maxTile.Y
		if minY > maxY {
			minY, maxY = maxY, minY
		}

		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				tiles = append(tiles, NewCoords(uint32(z), x, y))
			}
		}
	}

	return tiles
}

// TileCount returns the number of tiles in a bounding box across a zoom
// range, useful for progress estimation without allocating the full tile
// list.
func TileCount(bbox [4]float64, zoomMin, zoomMax int) int {
	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]
	minPoint := orb.Point{minLon, minLat}
	maxPoint := orb.Point{maxLon, maxLat}

	count := 0
	for z := zoomMin; z <= zoomMax; z++ {
		zoom := maptile.Zoom(z)

		minTile := maptile.At(minPoint, zoom)
		maxTile := maptile.At(maxPoint, zoom)

		minX, maxX := minTile.X, maxTile.X
		if minX > maxX {
			minX, maxX = maxX, minX
		}

		minY, maxY := minTile.Y, maxTile.Y
		if minY > maxY {
			minY, maxY = maxY, minY
		}

		xCount := int(maxX - minX + 1)
		yCount := int(maxY - minY + 1)
		count += xCount * yCount
	}

	return count
}
