// Package raster draws clipped polyline segments onto a per-tile overlap-count
// grid using integer Bresenham stepping, the way the original renderer's
// bresenham_line/add_polyline pair does it.
package raster

import "math"

// Grid is a Size x Size grid of saturating overlap counts, one per pixel.
// A count of 255 never rolls over; it simply stops incrementing.
type Grid struct {
	Size   int
	counts []uint8
}

// NewGrid allocates a zeroed grid of size x size pixels.
func NewGrid(size int) *Grid {
	return &Grid{Size: size, counts: make([]uint8, size*size)}
}

// At returns the overlap count at (x,y). Out-of-range coordinates return 0.
func (g *Grid) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= g.Size || y >= g.Size {
		return 0
	}
	return g.counts[y*g.Size+x]
}

func (g *Grid) increment(x, y int) {
	if x < 0 || y < 0 || x >= g.Size || y >= g.Size {
		return
	}
	i := y*g.Size + x
	if g.counts[i] < math.MaxUint8 {
		g.counts[i]++
	}
}

// Point is a clipped, tile-local pixel coordinate paired with the index the
// underlying polyline point held before clipping.
type Point struct {
	X, Y  float64
	Index int
}

// DrawSegment rasterizes the line from p0 to p1 onto the grid using
// Bresenham's algorithm, incrementing the overlap count of every pixel the
// line touches. Coordinates are rounded to integer pixels with round-half-
// away-from-zero before stepping.
func (g *Grid) DrawSegment(p0, p1 Point) {
	x0, y0 := int(roundHalfAwayFromZero(p0.X)), int(roundHalfAwayFromZero(p0.Y))
	x1, y1 := int(roundHalfAwayFromZero(p1.X)), int(roundHalfAwayFromZero(p1.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	for {
		g.increment(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawPolyline draws every adjacent pair of points in pts, skipping any pair
// whose source indices are not consecutive (Index diff != 1). This is the
// adjacency rule: it prevents clipping from fabricating a visible line
// between two points that were never actually joined in the source polyline.
func (g *Grid) DrawPolyline(pts []Point) {
	for i := 1; i < len(pts); i++ {
		p0, p1 := pts[i-1], pts[i]
		if p1.Index-p0.Index != 1 {
			continue
		}
		g.DrawSegment(p0, p1)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v + 0.5)
	}
	return math.Floor(v + 0.5)
}
