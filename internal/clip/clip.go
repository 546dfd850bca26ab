// Package clip implements Cohen-Sutherland segment clipping against an
// axis-aligned rectangle, with boundary snapping so neighboring tiles agree
// on shared-edge pixels.
package clip

import "math"

// Epsilon is the world-pixel tolerance used to snap a clipped coordinate
// onto the rectangle boundary it intersected.
const Epsilon = 1e-9

const (
	inside = 0
	left   = 1 << 0
	right  = 1 << 1
	bottom = 1 << 2
	top    = 1 << 3
)

// Rect is an axis-aligned clip rectangle in world-pixel coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Point is a 2D point in world-pixel space.
type Point struct {
	X, Y float64
}

// Segment clips the segment (p0,p1) against r using the Cohen-Sutherland
// algorithm. It returns ok=false if the segment lies entirely outside r.
// Endpoints within Epsilon of an edge they crossed are snapped exactly onto
// that edge.
func Segment(p0, p1 Point, r Rect) (q0, q1 Point, ok bool) {
	code0 := outcode(p0, r)
	code1 := outcode(p1, r)

	for {
		if code0 == inside && code1 == inside {
			return snap(p0, r), snap(p1, r), true
		}
		if code0&code1 != 0 {
			return Point{}, Point{}, false
		}

		out := code0
		if out == inside {
			out = code1
		}

		var x, y float64
		switch {
		case out&top != 0:
			x = interpX(p0, p1, r.Y1)
			y = r.Y1
		case out&bottom != 0:
			x = interpX(p0, p1, r.Y0)
			y = r.Y0
		case out&right != 0:
			y = interpY(p0, p1, r.X1)
			x = r.X1
		case out&left != 0:
			y = interpY(p0, p1, r.X0)
			x = r.X0
		}

		if out == code0 {
			p0 = Point{X: x, Y: y}
			code0 = outcode(p0, r)
		} else {
			p1 = Point{X: x, Y: y}
			code1 = outcode(p1, r)
		}
	}
}

func interpX(p0, p1 Point, y float64) float64 {
	if p1.Y == p0.Y {
		return p0.X
	}
	return p0.X + (p1.X-p0.X)*(y-p0.Y)/(p1.Y-p0.Y)
}

func interpY(p0, p1 Point, x float64) float64 {
	if p1.X == p0.X {
		return p0.Y
	}
	return p0.Y + (p1.Y-p0.Y)*(x-p0.X)/(p1.X-p0.X)
}

func outcode(p Point, r Rect) int {
	code := inside
	switch {
	case p.X < r.X0:
		code |= left
	case p.X > r.X1:
		code |= right
	}
	switch {
	case p.Y < r.Y0:
		code |= bottom
	case p.Y > r.Y1:
		code |= top
	}
	return code
}

// snap pulls a point that landed within Epsilon of an edge exactly onto it,
// eliminating the one-pixel mismatches at shared tile edges that floating
// point drift would otherwise introduce.
func snap(p Point, r Rect) Point {
	if math.Abs(p.X-r.X0) < Epsilon {
		p.X = r.X0
	} else if math.Abs(p.X-r.X1) < Epsilon {
		p.X = r.X1
	}
	if math.Abs(p.Y-r.Y0) < Epsilon {
		p.Y = r.Y0
	} else if math.Abs(p.Y-r.Y1) < Epsilon {
		p.Y = r.Y1
	}
	return p
}
