// Package geometry provides the planar helpers used for territory borders:
// convex hulls, containment, and distance metrics on integer grid points.
package geometry

import (
	"math"
	"sort"
)

// Point is an integer grid position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// cross returns the z component of (a-o)×(b-o). Positive means b is
// counter-clockwise from a around o.
func cross(o, a, b Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull returns the convex hull of points in counter-clockwise order
// (standard math orientation, y up), starting from the lowest-x, lowest-y
// vertex. Collinear points on hull edges are dropped.
//
// Fewer than three distinct points, or points that are all collinear, have
// no drawable hull and yield nil.
func ConvexHull(points []Point) []Point {
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	pts = dedupSorted(pts)
	if len(pts) < 3 {
		return nil
	}

	// Andrew's monotone chain.
	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	if len(hull) < 3 {
		return nil
	}
	return hull
}

func dedupSorted(pts []Point) []Point {
	if len(pts) == 0 {
		return pts
	}
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// Contains reports whether p lies inside or on the boundary of the convex
// polygon poly, which must be in counter-clockwise order.
func Contains(poly []Point, p Point) bool {
	if len(poly) < 3 {
		return false
	}
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		if cross(a, b, p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsCircle reports whether the convex polygon and the disc of the
// given radius around (cx, cy) overlap.
func IntersectsCircle(poly []Point, cx, cy, radius float64) bool {
	if len(poly) < 3 {
		return false
	}
	r2 := radius * radius
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		if segmentDistSq(float64(a.X), float64(a.Y), float64(b.X), float64(b.Y), cx, cy) <= r2 {
			return true
		}
	}
	// Disc entirely inside the polygon.
	return containsFloat(poly, cx, cy)
}

func containsFloat(poly []Point, x, y float64) bool {
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		c := float64(b.X-a.X)*(y-float64(a.Y)) - float64(b.Y-a.Y)*(x-float64(a.X))
		if c < 0 {
			return false
		}
	}
	return true
}

// segmentDistSq returns the squared distance from (px, py) to segment ab.
func segmentDistSq(ax, ay, bx, by, px, py float64) float64 {
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	qx, qy := ax+t*dx-px, ay+t*dy-py
	return qx*qx + qy*qy
}

// Chebyshev returns the chessboard distance between two points.
func Chebyshev(a, b Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Euclidean returns the straight-line distance between two points.
func Euclidean(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
