// Package geom provides the axis-aligned geometry used by the simulation:
// points, rectangles and the strict overlap test that every collision check
// in the engine is built on.
package geom

import "math"

// Vec2 is a point or displacement in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (v Vec2) Distance(other Vec2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Add returns v translated by d.
func (v Vec2) Add(d Vec2) Vec2 {
	return Vec2{X: v.X + d.X, Y: v.Y + d.Y}
}

// Rect is an axis-aligned rectangle with its top-left corner at (X, Y).
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NewRect creates a rectangle from its top-left corner and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// Origin returns the top-left corner.
func (r Rect) Origin() Vec2 {
	return Vec2{X: r.X, Y: r.Y}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Intersect returns the overlap of r and other. The second result is false
// unless both overlap extents are strictly positive, so rectangles that only
// share an edge or a corner do not intersect.
func (r Rect) Intersect(other Rect) (Rect, bool) {
	x := math.Max(r.X, other.X)
	y := math.Max(r.Y, other.Y)
	w := math.Min(r.Right(), other.Right()) - x
	h := math.Min(r.Bottom(), other.Bottom()) - y
	if w > 0 && h > 0 {
		return Rect{X: x, Y: y, W: w, H: h}, true
	}
	return Rect{}, false
}

// Overlaps reports whether r and other intersect.
func (r Rect) Overlaps(other Rect) bool {
	_, ok := r.Intersect(other)
	return ok
}
