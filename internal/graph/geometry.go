package graph

import "math"

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Half returns the offset from a rectangle's top-left corner to its center.
func (s Size) Half() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Rect is an axis-aligned rectangle with inclusive bounds.
type Rect struct {
	Min Point
	Max Point
}

// Contains reports whether p lies within r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// extent tracks the min/max of a set of points. The zero value is empty.
type extent struct {
	min, max Point
	n        int
}

func (e *extent) add(p Point) {
	if e.n == 0 {
		e.min, e.max = p, p
	} else {
		e.min = Point{X: math.Min(e.min.X, p.X), Y: math.Min(e.min.Y, p.Y)}
		e.max = Point{X: math.Max(e.max.X, p.X), Y: math.Max(e.max.Y, p.Y)}
	}
	e.n++
}

func (e extent) empty() bool { return e.n == 0 }
