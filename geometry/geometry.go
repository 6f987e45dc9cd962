// Package geometry holds the plane geometry used while drawing: bounding
// boxes spanned by a drag and arrowhead construction.
package geometry

import "math"

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Box is an axis-aligned rectangle given by its top-left corner and extent.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoxFrom normalises the rectangle spanned by two corners so that Width and
// Height are never negative, whichever direction the drag went.
func BoxFrom(a, b Point) Box {
	return Box{
		Left:   math.Min(a.X, b.X),
		Top:    math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// BoundsOf returns the smallest box containing every point. It is the zero
// box for an empty slice.
func BoundsOf(pts ...Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// Right is the x coordinate of the box's right edge.
func (b Box) Right() float64 { return b.Left + b.Width }

// Bottom is the y coordinate of the box's bottom edge.
func (b Box) Bottom() float64 { return b.Top + b.Height }

// Center returns the middle of the box.
func (b Box) Center() Point { return Point{b.Left + b.Width/2, b.Top + b.Height/2} }

// Contains reports whether p lies inside b, edges included.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right() && p.Y >= b.Top && p.Y <= b.Bottom()
}

// Grow returns b expanded by d on every side.
func (b Box) Grow(d float64) Box {
	return Box{Left: b.Left - d, Top: b.Top - d, Width: b.Width + 2*d, Height: b.Height + 2*d}
}

// Smaller reports whether both dimensions of b are below min.
func (b Box) Smaller(min float64) bool {
	return b.Width < min && b.Height < min
}
