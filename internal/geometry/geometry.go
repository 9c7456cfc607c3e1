// Package geometry provides the pixel-space value types shared by input,
// capture, and matching: points and rectangular regions in a session's
// coordinate space.
package geometry

import (
	"fmt"
	"strings"
)

// Point is a pixel coordinate. Session space puts the origin at the top-left
// corner with y growing downward.
type Point struct {
	X int
	Y int
}

// Offset returns the point shifted by dx, dy.
func (p Point) Offset(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Region is a rectangular area anchored at its top-left corner.
type Region struct {
	Origin Point
	Width  int
	Height int
}

// Rect builds a region from origin coordinates and dimensions.
func Rect(x, y, width, height int) Region {
	return Region{Origin: Point{X: x, Y: y}, Width: width, Height: height}
}

// Area returns the number of pixels covered by the region.
func (r Region) Area() int {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether p lies inside the region.
func (r Region) Contains(p Point) bool {
	return p.X >= r.Origin.X && p.X < r.Origin.X+r.Width &&
		p.Y >= r.Origin.Y && p.Y < r.Origin.Y+r.Height
}

// Center returns the midpoint of the region, rounded toward the origin.
func (r Region) Center() Point {
	return Point{X: r.Origin.X + r.Width/2, Y: r.Origin.Y + r.Height/2}
}

// FitsWithin reports whether the region lies entirely inside a screen of the
// given dimensions. The origin must be non-negative and the far edges must
// not pass the screen edges.
func (r Region) FitsWithin(width, height int) bool {
	if r.Origin.X < 0 || r.Origin.Y < 0 || r.Width <= 0 || r.Height <= 0 {
		return false
	}
	return r.Origin.X+r.Width <= width && r.Origin.Y+r.Height <= height
}

// String renders the region in X geometry notation, WIDTHxHEIGHT+X+Y.
func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.Origin.X, r.Origin.Y)
}

// ParseRegion parses X geometry notation ("640x480+10+20"). The offsets may
// be omitted ("640x480"), in which case the origin is (0,0).
func ParseRegion(s string) (Region, error) {
	var r Region
	dims := s
	if i := strings.IndexByte(s, '+'); i >= 0 {
		dims = s[:i]
		var x, y int
		if _, err := fmt.Sscanf(s[i:], "+%d+%d", &x, &y); err != nil {
			return Region{}, fmt.Errorf("invalid region %q: expected WIDTHxHEIGHT+X+Y", s)
		}
		r.Origin = Point{X: x, Y: y}
	}
	if _, err := fmt.Sscanf(dims, "%dx%d", &r.Width, &r.Height); err != nil {
		return Region{}, fmt.Errorf("invalid region %q: expected WIDTHxHEIGHT+X+Y", s)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return Region{}, fmt.Errorf("invalid region %q: dimensions must be positive", s)
	}
	if r.Origin.X < 0 || r.Origin.Y < 0 {
		return Region{}, fmt.Errorf("invalid region %q: offsets must be non-negative", s)
	}
	return r, nil
}
