// Package core provides fundamental types and utilities for the simulation.
// It contains no external dependencies (especially no Bubble Tea) to keep game
// logic pure and testable.
package core

// Rect represents an axis-aligned box in world pixels.
// Edges follow half-open intervals: [X, X+W) and [Y, Y+H).
type Rect struct {
	X, Y int32 // Top-left corner position
	W, H int32 // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int32) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int32 {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int32 {
	return r.Y + r.H
}

// OverlapsX reports whether the horizontal extents of r and other intersect.
func (r Rect) OverlapsX(other Rect) bool {
	return r.Right() > other.X && r.X < other.Right()
}

// WithinY reports whether r's vertical span lies inside [top, bottom].
func (r Rect) WithinY(top, bottom int32) bool {
	return r.Y >= top && r.Bottom() <= bottom
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Min returns the smaller of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
