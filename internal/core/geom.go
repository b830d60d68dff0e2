// Package core provides fundamental types and utilities shared by the snake
// simulation and its presentation layer. It contains no external dependencies
// to keep game logic pure and testable.
package core

import "math"

// Vec2 is a point or displacement on the play field.
// Components are float32 so that values survive the wire format unchanged.
type Vec2 struct {
	X, Y float32
}

// V creates a new vector.
func V(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float32 {
	return v.X*o.X + v.Y*o.Y
}

// LenSq returns the squared length of v.
func (v Vec2) LenSq() float32 {
	return v.Dot(v)
}

// Len returns the length of v.
func (v Vec2) Len() float32 {
	return float32(math.Sqrt(float64(v.LenSq())))
}

// Finite reports whether both components are neither NaN nor infinite.
func (v Vec2) Finite() bool {
	return Finite(v.X) && Finite(v.Y)
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// DistSq returns the squared distance between two points.
func DistSq(a, b Vec2) float32 {
	return a.Sub(b).LenSq()
}

// SegmentDistSq returns the squared minimum distance between point p and the
// line segment from a to b. The projection parameter is clamped to [0,1] so
// points beyond either end measure to the nearest endpoint.
func SegmentDistSq(a, b, p Vec2) float32 {
	l2 := DistSq(a, b)
	if l2 == 0 {
		return DistSq(p, a)
	}
	t := ClampF(p.Sub(a).Dot(b.Sub(a))/l2, 0, 1)
	proj := a.Add(b.Sub(a).Scale(t))
	return DistSq(p, proj)
}

// ClampF restricts a float32 value to be within [min, max].
func ClampF(val, min, max float32) float32 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
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

// AbsF returns the absolute value of a float32.
func AbsF(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
