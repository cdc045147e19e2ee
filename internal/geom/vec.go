package geom

import (
	"fmt"
	"math"
)

// Vec is a 2D point or offset. Values are never mutated in place; every
// operation returns a new Vec.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zero and One are the identity translation and identity scale.
var (
	Zero = Vec{0, 0}
	One  = Vec{1, 1}
)

// V is shorthand for Vec{X: x, Y: y}.
func V(x, y float64) Vec {
	return Vec{X: x, Y: y}
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X - o.X, v.Y - o.Y}
}

// Scale multiplies both components by k.
func (v Vec) Scale(k float64) Vec {
	return Vec{v.X * k, v.Y * k}
}

// Mul is the pointwise (Hadamard) product.
func (v Vec) Mul(o Vec) Vec {
	return Vec{v.X * o.X, v.Y * o.Y}
}

// Div is the pointwise quotient. Callers must ensure o has no zero component.
func (v Vec) Div(o Vec) Vec {
	return Vec{v.X / o.X, v.Y / o.Y}
}

// Dot returns the dot product.
func (v Vec) Dot(o Vec) float64 {
	return v.X*o.X + v.Y*o.Y
}

// DistSq returns the squared Euclidean distance between v and o.
func (v Vec) DistSq(o Vec) float64 {
	d := v.Sub(o)
	return d.Dot(d)
}

// Dist returns the Euclidean distance between v and o.
func (v Vec) Dist(o Vec) float64 {
	return math.Sqrt(v.DistSq(o))
}

// Transform applies a scale followed by a translation: (v ⊙ scale) + translation.
// This is the only composition order used for segment transforms.
func (v Vec) Transform(scale, translation Vec) Vec {
	return v.Mul(scale).Add(translation)
}

// Lerp blends from v toward o by fraction t.
func (v Vec) Lerp(o Vec, t float64) Vec {
	return v.Add(o.Sub(v).Scale(t))
}

// Min returns the componentwise minimum.
func (v Vec) Min(o Vec) Vec {
	return Vec{math.Min(v.X, o.X), math.Min(v.Y, o.Y)}
}

// Max returns the componentwise maximum.
func (v Vec) Max(o Vec) Vec {
	return Vec{math.Max(v.X, o.X), math.Max(v.Y, o.Y)}
}

// IsFinite reports whether neither component is NaN or ±Inf.
func (v Vec) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// HasZero reports whether either component is exactly zero.
func (v Vec) HasZero() bool {
	return v.X == 0 || v.Y == 0
}

// String implements fmt.Stringer using the "x,y" form of the action records.
func (v Vec) String() string {
	return fmt.Sprintf("%g,%g", v.X, v.Y)
}
