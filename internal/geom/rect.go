package geom

import "math"

// Rect is an axis-aligned bounding box in world space.
type Rect struct {
	Min Vec `json:"min"`
	Max Vec `json:"max"`
}

// RectFromCorners builds the box spanned by two arbitrary corners.
func RectFromCorners(a, b Vec) Rect {
	return Rect{Min: a.Min(b), Max: a.Max(b)}
}

// BoundPoints returns the bounding box of pts. ok is false when pts is empty.
func BoundPoints(pts []Vec) (r Rect, ok bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	r = Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min = r.Min.Min(p)
		r.Max = r.Max.Max(p)
	}
	return r, true
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Size returns (width, height).
func (r Rect) Size() Vec { return r.Max.Sub(r.Min) }

// Center returns the center point of the rect.
func (r Rect) Center() Vec {
	return r.Min.Add(r.Max).Scale(0.5)
}

// IsEmpty checks if the rect has negative extent on either axis.
// A degenerate (zero-width) box around a horizontal stroke is not empty.
func (r Rect) IsEmpty() bool {
	return r.Max.X < r.Min.X || r.Max.Y < r.Min.Y
}

// Contains checks if a point is inside the rect, edges included.
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// StrictlyContains reports whether o lies inside r without touching its edges.
func (r Rect) StrictlyContains(o Rect) bool {
	return o.Min.X > r.Min.X && o.Max.X < r.Max.X && o.Min.Y > r.Min.Y && o.Max.Y < r.Max.Y
}

// Overlaps reports whether the two boxes share any point.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.Max.X < o.Min.X || o.Max.X < r.Min.X || r.Max.Y < o.Min.Y || o.Max.Y < r.Min.Y)
}

// Expand grows the rect by m on every side.
func (r Rect) Expand(m float64) Rect {
	d := Vec{m, m}
	return Rect{Min: r.Min.Sub(d), Max: r.Max.Add(d)}
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{Min: r.Min.Min(o.Min), Max: r.Max.Max(o.Max)}
}

// Transform maps both corners through (scale, translation) and re-normalizes,
// so negative scales still produce a well-formed box.
func (r Rect) Transform(scale, translation Vec) Rect {
	return RectFromCorners(r.Min.Transform(scale, translation), r.Max.Transform(scale, translation))
}

// IsFinite reports whether both corners are finite.
func (r Rect) IsFinite() bool {
	return r.Min.IsFinite() && r.Max.IsFinite()
}

// Empty is a rect that unions as the identity.
var Empty = Rect{Min: Vec{math.Inf(1), math.Inf(1)}, Max: Vec{math.Inf(-1), math.Inf(-1)}}
