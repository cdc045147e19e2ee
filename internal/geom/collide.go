package geom

// Epsilon is the squared length below which a segment is treated as a point.
const Epsilon = 0.0001

// DefaultStrokeWidth is the on-screen pen width; rectangle selection expands
// by this much so thin strokes on the selection edge are still caught.
const DefaultStrokeWidth = 4.0

func clamp(f, lo, hi float64) float64 {
	if f <= lo {
		return lo
	}
	if f >= hi {
		return hi
	}
	return f
}

// PointSegmentDistanceSq returns the squared distance from p to the segment ab.
// A segment shorter than Epsilon degrades to the distance from p to a.
func PointSegmentDistanceSq(p, a, b Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 <= Epsilon {
		return p.DistSq(a)
	}
	t := clamp(p.Sub(a).Dot(ab)/l2, 0, 1)
	return p.DistSq(a.Add(ab.Scale(t)))
}

// PointInCapsule reports whether click lies within radius of the polyline
// path. Each vertex is tested on its own (the round caps and joins), then each
// edge by projected distance. Returns on the first hit.
func PointInCapsule(click Vec, path []Vec, radius float64) bool {
	if !click.IsFinite() {
		return false
	}
	r2 := radius * radius
	for k, b := range path {
		if click.DistSq(b) <= r2 {
			return true
		}
		if k == 0 {
			continue
		}
		if PointSegmentDistanceSq(click, path[k-1], b) <= r2 {
			return true
		}
	}
	return false
}

// segmentLess orders segments lexicographically by their endpoints.
func segmentLess(p1, q1, p2, q2 Vec) bool {
	a := [4]float64{p1.X, p1.Y, q1.X, q1.Y}
	b := [4]float64{p2.X, p2.Y, q2.X, q2.Y}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// SegmentDistanceSq returns the squared closest distance between segments
// p1q1 and p2q2 using the clamped parametric method. Degenerate segments
// (squared length <= Epsilon) are handled as points, and parallel segments
// fall back to s = 0, so the function never divides by zero.
//
// The pair is put in a canonical order first so the result is bit-for-bit
// symmetric in its two arguments.
func SegmentDistanceSq(p1, q1, p2, q2 Vec) float64 {
	if segmentLess(p2, q2, p1, q1) {
		p1, q1, p2, q2 = p2, q2, p1, q1
	}

	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	if a <= Epsilon && e <= Epsilon {
		return p1.DistSq(p2)
	}

	var s, t float64
	if a <= Epsilon {
		s = 0
		t = clamp(f/e, 0, 1)
	} else {
		c := d1.Dot(r)
		if e <= Epsilon {
			t = 0
			s = clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = clamp((b*f-c*e)/denom, 0, 1)
			} else {
				s = 0
			}
			t = (b*s + f) / e

			if t < 0 {
				t = 0
				s = clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = clamp((b-c)/a, 0, 1)
			}
		}
	}

	c1 := p1.Add(d1.Scale(s))
	c2 := p2.Add(d2.Scale(t))
	return c1.DistSq(c2)
}

// LineCollidesStroke reports whether the segment ab passes within half the
// line width of any edge of the stroke polyline.
func LineCollidesStroke(a, b Vec, stroke []Vec, lineWidth float64) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return false
	}
	half := lineWidth * 0.5
	r2 := half * half
	if len(stroke) == 1 {
		return PointSegmentDistanceSq(stroke[0], a, b) <= r2
	}
	for k := 1; k < len(stroke); k++ {
		if SegmentDistanceSq(a, b, stroke[k-1], stroke[k]) <= r2 {
			return true
		}
	}
	return false
}

// SegmentIntersectsRect reports whether any part of segment ab lies inside r
// (Liang-Barsky clipping).
func SegmentIntersectsRect(a, b Vec, r Rect) bool {
	t0, t1 := 0.0, 1.0
	d := b.Sub(a)
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		u := q / p
		if p < 0 {
			if u > t1 {
				return false
			}
			if u > t0 {
				t0 = u
			}
		} else {
			if u < t0 {
				return false
			}
			if u < t1 {
				t1 = u
			}
		}
		return true
	}
	return clip(-d.X, a.X-r.Min.X) &&
		clip(d.X, r.Max.X-a.X) &&
		clip(-d.Y, a.Y-r.Min.Y) &&
		clip(d.Y, r.Max.Y-a.Y)
}

// RectOverlapsStroke reports whether the selection rectangle spanned by
// cornerA and cornerB, grown by margin on every side, touches the stroke.
//
// Boxes that do not overlap are rejected outright, and a stroke whose box sits
// strictly inside the grown rectangle is accepted outright. Otherwise each
// vertex is tested for containment and each edge is clipped against the
// rectangle.
func RectOverlapsStroke(cornerA, cornerB, strokeMin, strokeMax Vec, stroke []Vec, margin float64) bool {
	rect := RectFromCorners(cornerA, cornerB).Expand(margin)
	box := Rect{Min: strokeMin, Max: strokeMax}
	if !rect.IsFinite() || !box.IsFinite() {
		return false
	}

	if !rect.Overlaps(box) {
		return false
	}
	if rect.StrictlyContains(box) {
		return true
	}

	for _, p := range stroke {
		if rect.Contains(p) {
			return true
		}
	}
	for k := 1; k < len(stroke); k++ {
		if SegmentIntersectsRect(stroke[k-1], stroke[k], rect) {
			return true
		}
	}
	return false
}
