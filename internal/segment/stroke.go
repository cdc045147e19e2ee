package segment

import (
	"fmt"

	"github.com/minpen/minpen/internal/geom"
)

// hitSlop widens the pointer hit radius of a stroke beyond its drawn half
// width so fingers can select thin ink.
const hitSlop = 7.0

// Stroke is a freehand pen stroke. Its points are stored in local space,
// relative to the stroke's top-left corner at creation.
type Stroke struct {
	base
	points    []geom.Vec
	local     geom.Rect
	lineWidth float64
}

// NewStroke builds a finished stroke from world-space pen samples. The
// samples are normalized so the committed translation holds the top-left
// corner and the local points start at (0,0).
func NewStroke(points []geom.Vec, lineWidth float64) (*Stroke, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	for _, p := range points {
		if !p.IsFinite() {
			return nil, fmt.Errorf("stroke point %v: %w", p, ErrNonFinite)
		}
	}
	if lineWidth <= 0 {
		lineWidth = geom.DefaultStrokeWidth
	}

	world, _ := geom.BoundPoints(points)
	s := &Stroke{base: newBase(), lineWidth: lineWidth}
	s.committed.Translation = world.Min
	s.points = make([]geom.Vec, len(points))
	for k, p := range points {
		s.points[k] = p.Sub(world.Min)
	}
	s.local = geom.Rect{Min: geom.Zero, Max: world.Size()}
	return s, nil
}

func (s *Stroke) Kind() Kind { return KindStroke }

// LineWidth returns the drawn pen width.
func (s *Stroke) LineWidth() float64 { return s.lineWidth }

// LocalPoints returns a copy of the local-space samples.
func (s *Stroke) LocalPoints() []geom.Vec {
	out := make([]geom.Vec, len(s.points))
	copy(out, s.points)
	return out
}

// WorldPoints maps every sample through both transform stages.
func (s *Stroke) WorldPoints() []geom.Vec {
	out := make([]geom.Vec, len(s.points))
	for k, p := range s.points {
		out[k] = s.World(p)
	}
	return out
}

func (s *Stroke) Bounds() geom.Rect  { return s.worldBox(s.local) }
func (s *Stroke) WorldMin() geom.Vec { return s.Bounds().Min }
func (s *Stroke) WorldMax() geom.Vec { return s.Bounds().Max }

// DrawBounds pads the bounds by half the line width to cover the round caps.
func (s *Stroke) DrawBounds() geom.Rect {
	return s.Bounds().Expand(s.lineWidth / 2)
}

// HitRadius is the pointer hit radius around the ink.
func (s *Stroke) HitRadius() float64 {
	return s.lineWidth / 2 * hitSlop
}

func (s *Stroke) PointCollides(p geom.Vec) bool {
	return geom.PointInCapsule(p, s.WorldPoints(), s.HitRadius())
}

func (s *Stroke) LineCollides(a, b geom.Vec) bool {
	return geom.LineCollidesStroke(a, b, s.WorldPoints(), s.lineWidth)
}

func (s *Stroke) RectCollides(a, b geom.Vec) bool {
	bounds := s.Bounds()
	return geom.RectOverlapsStroke(a, b, bounds.Min, bounds.Max, s.WorldPoints(), geom.DefaultStrokeWidth)
}

func (s *Stroke) State() State {
	st := s.state(KindStroke)
	st.Points = s.LocalPoints()
	st.LineWidth = s.lineWidth
	return st
}

func strokeFromState(st State) (*Stroke, error) {
	if len(st.Points) < 2 {
		return nil, ErrTooFewPoints
	}
	s := &Stroke{lineWidth: st.LineWidth}
	if s.lineWidth <= 0 {
		s.lineWidth = geom.DefaultStrokeWidth
	}
	s.restore(st)
	s.points = make([]geom.Vec, len(st.Points))
	copy(s.points, st.Points)
	s.local, _ = geom.BoundPoints(s.points)
	return s, nil
}
