package segment

import (
	"github.com/minpen/minpen/internal/geom"
)

// Group gathers segments that move as one unit. Its own stages are applied on
// top of the members' world transforms, so a member point p lands at
// group.World(member.World(p)).
type Group struct {
	base
	members []Segment
}

// NewGroup wraps members in a group with identity stages.
func NewGroup(members ...Segment) (*Group, error) {
	if len(members) == 0 {
		return nil, ErrEmptyGroup
	}
	g := &Group{base: newBase()}
	g.members = append(g.members, members...)
	return g, nil
}

func (g *Group) Kind() Kind { return KindGroup }

// Members returns the grouped segments in insertion order.
func (g *Group) Members() []Segment {
	out := make([]Segment, len(g.members))
	copy(out, g.members)
	return out
}

func (g *Group) memberBounds() geom.Rect {
	r := geom.Empty
	for _, m := range g.members {
		r = r.Union(m.Bounds())
	}
	return r
}

func (g *Group) Bounds() geom.Rect {
	return g.worldBox(g.memberBounds())
}

func (g *Group) DrawBounds() geom.Rect {
	r := geom.Empty
	for _, m := range g.members {
		r = r.Union(m.DrawBounds())
	}
	return g.worldBox(r)
}

func (g *Group) WorldMin() geom.Vec { return g.Bounds().Min }
func (g *Group) WorldMax() geom.Vec { return g.Bounds().Max }

// Collision tests pull the query back into member space and ask each member.
// Stroke hit radii are measured in member space, so a scaled group widens or
// narrows them with it.

func (g *Group) PointCollides(p geom.Vec) bool {
	if !p.IsFinite() {
		return false
	}
	q := g.unproject(p)
	for _, m := range g.members {
		if m.PointCollides(q) {
			return true
		}
	}
	return false
}

func (g *Group) LineCollides(a, b geom.Vec) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return false
	}
	qa, qb := g.unproject(a), g.unproject(b)
	for _, m := range g.members {
		if m.LineCollides(qa, qb) {
			return true
		}
	}
	return false
}

func (g *Group) RectCollides(a, b geom.Vec) bool {
	if !a.IsFinite() || !b.IsFinite() {
		return false
	}
	qa, qb := g.unproject(a), g.unproject(b)
	for _, m := range g.members {
		if m.RectCollides(qa, qb) {
			return true
		}
	}
	return false
}

func (g *Group) State() State {
	st := g.state(KindGroup)
	st.Members = make([]State, len(g.members))
	for k, m := range g.members {
		st.Members[k] = m.State()
	}
	return st
}

func groupFromState(st State) (*Group, error) {
	if len(st.Members) == 0 {
		return nil, ErrEmptyGroup
	}
	g := &Group{}
	g.restore(st)
	for _, ms := range st.Members {
		m, err := FromState(ms)
		if err != nil {
			return nil, err
		}
		g.members = append(g.members, m)
	}
	return g, nil
}
