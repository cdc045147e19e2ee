package editor

import (
	"github.com/minpen/minpen/internal/geom"
	"github.com/minpen/minpen/internal/segment"
)

// Selection returns the selected ids in collection order.
func (e *Editor) Selection() []segment.InstanceID {
	return append([]segment.InstanceID(nil), e.selection...)
}

// Select replaces the selection. Unknown ids are ignored.
func (e *Editor) Select(ids []segment.InstanceID) {
	want := make(map[segment.InstanceID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	e.setSelection(func(s segment.Segment) bool { return want[s.InstanceID()] })
}

// ClearSelection deselects everything.
func (e *Editor) ClearSelection() {
	e.selection = nil
	e.notifySelection()
}

// SelectAt selects the whole set of the topmost segment under p and reports
// whether anything was hit.
func (e *Editor) SelectAt(p geom.Vec) bool {
	hit, ok := e.HitTest(p)
	if !ok {
		e.ClearSelection()
		return false
	}
	set := hit.SetID()
	e.setSelection(func(s segment.Segment) bool { return s.SetID() == set })
	return true
}

// SelectRect selects every set with a member touching the rectangle spanned
// by a and b.
func (e *Editor) SelectRect(a, b geom.Vec) int {
	sets := make(map[segment.SetID]bool)
	for _, s := range e.segments.All() {
		if s.RectCollides(a, b) {
			sets[s.SetID()] = true
		}
	}
	return e.setSelection(func(s segment.Segment) bool { return sets[s.SetID()] })
}

// SelectLine selects the segments crossed by the line from a to b.
func (e *Editor) SelectLine(a, b geom.Vec) int {
	return e.setSelection(func(s segment.Segment) bool { return s.LineCollides(a, b) })
}

// HitTest returns the topmost segment under p.
func (e *Editor) HitTest(p geom.Vec) (segment.Segment, bool) {
	for i := e.segments.Len() - 1; i >= 0; i-- {
		if s := e.segments.At(i); s.PointCollides(p) {
			return s, true
		}
	}
	return nil, false
}

// SetBounds is the union of a set's world bounds.
func (e *Editor) SetBounds(id segment.SetID) (geom.Rect, bool) {
	return e.segments.SetBounds(id)
}

// SelectionBounds is the union of the selected segments' world bounds.
func (e *Editor) SelectionBounds() (geom.Rect, bool) {
	return segment.Bounds(e.selected())
}

func (e *Editor) setSelection(keep func(segment.Segment) bool) int {
	e.selection = e.selection[:0]
	for _, s := range e.segments.All() {
		if keep(s) {
			e.selection = append(e.selection, s.InstanceID())
		}
	}
	e.notifySelection()
	return len(e.selection)
}

// notifySelection sends a frame that only carries the selection.
func (e *Editor) notifySelection() {
	e.notify(Frame{Selection: e.Selection()})
}

// selected resolves the selection.
func (e *Editor) selected() []segment.Segment {
	out := make([]segment.Segment, 0, len(e.selection))
	for _, id := range e.selection {
		if s, ok := e.segments.Get(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// pruneSelection drops selected ids that are no longer in the collection and
// restores collection order.
func (e *Editor) pruneSelection() {
	if len(e.selection) == 0 {
		return
	}
	keep := make(map[segment.InstanceID]bool, len(e.selection))
	for _, id := range e.selection {
		keep[id] = true
	}
	e.selection = e.selection[:0]
	for _, id := range e.segments.IDs() {
		if keep[id] {
			e.selection = append(e.selection, id)
		}
	}
}
