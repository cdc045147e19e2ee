package action

import (
	"fmt"

	"github.com/minpen/minpen/internal/segment"
)

// AddSegments appends new segments to the collection. The state of each
// segment is recorded at construction, so the exported record describes the
// segment as it was added and later edits stay in their own records.
type AddSegments struct {
	segments []segment.Segment
	states   []segment.State
}

func NewAddSegments(segs ...segment.Segment) *AddSegments {
	a := &AddSegments{
		segments: append([]segment.Segment(nil), segs...),
		states:   make([]segment.State, len(segs)),
	}
	for i, s := range segs {
		a.states[i] = s.State()
	}
	return a
}

func (a *AddSegments) Kind() Kind { return KindAdd }
func (a *AddSegments) sealed()    {}

// Segments returns the segments this action adds.
func (a *AddSegments) Segments() []segment.Segment {
	return append([]segment.Segment(nil), a.segments...)
}

// States returns the segments' states at the time they were added.
func (a *AddSegments) States() []segment.State {
	return append([]segment.State(nil), a.states...)
}

func (a *AddSegments) ShouldKeep() bool { return len(a.segments) > 0 }

func (a *AddSegments) Apply(s *Scene) error {
	for i, seg := range a.segments {
		if err := s.Segments.Append(seg); err != nil {
			for j := i - 1; j >= 0; j-- {
				_, _ = s.Segments.Remove(a.segments[j].InstanceID())
			}
			return fmt.Errorf("add segments: %w", err)
		}
	}
	return nil
}

func (a *AddSegments) Undo(s *Scene) error {
	for _, seg := range a.segments {
		if _, ok := s.Segments.Get(seg.InstanceID()); !ok {
			return fmt.Errorf("undo add %d: %w", seg.InstanceID(), segment.ErrUnknownSegment)
		}
	}
	for _, seg := range a.segments {
		if _, err := s.Segments.Remove(seg.InstanceID()); err != nil {
			return fmt.Errorf("undo add: %w", err)
		}
	}
	return nil
}
