package action

import (
	"fmt"
	"sort"

	"github.com/minpen/minpen/internal/segment"
)

type deleted struct {
	seg   segment.Segment
	index int
}

// DeleteSegments removes segments and puts them back where they were on undo.
type DeleteSegments struct {
	entries []deleted // ascending by index
}

// NewDeleteSegments captures the current position of each id in c. Ids that
// are not in the collection fail with segment.ErrUnknownSegment.
func NewDeleteSegments(c *segment.Collection, ids ...segment.InstanceID) (*DeleteSegments, error) {
	a := &DeleteSegments{}
	seen := make(map[segment.InstanceID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		i := c.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("delete %d: %w", id, segment.ErrUnknownSegment)
		}
		a.entries = append(a.entries, deleted{seg: c.At(i), index: i})
	}
	sort.Slice(a.entries, func(i, j int) bool { return a.entries[i].index < a.entries[j].index })
	return a, nil
}

func (a *DeleteSegments) Kind() Kind { return KindDelete }
func (a *DeleteSegments) sealed()    {}

func (a *DeleteSegments) ShouldKeep() bool { return len(a.entries) > 0 }

// Segments returns the deleted segments in their original order.
func (a *DeleteSegments) Segments() []segment.Segment {
	out := make([]segment.Segment, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.seg
	}
	return out
}

// Indices returns the original positions of the deleted segments.
func (a *DeleteSegments) Indices() []int {
	out := make([]int, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.index
	}
	return out
}

func (a *DeleteSegments) Apply(s *Scene) error {
	for _, e := range a.entries {
		if _, ok := s.Segments.Get(e.seg.InstanceID()); !ok {
			return fmt.Errorf("delete %d: %w", e.seg.InstanceID(), segment.ErrUnknownSegment)
		}
	}
	for i := len(a.entries) - 1; i >= 0; i-- {
		if _, err := s.Segments.Remove(a.entries[i].seg.InstanceID()); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	return nil
}

func (a *DeleteSegments) Undo(s *Scene) error {
	for _, e := range a.entries {
		if _, ok := s.Segments.Get(e.seg.InstanceID()); ok {
			return fmt.Errorf("undo delete %d: %w", e.seg.InstanceID(), segment.ErrDuplicateSegment)
		}
	}
	for _, e := range a.entries {
		if err := s.Segments.Insert(e.index, e.seg); err != nil {
			return fmt.Errorf("undo delete: %w", err)
		}
	}
	return nil
}
