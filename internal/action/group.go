package action

import (
	"fmt"

	"github.com/minpen/minpen/internal/segment"
)

// GroupSegments moves segments into one set and re-sorts the collection by
// set so each symbol's members are contiguous.
type GroupSegments struct {
	ids   []segment.InstanceID
	set   segment.SetID
	info  segment.SetInfo
	adopt bool

	// captured on Apply
	prevSets  []segment.SetID
	prevOrder []segment.InstanceID
	prevInfo  segment.SetInfo
	hadInfo   bool
}

// NewGroupSegments groups segs under a new set. The set id is allocated here
// so that redo lands the segments in the same set again.
func NewGroupSegments(segs []segment.Segment, label string, asGrid bool) *GroupSegments {
	return &GroupSegments{
		ids:  idsOf(segs),
		set:  segment.NewSetID(),
		info: segment.SetInfo{Label: label, Grid: asGrid},
	}
}

// NewJoinSet moves segs into an existing set, keeping that set's metadata.
func NewJoinSet(segs []segment.Segment, set segment.SetID) *GroupSegments {
	return &GroupSegments{ids: idsOf(segs), set: set, adopt: true}
}

func (a *GroupSegments) Kind() Kind { return KindGroup }
func (a *GroupSegments) sealed()    {}

// SetID is the set the segments end up in.
func (a *GroupSegments) SetID() segment.SetID { return a.set }

// IDs returns the grouped instance ids.
func (a *GroupSegments) IDs() []segment.InstanceID {
	return append([]segment.InstanceID(nil), a.ids...)
}

// Info returns the metadata recorded for a fresh set.
func (a *GroupSegments) Info() segment.SetInfo { return a.info }

func (a *GroupSegments) ShouldKeep() bool { return len(a.ids) > 0 }

func (a *GroupSegments) Apply(s *Scene) error {
	segs, err := s.resolve(a.ids)
	if err != nil {
		return fmt.Errorf("group: %w", err)
	}
	a.prevOrder = s.Segments.IDs()
	a.prevSets = make([]segment.SetID, len(segs))
	for i, seg := range segs {
		a.prevSets[i] = seg.SetID()
	}
	a.prevInfo, a.hadInfo = s.Segments.SetInfo(a.set)

	for _, seg := range segs {
		seg.SetSetID(a.set)
	}
	if !a.adopt {
		s.Segments.SetSetInfo(a.set, a.info)
	}
	s.Segments.SortBySet()
	return nil
}

func (a *GroupSegments) Undo(s *Scene) error {
	if a.prevSets == nil {
		return fmt.Errorf("undo group: %w", ErrNotApplied)
	}
	segs, err := s.resolve(a.ids)
	if err != nil {
		return fmt.Errorf("undo group: %w", err)
	}
	if err := s.Segments.Reorder(a.prevOrder); err != nil {
		return fmt.Errorf("undo group: %w", err)
	}
	for i, seg := range segs {
		seg.SetSetID(a.prevSets[i])
	}
	if a.hadInfo {
		s.Segments.SetSetInfo(a.set, a.prevInfo)
	} else {
		s.Segments.DeleteSetInfo(a.set)
	}
	return nil
}
