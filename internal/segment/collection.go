package segment

import (
	"fmt"

	"github.com/minpen/minpen/internal/geom"
)

// SetInfo is metadata attached to a set when it is grouped.
type SetInfo struct {
	Label string `json:"label,omitempty"`
	Grid  bool   `json:"grid,omitempty"`
}

// Collection is the ordered set of live segments. Order is painter's order
// and, after grouping, sorted by SetID. Segments are addressed by InstanceID;
// the index map is rebuilt after every structural change.
type Collection struct {
	order []Segment
	index map[InstanceID]int
	sets  map[SetID]SetInfo
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		index: make(map[InstanceID]int),
		sets:  make(map[SetID]SetInfo),
	}
}

func (c *Collection) reindex() {
	clear(c.index)
	for i, s := range c.order {
		c.index[s.InstanceID()] = i
	}
}

// Len returns the number of segments.
func (c *Collection) Len() int { return len(c.order) }

// At returns the segment at position i.
func (c *Collection) At(i int) Segment { return c.order[i] }

// Get looks a segment up by instance id.
func (c *Collection) Get(id InstanceID) (Segment, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.order[i], true
}

// IndexOf returns the position of id, or -1.
func (c *Collection) IndexOf(id InstanceID) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// All returns the segments in order. The slice is a copy.
func (c *Collection) All() []Segment {
	out := make([]Segment, len(c.order))
	copy(out, c.order)
	return out
}

// IDs returns the instance ids in order.
func (c *Collection) IDs() []InstanceID {
	out := make([]InstanceID, len(c.order))
	for i, s := range c.order {
		out[i] = s.InstanceID()
	}
	return out
}

// Insert places seg at position i (clamped to the valid range).
func (c *Collection) Insert(i int, seg Segment) error {
	if _, ok := c.index[seg.InstanceID()]; ok {
		return fmt.Errorf("insert %d: %w", seg.InstanceID(), ErrDuplicateSegment)
	}
	if i < 0 || i > len(c.order) {
		i = len(c.order)
	}
	c.order = append(c.order, nil)
	copy(c.order[i+1:], c.order[i:])
	c.order[i] = seg
	c.reindex()
	seg.MarkDirty()
	return nil
}

// Append adds seg at the end.
func (c *Collection) Append(seg Segment) error {
	return c.Insert(len(c.order), seg)
}

// Remove deletes the segment with the given id and reports where it was.
func (c *Collection) Remove(id InstanceID) (int, error) {
	i, ok := c.index[id]
	if !ok {
		return -1, fmt.Errorf("remove %d: %w", id, ErrUnknownSegment)
	}
	c.order = append(c.order[:i], c.order[i+1:]...)
	c.reindex()
	return i, nil
}

// Reorder replaces the order with ids, which must be a permutation of the
// current members.
func (c *Collection) Reorder(ids []InstanceID) error {
	if len(ids) != len(c.order) {
		return fmt.Errorf("reorder: %d ids for %d segments: %w", len(ids), len(c.order), ErrUnknownSegment)
	}
	next := make([]Segment, 0, len(ids))
	seen := make(map[InstanceID]bool, len(ids))
	for _, id := range ids {
		s, ok := c.Get(id)
		if !ok || seen[id] {
			return fmt.Errorf("reorder %d: %w", id, ErrUnknownSegment)
		}
		seen[id] = true
		next = append(next, s)
	}
	c.order = next
	c.reindex()
	return nil
}

// SortBySet stably re-sorts the collection by SetID. The sort is an insertion
// sort into a fresh slice: linear when the order is already nearly sorted,
// which is the usual state after an incremental edit.
func (c *Collection) SortBySet() {
	sorted := make([]Segment, 0, len(c.order))
	for _, s := range c.order {
		i := len(sorted)
		for i > 0 && sorted[i-1].SetID() > s.SetID() {
			i--
		}
		sorted = append(sorted, nil)
		copy(sorted[i+1:], sorted[i:])
		sorted[i] = s
	}
	c.order = sorted
	c.reindex()
}

// Set returns the members of a set in collection order.
func (c *Collection) Set(id SetID) []Segment {
	var out []Segment
	for _, s := range c.order {
		if s.SetID() == id {
			out = append(out, s)
		}
	}
	return out
}

// SetIDs returns the distinct set ids in order of first appearance.
func (c *Collection) SetIDs() []SetID {
	var out []SetID
	seen := make(map[SetID]bool)
	for _, s := range c.order {
		if !seen[s.SetID()] {
			seen[s.SetID()] = true
			out = append(out, s.SetID())
		}
	}
	return out
}

// SetBounds is the union of the world bounds of a set's members.
func (c *Collection) SetBounds(id SetID) (geom.Rect, bool) {
	return Bounds(c.Set(id))
}

// SetInfo returns the metadata recorded for a set.
func (c *Collection) SetInfo(id SetID) (SetInfo, bool) {
	info, ok := c.sets[id]
	return info, ok
}

// SetSetInfo records metadata for a set.
func (c *Collection) SetSetInfo(id SetID, info SetInfo) {
	c.sets[id] = info
}

// DeleteSetInfo forgets a set's metadata.
func (c *Collection) DeleteSetInfo(id SetID) {
	delete(c.sets, id)
}

// Sets returns a copy of all set metadata.
func (c *Collection) Sets() map[SetID]SetInfo {
	out := make(map[SetID]SetInfo, len(c.sets))
	for k, v := range c.sets {
		out[k] = v
	}
	return out
}

// Dirty returns the segments whose rendered projection is stale.
func (c *Collection) Dirty() []Segment {
	var out []Segment
	for _, s := range c.order {
		if s.Dirty() {
			out = append(out, s)
		}
	}
	return out
}

// Bounds is the union of the world bounds of segs. ok is false for an empty
// slice.
func Bounds(segs []Segment) (geom.Rect, bool) {
	if len(segs) == 0 {
		return geom.Rect{}, false
	}
	r := geom.Empty
	for _, s := range segs {
		r = r.Union(s.Bounds())
	}
	return r, true
}
