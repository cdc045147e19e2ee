package action

import (
	"fmt"
	"time"

	"github.com/minpen/minpen/internal/anim"
	"github.com/minpen/minpen/internal/segment"
)

// TransformSegments records the committed stages of a set of segments before
// and after an edit. Apply and Undo blend between the two, animated when the
// scene has an animator.
type TransformSegments struct {
	ids    []segment.InstanceID
	before []segment.Stage
	after  []segment.Stage
}

// NewTransformSegments snapshots the committed stage of each segment. The
// segments should have no pending provisional stage.
func NewTransformSegments(segs []segment.Segment) *TransformSegments {
	a := &TransformSegments{ids: idsOf(segs), before: make([]segment.Stage, len(segs))}
	for i, s := range segs {
		a.before[i] = s.Committed()
	}
	return a
}

func (a *TransformSegments) Kind() Kind { return KindTransform }
func (a *TransformSegments) sealed()    {}

// IDs returns the transformed instance ids.
func (a *TransformSegments) IDs() []segment.InstanceID {
	return append([]segment.InstanceID(nil), a.ids...)
}

// Before returns the captured initial stages.
func (a *TransformSegments) Before() []segment.Stage {
	return append([]segment.Stage(nil), a.before...)
}

// After returns the captured final stages, nil until CaptureFinalState.
func (a *TransformSegments) After() []segment.Stage {
	return append([]segment.Stage(nil), a.after...)
}

// Finalized reports whether the final state has been captured.
func (a *TransformSegments) Finalized() bool { return a.after != nil }

// CaptureFinalState records the committed stages after the edit. segs must be
// the same segments, in the same order, as at construction.
func (a *TransformSegments) CaptureFinalState(segs []segment.Segment) error {
	if len(segs) != len(a.ids) {
		return fmt.Errorf("capture final state: %d segments, want %d: %w", len(segs), len(a.ids), ErrLengthMismatch)
	}
	after := make([]segment.Stage, len(segs))
	for i, s := range segs {
		if s.InstanceID() != a.ids[i] {
			return fmt.Errorf("capture final state: segment %d at %d, want %d: %w", s.InstanceID(), i, a.ids[i], ErrSegmentMismatch)
		}
		after[i] = s.Committed()
	}
	a.after = after
	return nil
}

// ShouldKeep is false when nothing moved.
func (a *TransformSegments) ShouldKeep() bool {
	if !a.Finalized() {
		return false
	}
	for i := range a.before {
		if a.before[i] != a.after[i] {
			return true
		}
	}
	return false
}

func (a *TransformSegments) Apply(s *Scene) error {
	if !a.Finalized() {
		return fmt.Errorf("apply transform: %w", ErrNotFinalized)
	}
	return a.run(s, a.before, a.after)
}

func (a *TransformSegments) Undo(s *Scene) error {
	if !a.Finalized() {
		return fmt.Errorf("undo transform: %w", ErrNotFinalized)
	}
	return a.run(s, a.after, a.before)
}

func (a *TransformSegments) run(s *Scene, from, to []segment.Stage) error {
	segs, err := s.resolve(a.ids)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}
	b := &blend{segs: segs, from: from, to: to}
	if s.Animator == nil {
		b.Finish()
		return nil
	}
	b.progress = anim.NewProgress(s.Duration, s.Easing)
	s.Animator.Start(b, s.now())
	// Start may have snapped an earlier blend over the same segments.
	b.set(0)
	return nil
}

// blend interpolates committed stages between two snapshots.
type blend struct {
	segs     []segment.Segment
	from, to []segment.Stage
	progress *anim.Progress
}

func (b *blend) set(t float64) {
	for i, s := range b.segs {
		s.SetCommitted(b.from[i].Lerp(b.to[i], t))
	}
}

func (b *blend) Step(elapsed time.Duration) anim.Status {
	t, done := b.progress.Advance(elapsed)
	if done {
		b.Finish()
		return anim.Done
	}
	b.set(t)
	return anim.Continue
}

// Finish writes the exact end stages.
func (b *blend) Finish() {
	if b.progress != nil {
		b.progress.Complete()
	}
	for i, s := range b.segs {
		s.SetCommitted(b.to[i])
	}
}
