package editor

import (
	"fmt"
	"log/slog"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/geom"
	"github.com/minpen/minpen/internal/segment"
)

// BeginTransform starts a live drag or resize of the selection. Running
// animations are completed and pending resizes frozen so the edit starts from
// settled state.
func (e *Editor) BeginTransform() error {
	if e.live != nil {
		return ErrTransformBusy
	}
	e.scheduler.Flush()
	segs := e.selected()
	if len(segs) == 0 {
		return ErrNoSelection
	}
	for _, s := range segs {
		s.FreezeTransform()
	}
	e.live = action.NewTransformSegments(segs)
	e.liveSegs = segs
	return nil
}

// Drag moves the selection by offset.
func (e *Editor) Drag(offset geom.Vec) error {
	if e.live == nil {
		return ErrNoTransform
	}
	if !offset.IsFinite() {
		return fmt.Errorf("drag by %v: %w", offset, segment.ErrNonFinite)
	}
	for _, s := range e.liveSegs {
		s.Translate(offset)
	}
	e.render()
	return nil
}

// Resize previews scaling the selection about origin. Each call replaces the
// previous preview; nothing is committed until EndTransform.
func (e *Editor) Resize(origin, scale geom.Vec) error {
	if e.live == nil {
		return ErrNoTransform
	}
	for _, s := range e.liveSegs {
		if err := s.Resize(origin, scale); err != nil {
			return err
		}
	}
	e.render()
	return nil
}

// EndTransform commits the live edit. The segments are already where the
// user left them, so the action is recorded without being applied again. It
// returns nil when nothing moved.
func (e *Editor) EndTransform() (*action.TransformSegments, error) {
	if e.live == nil {
		return nil, ErrNoTransform
	}
	tr, segs := e.live, e.liveSegs
	e.live, e.liveSegs = nil, nil

	for _, s := range segs {
		s.FreezeTransform()
	}
	if err := tr.CaptureFinalState(segs); err != nil {
		return nil, err
	}
	e.render()
	if !tr.ShouldKeep() {
		return nil, nil
	}
	e.log.Push(tr)
	return tr, nil
}

// cancelLive commits an unfinished live edit before history moves.
func (e *Editor) cancelLive() {
	if e.live == nil {
		return
	}
	if _, err := e.EndTransform(); err != nil {
		slog.Warn("commit live transform", "error", err)
	}
}

// AlignTarget is where a set should end up.
type AlignTarget struct {
	SetID  segment.SetID `json:"setId"`
	Bounds geom.Rect     `json:"bounds"`
}

// Align moves and scales each target set so its bounds match the target
// bounds. Axes where either box is flat keep their scale. A set named more
// than once is aligned to its first target only. The whole alignment is one
// animated, undoable edit.
func (e *Editor) Align(targets []AlignTarget) (*action.TransformSegments, error) {
	e.cancelLive()
	e.scheduler.Flush()

	var segs []segment.Segment
	seen := make(map[segment.SetID]bool, len(targets))
	uniq := targets[:0:0]
	for _, t := range targets {
		if !t.Bounds.IsFinite() {
			return nil, fmt.Errorf("align set %d: %w", t.SetID, segment.ErrNonFinite)
		}
		if seen[t.SetID] {
			continue
		}
		seen[t.SetID] = true
		uniq = append(uniq, t)
		segs = append(segs, e.segments.Set(t.SetID)...)
	}
	targets = uniq
	if len(segs) == 0 {
		return nil, nil
	}
	for _, s := range segs {
		s.FreezeTransform()
	}
	tr := action.NewTransformSegments(segs)

	for _, t := range targets {
		members := e.segments.Set(t.SetID)
		cur, ok := segment.Bounds(members)
		if !ok {
			continue
		}
		offset := t.Bounds.Min.Sub(cur.Min)
		scale := geom.One
		if cur.Width() > 0 && t.Bounds.Width() > 0 {
			scale.X = t.Bounds.Width() / cur.Width()
		}
		if cur.Height() > 0 && t.Bounds.Height() > 0 {
			scale.Y = t.Bounds.Height() / cur.Height()
		}
		for _, s := range members {
			s.Translate(offset)
			s.FreezeTransform()
			if err := s.Resize(t.Bounds.Min, scale); err != nil {
				rewind(segs, tr.Before())
				return nil, err
			}
			s.FreezeTransform()
		}
	}

	if err := tr.CaptureFinalState(segs); err != nil {
		return nil, err
	}
	if !tr.ShouldKeep() {
		return nil, nil
	}
	// Rewind to the start and let the action animate the move.
	rewind(segs, tr.Before())
	if err := tr.Apply(e.scene); err != nil {
		return nil, err
	}
	e.log.Push(tr)
	e.render()
	return tr, nil
}

func rewind(segs []segment.Segment, stages []segment.Stage) {
	for i, st := range stages {
		segs[i].SetCommitted(st)
	}
}
