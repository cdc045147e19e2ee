// Package action implements reversible edits of a segment collection and the
// undo/redo log that records them.
//
// Every edit is one of a closed set of action kinds. An action owns whatever
// pre-state it needs to reverse itself and refers to segments by instance id
// or by pointer, never to render state.
package action

import (
	"errors"
	"fmt"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/minpen/minpen/internal/anim"
	"github.com/minpen/minpen/internal/segment"
)

var (
	ErrLengthMismatch  = errors.New("segment count mismatch")
	ErrSegmentMismatch = errors.New("segment ids do not match")
	ErrNotFinalized    = errors.New("transform has no final state")
	ErrNotApplied      = errors.New("action was never applied")
)

// Kind tags the concrete action type.
type Kind int

const (
	KindAdd Kind = iota + 1
	KindDelete
	KindGroup
	KindTransform
	KindComposite
)

var kindNames = map[Kind]string{
	KindAdd:       "add_segments",
	KindDelete:    "delete_segments",
	KindGroup:     "group_segments",
	KindTransform: "transform_segments",
	KindComposite: "composite",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	n, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown action kind %d", int(k))
	}
	return []byte(n), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, n := range kindNames {
		if n == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", text)
}

// Action is a reversible edit. The set of implementations is closed: the
// unexported method keeps other packages from adding kinds that Record would
// not know about.
type Action interface {
	Kind() Kind
	Apply(s *Scene) error
	Undo(s *Scene) error
	// ShouldKeep reports whether the action changes anything worth keeping
	// in history.
	ShouldKeep() bool

	sealed()
}

// Scene is what actions operate on.
type Scene struct {
	Segments *segment.Collection

	// Animator runs transform blends. A nil Animator applies them instantly.
	Animator *anim.Scheduler
	Duration time.Duration
	Easing   ease.TweenFunc

	// Now is the clock used to start animations; nil means time.Now.
	Now func() time.Time
}

// NewScene creates a scene over segs with instant transforms.
func NewScene(segs *segment.Collection) *Scene {
	return &Scene{Segments: segs}
}

func (s *Scene) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// resolve looks every id up in the collection.
func (s *Scene) resolve(ids []segment.InstanceID) ([]segment.Segment, error) {
	out := make([]segment.Segment, len(ids))
	for i, id := range ids {
		seg, ok := s.Segments.Get(id)
		if !ok {
			return nil, fmt.Errorf("segment %d: %w", id, segment.ErrUnknownSegment)
		}
		out[i] = seg
	}
	return out, nil
}

func idsOf(segs []segment.Segment) []segment.InstanceID {
	ids := make([]segment.InstanceID, len(segs))
	for i, s := range segs {
		ids[i] = s.InstanceID()
	}
	return ids
}
