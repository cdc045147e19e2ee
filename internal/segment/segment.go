// Package segment holds the drawable primitives of a sketch and their
// two-stage transform.
//
// Every segment maps a local point p to world space as
//
//	world(p) = ((p ⊙ Scale) + Translation) ⊙ TempScale + TempTranslation
//
// The committed stage (Scale, Translation) is what gets persisted. The
// provisional stage (TempScale, TempTranslation) carries live resize previews
// and is identity whenever no edit is pending. FreezeTransform folds the
// provisional stage into the committed one without moving any world point.
package segment

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/minpen/minpen/internal/geom"
)

var (
	ErrDegenerateScale  = errors.New("degenerate scale")
	ErrTooFewPoints     = errors.New("stroke needs at least two points")
	ErrNonFinite        = errors.New("non-finite coordinate")
	ErrEmptyGroup       = errors.New("group has no members")
	ErrUnknownSegment   = errors.New("unknown segment")
	ErrDuplicateSegment = errors.New("segment already in collection")
)

// InstanceID identifies one drawable primitive for the life of the process.
type InstanceID int64

// SetID identifies the logical symbol a primitive belongs to.
type SetID int64

var (
	instanceCount atomic.Int64
	setCount      atomic.Int64
)

// NextInstanceID hands out the next process-unique instance id.
func NextInstanceID() InstanceID {
	return InstanceID(instanceCount.Add(1))
}

// NewSetID allocates a fresh set id.
func NewSetID() SetID {
	return SetID(setCount.Add(1))
}

// ReserveIDs raises the id counters so ids restored from a snapshot are never
// handed out again.
func ReserveIDs(inst InstanceID, set SetID) {
	raise(&instanceCount, int64(inst))
	raise(&setCount, int64(set))
}

func raise(c *atomic.Int64, v int64) {
	for {
		cur := c.Load()
		if cur >= v || c.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Kind tags the concrete segment type.
type Kind int

const (
	KindStroke Kind = iota + 1
	KindGlyph
	KindImage
	KindGroup
)

var kindNames = map[Kind]string{
	KindStroke: "pen_stroke",
	KindGlyph:  "symbol_glyph",
	KindImage:  "image_blob",
	KindGroup:  "segment_group",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	n, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown segment kind %d", int(k))
	}
	return []byte(n), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, n := range kindNames {
		if n == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown segment kind %q", text)
}

// Stage is one (scale, translation) step of a segment transform.
type Stage struct {
	Scale       geom.Vec `json:"scale"`
	Translation geom.Vec `json:"translation"`
}

// IdentityStage is scale (1,1), translation (0,0).
func IdentityStage() Stage {
	return Stage{Scale: geom.One, Translation: geom.Zero}
}

// Apply maps p through the stage.
func (s Stage) Apply(p geom.Vec) geom.Vec {
	return p.Transform(s.Scale, s.Translation)
}

// Invert maps a point back through the stage. The scale must have no zero
// component; Resize guarantees that for every stage it produces.
func (s Stage) Invert(p geom.Vec) geom.Vec {
	return p.Sub(s.Translation).Div(s.Scale)
}

// Then composes s followed by next into a single stage:
// scale = s.Scale ⊙ next.Scale, translation = next.Translation + next.Scale ⊙ s.Translation.
func (s Stage) Then(next Stage) Stage {
	return Stage{
		Scale:       s.Scale.Mul(next.Scale),
		Translation: next.Translation.Add(next.Scale.Mul(s.Translation)),
	}
}

// Lerp blends two stages componentwise.
func (s Stage) Lerp(to Stage, t float64) Stage {
	return Stage{Scale: s.Scale.Lerp(to.Scale, t), Translation: s.Translation.Lerp(to.Translation, t)}
}

// Matrix returns the stage as an affine matrix.
func (s Stage) Matrix() geom.Matrix {
	return geom.Stage(s.Scale, s.Translation)
}

// IsIdentity reports whether the stage is exactly the identity.
func (s Stage) IsIdentity() bool {
	return s == IdentityStage()
}

// Segment is the capability set shared by every drawable primitive.
type Segment interface {
	InstanceID() InstanceID
	SetID() SetID
	SetSetID(SetID)
	Kind() Kind

	Committed() Stage
	SetCommitted(Stage)
	Provisional() Stage
	World(p geom.Vec) geom.Vec
	Matrix() geom.Matrix

	Bounds() geom.Rect
	DrawBounds() geom.Rect
	WorldMin() geom.Vec
	WorldMax() geom.Vec

	Translate(offset geom.Vec)
	Resize(origin, scale geom.Vec) error
	FreezeTransform()

	PointCollides(p geom.Vec) bool
	LineCollides(a, b geom.Vec) bool
	RectCollides(a, b geom.Vec) bool

	Dirty() bool
	MarkDirty()
	ClearDirty()

	State() State
}

// base carries identity and the two transform stages for every kind.
type base struct {
	id        InstanceID
	set       SetID
	committed Stage
	temp      Stage
	dirty     bool
}

func newBase() base {
	return base{
		id:        NextInstanceID(),
		set:       NewSetID(),
		committed: IdentityStage(),
		temp:      IdentityStage(),
		dirty:     true,
	}
}

func (b *base) InstanceID() InstanceID { return b.id }
func (b *base) SetID() SetID           { return b.set }
func (b *base) Committed() Stage       { return b.committed }
func (b *base) Provisional() Stage     { return b.temp }
func (b *base) Dirty() bool            { return b.dirty }
func (b *base) MarkDirty()             { b.dirty = true }
func (b *base) ClearDirty()            { b.dirty = false }

// SetSetID moves the segment into another set.
func (b *base) SetSetID(s SetID) {
	b.set = s
	b.dirty = true
}

// SetCommitted replaces the committed stage. Used by transform actions when
// they blend between snapshots.
func (b *base) SetCommitted(s Stage) {
	b.committed = s
	b.dirty = true
}

// World maps a local point through the committed stage, then the provisional one.
func (b *base) World(p geom.Vec) geom.Vec {
	return b.temp.Apply(b.committed.Apply(p))
}

// Matrix is the composed local-to-world matrix (provisional * committed).
func (b *base) Matrix() geom.Matrix {
	return b.temp.Matrix().Multiply(b.committed.Matrix())
}

// worldBox maps a local box through both stages.
func (b *base) worldBox(local geom.Rect) geom.Rect {
	return local.
		Transform(b.committed.Scale, b.committed.Translation).
		Transform(b.temp.Scale, b.temp.Translation)
}

// unproject maps a world point back through the provisional then the
// committed stage.
func (b *base) unproject(p geom.Vec) geom.Vec {
	return b.committed.Invert(b.temp.Invert(p))
}

// Translate adds offset to the committed translation.
func (b *base) Translate(offset geom.Vec) {
	b.committed.Translation = b.committed.Translation.Add(offset)
	b.dirty = true
}

// Resize sets the provisional stage to scale about origin, so origin itself
// stays fixed. A scale with a NaN, infinite or zero component is rejected and
// the segment is left untouched.
func (b *base) Resize(origin, scale geom.Vec) error {
	if !scale.IsFinite() || scale.HasZero() {
		return fmt.Errorf("resize %d by %v: %w", b.id, scale, ErrDegenerateScale)
	}
	if !origin.IsFinite() {
		return fmt.Errorf("resize %d about %v: %w", b.id, origin, ErrNonFinite)
	}
	b.temp = Stage{
		Scale:       scale,
		Translation: origin.Sub(origin.Mul(scale)),
	}
	b.dirty = true
	return nil
}

// FreezeTransform commits the provisional stage:
//
//	translation' = temp_translation + temp_scale ⊙ translation
//	scale'       = scale ⊙ temp_scale
//
// and resets the provisional stage to identity.
func (b *base) FreezeTransform() {
	b.committed = b.committed.Then(b.temp)
	b.temp = IdentityStage()
	b.dirty = true
}

func (b *base) state(k Kind) State {
	return State{
		Kind:            k,
		InstanceID:      b.id,
		SetID:           b.set,
		Scale:           b.committed.Scale,
		Translation:     b.committed.Translation,
		TempScale:       b.temp.Scale,
		TempTranslation: b.temp.Translation,
	}
}

func (b *base) restore(st State) {
	b.id = st.InstanceID
	b.set = st.SetID
	b.committed = Stage{Scale: st.Scale, Translation: st.Translation}
	b.temp = Stage{Scale: st.TempScale, Translation: st.TempTranslation}
	if b.temp.Scale == geom.Zero {
		b.temp = IdentityStage()
	}
	b.dirty = true
	ReserveIDs(st.InstanceID, st.SetID)
}
