// Package editor is the sketch editing facade. An Editor owns the segment
// collection, the undo log, the animation scheduler and the selection, and
// reports every visible change to a Notifier as a render Frame.
//
// An Editor is not safe for concurrent use; callers serialize access.
package editor

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/anim"
	"github.com/minpen/minpen/internal/document"
	"github.com/minpen/minpen/internal/geom"
	"github.com/minpen/minpen/internal/segment"
)

var (
	ErrNoSelection   = errors.New("nothing selected")
	ErrNoTransform   = errors.New("no transform in progress")
	ErrTransformBusy = errors.New("transform already in progress")
)

// Options configures a new Editor.
type Options struct {
	// AnimationDuration is how long animated transforms take. Zero applies
	// them on the next tick.
	AnimationDuration time.Duration
	Easing            ease.TweenFunc
	Notifier          Notifier
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Editor is the main editing engine for one sketch.
type Editor struct {
	segments  *segment.Collection
	log       *action.Log
	scheduler *anim.Scheduler
	scene     *action.Scene
	notifier  Notifier
	now       func() time.Time

	// Selection state, in collection order
	selection []segment.InstanceID

	// Live drag/resize edit
	live     *action.TransformSegments
	liveSegs []segment.Segment

	// Ids drawn by the last frame, and their painter's order
	rendered map[segment.InstanceID]bool
	order    []segment.InstanceID
}

// New creates an editor with an empty sketch.
func New(opts Options) *Editor {
	e := &Editor{
		segments: segment.NewCollection(),
		log:      action.NewLog(),
		notifier: opts.Notifier,
		now:      opts.Now,
		rendered: make(map[segment.InstanceID]bool),
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.scheduler = anim.NewScheduler(e.render)
	e.scene = &action.Scene{
		Segments: e.segments,
		Animator: e.scheduler,
		Duration: opts.AnimationDuration,
		Easing:   opts.Easing,
		Now:      e.now,
	}
	return e
}

// SetNotifier replaces the render callback.
func (e *Editor) SetNotifier(n Notifier) {
	e.notifier = n
}

// Segments exposes the live collection for read-only queries.
func (e *Editor) Segments() *segment.Collection { return e.segments }

// Log exposes the undo history.
func (e *Editor) Log() *action.Log { return e.log }

// Animating reports whether an animation is running.
func (e *Editor) Animating() bool { return e.scheduler.Live() }

// --- Content ---

// AddStroke finishes a pen stroke. If the stroke touches existing segments it
// joins their symbol: a single touched set is adopted, several touched sets
// are merged with the stroke into a fresh set. The merge is recorded together
// with the add so one undo reverses both, ungrouping first.
func (e *Editor) AddStroke(points []geom.Vec, lineWidth float64) (*segment.Stroke, error) {
	e.scheduler.Flush()
	stroke, err := segment.NewStroke(points, lineWidth)
	if err != nil {
		return nil, err
	}

	touched := e.touchedSets(stroke)
	var edit action.Action = action.NewAddSegments(stroke)
	switch len(touched) {
	case 0:
	case 1:
		edit = action.NewComposite(edit, action.NewJoinSet([]segment.Segment{stroke}, touched[0]))
	default:
		var members []segment.Segment
		for _, set := range touched {
			members = append(members, e.segments.Set(set)...)
		}
		members = append(members, stroke)
		edit = action.NewComposite(edit, action.NewGroupSegments(members, "", false))
	}

	if err := e.apply(edit); err != nil {
		return nil, err
	}
	slog.Debug("stroke added", "instance", stroke.InstanceID(), "set", stroke.SetID(), "merged", len(touched))
	return stroke, nil
}

// touchedSets returns, in collection order, the sets whose segments are hit
// by the rectangle spanned by any edge of s.
func (e *Editor) touchedSets(s *segment.Stroke) []segment.SetID {
	pts := s.WorldPoints()
	var sets []segment.SetID
	seen := make(map[segment.SetID]bool)
	for _, other := range e.segments.All() {
		if seen[other.SetID()] {
			continue
		}
		for k := 0; k+1 < len(pts); k++ {
			if other.RectCollides(pts[k], pts[k+1]) {
				seen[other.SetID()] = true
				sets = append(sets, other.SetID())
				break
			}
		}
	}
	return sets
}

// AddGlyph places a typed symbol.
func (e *Editor) AddGlyph(label string, origin, size geom.Vec) (*segment.Glyph, error) {
	e.scheduler.Flush()
	g, err := segment.NewGlyph(label, origin, size)
	if err != nil {
		return nil, err
	}
	if err := e.apply(action.NewAddSegments(g)); err != nil {
		return nil, err
	}
	return g, nil
}

// AddImage places an image asset.
func (e *Editor) AddImage(assetID string, origin, size geom.Vec) (*segment.Image, error) {
	e.scheduler.Flush()
	img, err := segment.NewImage(assetID, origin, size)
	if err != nil {
		return nil, err
	}
	if err := e.apply(action.NewAddSegments(img)); err != nil {
		return nil, err
	}
	return img, nil
}

// Group moves the selection into one new set.
func (e *Editor) Group(label string, asGrid bool) (segment.SetID, error) {
	e.scheduler.Flush()
	segs := e.selected()
	if len(segs) == 0 {
		return 0, ErrNoSelection
	}
	g := action.NewGroupSegments(segs, label, asGrid)
	if err := e.apply(g); err != nil {
		return 0, err
	}
	return g.SetID(), nil
}

// Delete removes the selection. A live drag or resize is committed first so
// the transform is recorded while its segments still exist.
func (e *Editor) Delete() error {
	e.cancelLive()
	e.scheduler.Flush()
	if len(e.selection) == 0 {
		return ErrNoSelection
	}
	d, err := action.NewDeleteSegments(e.segments, e.selection...)
	if err != nil {
		return err
	}
	e.selection = nil
	return e.apply(d)
}

// apply runs a new action and records it.
func (e *Editor) apply(a action.Action) error {
	if err := a.Apply(e.scene); err != nil {
		e.render()
		return err
	}
	e.log.Push(a)
	e.render()
	return nil
}

// --- History ---

// Undo reverses the last edit. It returns false when there was nothing to
// undo.
func (e *Editor) Undo() (bool, error) {
	e.cancelLive()
	a, err := e.log.Undo(e.scene)
	e.pruneSelection()
	e.render()
	return a != nil, err
}

// Redo re-applies the last undone edit.
func (e *Editor) Redo() (bool, error) {
	e.cancelLive()
	a, err := e.log.Redo(e.scene)
	e.pruneSelection()
	e.render()
	return a != nil, err
}

// Export drops a trailing no-op edit and returns the history in replay order.
func (e *Editor) Export() []action.Record {
	e.log.PruneTrivial()
	return e.log.Records()
}

// ClearHistory starts a new undo history. Used once exported records have
// been persisted so they are not exported twice.
func (e *Editor) ClearHistory() {
	e.scheduler.Flush()
	e.log = action.NewLog()
}

// Tick advances animations to now.
func (e *Editor) Tick(now time.Time) bool {
	return e.scheduler.Tick(now)
}

// --- Snapshots ---

// Snapshot writes the current segments into snap. Animations are completed
// first so the snapshot holds end states.
func (e *Editor) Snapshot(snap *document.Snapshot) {
	e.scheduler.Flush()
	snap.Capture(e.segments)
}

// Restore replaces the sketch with the segments of snap. History and
// selection are cleared.
func (e *Editor) Restore(snap *document.Snapshot) error {
	c, err := snap.Collection()
	if err != nil {
		return err
	}
	e.scheduler.Flush()
	e.segments = c
	e.scene.Segments = c
	e.log = action.NewLog()
	e.selection = nil
	e.live, e.liveSegs = nil, nil
	e.notify(e.FullFrame())
	return nil
}

// --- Rendering ---

// FullFrame compiles every segment, for clients that join late.
func (e *Editor) FullFrame() Frame {
	f := Frame{Full: true, Selection: e.Selection()}
	clear(e.rendered)
	for _, s := range e.segments.All() {
		compileSegment(s, geom.Identity(), s.SetID(), &f.Commands)
		clearDirty(s)
	}
	for _, cmd := range f.Commands {
		e.rendered[cmd.InstanceID] = true
	}
	e.order = drawOrder(e.segments)
	f.Order = e.order
	return f
}

// render sends the dirty segments and removals to the notifier.
func (e *Editor) render() {
	f := Frame{Selection: e.Selection()}
	present := make(map[segment.InstanceID]bool, len(e.rendered))
	for _, s := range e.segments.All() {
		if dirtyTree(s) {
			compileSegment(s, geom.Identity(), s.SetID(), &f.Commands)
			clearDirty(s)
		} else {
			markPresent(s, present)
		}
	}
	for _, cmd := range f.Commands {
		present[cmd.InstanceID] = true
	}
	for id := range e.rendered {
		if !present[id] {
			f.Removed = append(f.Removed, id)
		}
	}
	slices.Sort(f.Removed)
	e.rendered = present

	if order := drawOrder(e.segments); !slices.Equal(order, e.order) {
		e.order = order
		f.Order = order
	}
	if f.Empty() {
		return
	}
	e.notify(f)
}

func (e *Editor) notify(f Frame) {
	if e.notifier != nil {
		e.notifier.Notify(f)
	}
}

func dirtyTree(s segment.Segment) bool {
	if s.Dirty() {
		return true
	}
	if g, ok := s.(*segment.Group); ok {
		for _, m := range g.Members() {
			if dirtyTree(m) {
				return true
			}
		}
	}
	return false
}

func clearDirty(s segment.Segment) {
	s.ClearDirty()
	if g, ok := s.(*segment.Group); ok {
		for _, m := range g.Members() {
			clearDirty(m)
		}
	}
}

// drawOrder flattens groups into the ids the client draws, back to front.
func drawOrder(c *segment.Collection) []segment.InstanceID {
	present := make(map[segment.InstanceID]bool)
	var out []segment.InstanceID
	var walk func(s segment.Segment)
	walk = func(s segment.Segment) {
		if g, ok := s.(*segment.Group); ok {
			for _, m := range g.Members() {
				walk(m)
			}
			return
		}
		if !present[s.InstanceID()] {
			present[s.InstanceID()] = true
			out = append(out, s.InstanceID())
		}
	}
	for _, s := range c.All() {
		walk(s)
	}
	return out
}

func markPresent(s segment.Segment, present map[segment.InstanceID]bool) {
	if g, ok := s.(*segment.Group); ok {
		for _, m := range g.Members() {
			markPresent(m, present)
		}
		return
	}
	present[s.InstanceID()] = true
}
