package editor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/document"
	"github.com/minpen/minpen/internal/geom"
	"github.com/minpen/minpen/internal/segment"
)

const epsilon = 1e-9

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type harness struct {
	*Editor
	clock  *clock
	frames []Frame
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clock: &clock{t: time.Unix(1000, 0)}}
	h.Editor = New(Options{
		AnimationDuration: 250 * time.Millisecond,
		Now:               h.clock.now,
		Notifier:          NotifierFunc(func(f Frame) { h.frames = append(h.frames, f) }),
	})
	return h
}

// settle ticks until no animation is running.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	for i := 0; h.Animating(); i++ {
		if i > 1000 {
			t.Fatal("animation never finished")
		}
		h.clock.t = h.clock.t.Add(16 * time.Millisecond)
		h.Tick(h.clock.t)
	}
}

func (h *harness) lastFrame(t *testing.T) Frame {
	t.Helper()
	if len(h.frames) == 0 {
		t.Fatal("no frames rendered")
	}
	return h.frames[len(h.frames)-1]
}

func (h *harness) stroke(t *testing.T, pts ...geom.Vec) *segment.Stroke {
	t.Helper()
	s, err := h.AddStroke(pts, 4)
	if err != nil {
		t.Fatalf("AddStroke: %v", err)
	}
	return s
}

func assertVec(t *testing.T, name string, got, want geom.Vec) {
	t.Helper()
	if math.Abs(got.X-want.X) > epsilon || math.Abs(got.Y-want.Y) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestAddStrokeRendersAndUndoRemoves(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))

	f := h.lastFrame(t)
	if len(f.Commands) != 1 || f.Commands[0].Op != "stroke" || f.Commands[0].InstanceID != s.InstanceID() {
		t.Fatalf("frame = %+v", f)
	}
	if got := f.Commands[0].Transform; got[4] != 0 || got[5] != 0 || got[0] != 1 {
		t.Errorf("transform = %v", got)
	}
	if len(f.Order) != 1 {
		t.Errorf("order = %v", f.Order)
	}

	if ok, err := h.Undo(); !ok || err != nil {
		t.Fatalf("Undo = %v, %v", ok, err)
	}
	f = h.lastFrame(t)
	if len(f.Removed) != 1 || f.Removed[0] != s.InstanceID() {
		t.Errorf("removed = %v", f.Removed)
	}
	if h.Segments().Len() != 0 {
		t.Error("undo should remove the stroke")
	}
	if ok, _ := h.Undo(); ok {
		t.Error("second undo should be a no-op")
	}
}

func TestAddStrokeAdoptsTouchedSet(t *testing.T) {
	h := newHarness(t)
	a := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	far := h.stroke(t, geom.V(100, 100), geom.V(110, 110))
	if far.SetID() == a.SetID() {
		t.Fatal("distant stroke should not merge")
	}

	b := h.stroke(t, geom.V(5, -5), geom.V(5, 5))
	if b.SetID() != a.SetID() {
		t.Fatalf("crossing stroke set = %d, want %d", b.SetID(), a.SetID())
	}
	own := h.Log().Last()
	if own.Kind() != action.KindComposite {
		t.Errorf("merge recorded as %v, want composite", own.Kind())
	}

	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.Segments().Get(b.InstanceID()); ok {
		t.Error("undo should remove the merged stroke")
	}
	if b.SetID() == a.SetID() {
		t.Error("undo should restore the stroke's own set")
	}
}

func TestAddStrokeMergesSeveralSets(t *testing.T) {
	h := newHarness(t)
	a := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	c := h.stroke(t, geom.V(0, 20), geom.V(10, 20))
	setA, setC := a.SetID(), c.SetID()

	b := h.stroke(t, geom.V(5, -5), geom.V(5, 25))
	if a.SetID() != b.SetID() || c.SetID() != b.SetID() {
		t.Fatalf("sets = %d %d %d, want one set", a.SetID(), b.SetID(), c.SetID())
	}
	if b.SetID() == setA || b.SetID() == setC {
		t.Error("merge of several sets should use a fresh set")
	}

	_, _ = h.Undo()
	if a.SetID() != setA || c.SetID() != setC {
		t.Errorf("undo sets = %d %d, want %d %d", a.SetID(), c.SetID(), setA, setC)
	}
	if h.Segments().Len() != 2 {
		t.Errorf("len = %d, want 2", h.Segments().Len())
	}

	_, _ = h.Redo()
	if a.SetID() != c.SetID() || h.Segments().Len() != 3 {
		t.Error("redo should merge again")
	}
}

func TestDragRecordsUndoableAnimatedMove(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))

	if !h.SelectAt(geom.V(5, 0)) {
		t.Fatal("SelectAt missed the stroke")
	}
	if err := h.BeginTransform(); err != nil {
		t.Fatal(err)
	}
	if err := h.BeginTransform(); !errors.Is(err, ErrTransformBusy) {
		t.Errorf("nested begin err = %v", err)
	}
	_ = h.Drag(geom.V(60, 0))
	_ = h.Drag(geom.V(40, 0))
	tr, err := h.EndTransform()
	if err != nil || tr == nil {
		t.Fatalf("EndTransform = %v, %v", tr, err)
	}
	assertVec(t, "dragged", s.Committed().Translation, geom.V(100, 0))

	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if !h.Animating() {
		t.Fatal("undo of a move should animate")
	}
	h.settle(t)
	if got := s.Committed().Translation; got != geom.V(0, 0) {
		t.Errorf("after undo = %v, want exactly (0,0)", got)
	}

	_, _ = h.Redo()
	h.settle(t)
	if got := s.Committed().Translation; got != geom.V(100, 0) {
		t.Errorf("after redo = %v, want exactly (100,0)", got)
	}
}

func TestEmptyDragIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	h.Select([]segment.InstanceID{s.InstanceID()})
	_ = h.BeginTransform()
	tr, err := h.EndTransform()
	if err != nil || tr != nil {
		t.Errorf("EndTransform = %v, %v", tr, err)
	}
	if h.Log().Len() != 1 {
		t.Errorf("log len = %d, want 1", h.Log().Len())
	}
	if _, err := h.EndTransform(); !errors.Is(err, ErrNoTransform) {
		t.Errorf("err = %v, want ErrNoTransform", err)
	}
}

func TestResizePreviewThenCommit(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	h.Select([]segment.InstanceID{s.InstanceID()})

	_ = h.BeginTransform()
	if err := h.Resize(geom.V(0, 0), geom.V(3, 3)); err != nil {
		t.Fatal(err)
	}
	if err := h.Resize(geom.V(0, 0), geom.V(2, 2)); err != nil {
		t.Fatal(err)
	}
	if err := h.Resize(geom.V(0, 0), geom.V(0, 2)); !errors.Is(err, segment.ErrDegenerateScale) {
		t.Errorf("zero scale err = %v", err)
	}
	assertVec(t, "preview max", s.WorldMax(), geom.V(20, 0))
	if _, err := h.EndTransform(); err != nil {
		t.Fatal(err)
	}
	assertVec(t, "committed max", s.WorldMax(), geom.V(20, 0))
	if !s.Provisional().IsIdentity() {
		t.Error("EndTransform should freeze")
	}
}

func TestAlignMovesSetToTarget(t *testing.T) {
	h := newHarness(t)
	g, err := h.AddGlyph("x", geom.V(0, 0), geom.V(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	target := geom.Rect{Min: geom.V(50, 50), Max: geom.V(70, 90)}
	tr, err := h.Align([]AlignTarget{{SetID: g.SetID(), Bounds: target}})
	if err != nil || tr == nil {
		t.Fatalf("Align = %v, %v", tr, err)
	}
	if !h.Animating() {
		t.Fatal("alignment should animate")
	}
	assertVec(t, "start min", g.WorldMin(), geom.V(0, 0))
	h.settle(t)
	if g.Bounds() != target {
		t.Errorf("bounds = %+v, want %+v", g.Bounds(), target)
	}

	_, _ = h.Undo()
	h.settle(t)
	assertVec(t, "undo min", g.WorldMin(), geom.V(0, 0))
	assertVec(t, "undo max", g.WorldMax(), geom.V(10, 10))
}

func TestAlignRepeatedSetUsesFirstTarget(t *testing.T) {
	h := newHarness(t)
	g, err := h.AddGlyph("x", geom.V(0, 0), geom.V(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	first := geom.Rect{Min: geom.V(50, 50), Max: geom.V(70, 90)}
	second := geom.Rect{Min: geom.V(200, 200), Max: geom.V(210, 210)}
	tr, err := h.Align([]AlignTarget{
		{SetID: g.SetID(), Bounds: first},
		{SetID: g.SetID(), Bounds: second},
	})
	if err != nil || tr == nil {
		t.Fatalf("Align = %v, %v", tr, err)
	}
	if n := len(tr.IDs()); n != 1 {
		t.Errorf("transformed ids = %d, want 1", n)
	}
	h.settle(t)
	if g.Bounds() != first {
		t.Errorf("bounds = %+v, want %+v", g.Bounds(), first)
	}

	_, _ = h.Undo()
	h.settle(t)
	assertVec(t, "undo min", g.WorldMin(), geom.V(0, 0))
	assertVec(t, "undo max", g.WorldMax(), geom.V(10, 10))
}

func TestDeleteDuringDragKeepsHistoryUndoable(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	h.Select([]segment.InstanceID{s.InstanceID()})

	if err := h.BeginTransform(); err != nil {
		t.Fatal(err)
	}
	_ = h.Drag(geom.V(30, 0))
	if err := h.Delete(); err != nil {
		t.Fatal(err)
	}
	if h.Segments().Len() != 0 {
		t.Fatalf("segments = %d, want 0", h.Segments().Len())
	}
	if _, err := h.EndTransform(); !errors.Is(err, ErrNoTransform) {
		t.Errorf("EndTransform after delete err = %v, want ErrNoTransform", err)
	}
	if h.Log().Len() != 3 {
		t.Fatalf("log len = %d, want add, move and delete", h.Log().Len())
	}

	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo delete: %v", err)
	}
	if h.Segments().Len() != 1 {
		t.Fatalf("segments after undo = %d, want 1", h.Segments().Len())
	}
	assertVec(t, "restored", s.Committed().Translation, geom.V(30, 0))

	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo move: %v", err)
	}
	h.settle(t)
	assertVec(t, "move undone", s.Committed().Translation, geom.V(0, 0))

	if _, err := h.Undo(); err != nil {
		t.Fatalf("undo add: %v", err)
	}
	h.settle(t)
	if h.Segments().Len() != 0 || h.Log().Len() != 0 {
		t.Errorf("segments = %d, log len = %d, want both 0", h.Segments().Len(), h.Log().Len())
	}
}

func TestDeleteRestoresOrder(t *testing.T) {
	h := newHarness(t)
	var ids []segment.InstanceID
	for i := 0; i < 3; i++ {
		g, err := h.AddGlyph("g", geom.V(float64(i*30), 0), geom.V(10, 10))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, g.InstanceID())
	}
	if err := h.Delete(); !errors.Is(err, ErrNoSelection) {
		t.Errorf("err = %v, want ErrNoSelection", err)
	}
	h.Select(ids[1:2])
	if err := h.Delete(); err != nil {
		t.Fatal(err)
	}
	if h.Segments().Len() != 2 || len(h.Selection()) != 0 {
		t.Fatal("delete should remove the selection")
	}
	_, _ = h.Undo()
	got := h.Segments().IDs()
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("order = %v, want %v", got, ids)
			break
		}
	}
}

func TestGroupAndSelectRectSelectsWholeSets(t *testing.T) {
	h := newHarness(t)
	a := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	b := h.stroke(t, geom.V(200, 0), geom.V(210, 0))
	other := h.stroke(t, geom.V(400, 0), geom.V(410, 0))

	h.Select([]segment.InstanceID{a.InstanceID(), b.InstanceID()})
	set, err := h.Group("pair", false)
	if err != nil {
		t.Fatal(err)
	}
	r, ok := h.SetBounds(set)
	if !ok {
		t.Fatal("SetBounds missing")
	}
	assertVec(t, "set max", r.Max, geom.V(210, 0))

	if n := h.SelectRect(geom.V(-5, -5), geom.V(15, 5)); n != 2 {
		t.Errorf("SelectRect selected %d, want 2", n)
	}
	for _, id := range h.Selection() {
		if id == other.InstanceID() {
			t.Error("unrelated stroke selected")
		}
	}
	if n := h.SelectLine(geom.V(405, -5), geom.V(405, 5)); n != 1 || h.Selection()[0] != other.InstanceID() {
		t.Errorf("SelectLine = %d %v", n, h.Selection())
	}
	if h.SelectAt(geom.V(300, 300)) {
		t.Error("empty space should not select")
	}
}

func TestExportPrunesAndRecords(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	h.Select([]segment.InstanceID{s.InstanceID()})
	_ = h.BeginTransform()
	_ = h.Drag(geom.V(5, 5))
	_, _ = h.EndTransform()

	recs := h.Export()
	if len(recs) != 2 || recs[0].Kind != action.KindAdd || recs[1].Kind != action.KindTransform {
		t.Errorf("records = %+v", recs)
	}
}

func TestSnapshotRestore(t *testing.T) {
	h := newHarness(t)
	s := h.stroke(t, geom.V(0, 0), geom.V(10, 0))
	_, _ = h.AddGlyph("y", geom.V(50, 0), geom.V(10, 10))

	snap := document.NewEmptySnapshot("sketch_x", "x")
	h.Snapshot(snap)

	other := newHarness(t)
	if err := other.Restore(snap); err != nil {
		t.Fatal(err)
	}
	f := other.lastFrame(t)
	if !f.Full || len(f.Commands) != 2 {
		t.Errorf("restore frame = %+v", f)
	}
	restored, ok := other.Segments().Get(s.InstanceID())
	if !ok {
		t.Fatal("stroke id lost")
	}
	if restored.Bounds() != s.Bounds() {
		t.Errorf("bounds = %+v, want %+v", restored.Bounds(), s.Bounds())
	}
	if other.Log().CanUndo() {
		t.Error("restore should start a fresh history")
	}
}

func TestGroupSegmentRendersMembers(t *testing.T) {
	h := newHarness(t)
	a, _ := segment.NewStroke([]geom.Vec{geom.V(0, 0), geom.V(10, 0)}, 2)
	b, _ := segment.NewGlyph("z", geom.V(0, 10), geom.V(5, 5))
	grp, err := segment.NewGroup(a, b)
	if err != nil {
		t.Fatal(err)
	}
	grp.Translate(geom.V(100, 0))
	if err := h.apply(action.NewAddSegments(grp)); err != nil {
		t.Fatal(err)
	}
	f := h.lastFrame(t)
	if len(f.Commands) != 2 {
		t.Fatalf("commands = %d, want 2", len(f.Commands))
	}
	for _, cmd := range f.Commands {
		if cmd.SetID != grp.SetID() {
			t.Errorf("member %d set = %d, want group set", cmd.InstanceID, cmd.SetID)
		}
		if cmd.Transform[4] != 100 {
			t.Errorf("member %d e = %v, want 100", cmd.InstanceID, cmd.Transform[4])
		}
	}
	assertVec(t, "glyph bounds min", f.Commands[1].Bounds.Min, geom.V(100, 10))
}
