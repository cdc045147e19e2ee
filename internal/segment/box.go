package segment

import (
	"fmt"

	"github.com/minpen/minpen/internal/geom"
)

// box is the shared geometry of rectangular segments: a local box from (0,0)
// to size.
type box struct {
	base
	size geom.Vec
}

func newBox(origin, size geom.Vec) (box, error) {
	if !origin.IsFinite() || !size.IsFinite() {
		return box{}, fmt.Errorf("box at %v size %v: %w", origin, size, ErrNonFinite)
	}
	if size.X <= 0 || size.Y <= 0 {
		return box{}, fmt.Errorf("box size %v: %w", size, ErrDegenerateScale)
	}
	b := box{base: newBase(), size: size}
	b.committed.Translation = origin
	return b, nil
}

func (b *box) local() geom.Rect      { return geom.Rect{Min: geom.Zero, Max: b.size} }
func (b *box) Bounds() geom.Rect     { return b.worldBox(b.local()) }
func (b *box) DrawBounds() geom.Rect { return b.Bounds() }
func (b *box) WorldMin() geom.Vec    { return b.Bounds().Min }
func (b *box) WorldMax() geom.Vec    { return b.Bounds().Max }

// Size returns the local width and height.
func (b *box) Size() geom.Vec { return b.size }

func (b *box) PointCollides(p geom.Vec) bool {
	return p.IsFinite() && b.Bounds().Contains(p)
}

func (b *box) LineCollides(p, q geom.Vec) bool {
	if !p.IsFinite() || !q.IsFinite() {
		return false
	}
	return geom.SegmentIntersectsRect(p, q, b.Bounds())
}

func (b *box) RectCollides(p, q geom.Vec) bool {
	if !p.IsFinite() || !q.IsFinite() {
		return false
	}
	return geom.RectFromCorners(p, q).Expand(geom.DefaultStrokeWidth).Overlaps(b.Bounds())
}

// Glyph is a typed symbol: a text label occupying a box.
type Glyph struct {
	box
	label string
}

// NewGlyph places a symbol glyph with its top-left corner at origin.
func NewGlyph(label string, origin, size geom.Vec) (*Glyph, error) {
	b, err := newBox(origin, size)
	if err != nil {
		return nil, err
	}
	return &Glyph{box: b, label: label}, nil
}

func (g *Glyph) Kind() Kind    { return KindGlyph }
func (g *Glyph) Label() string { return g.label }

func (g *Glyph) State() State {
	st := g.state(KindGlyph)
	size := g.size
	st.Size = &size
	st.Label = g.label
	return st
}

// Image is an imported picture. Pixels live with the asset collaborator; the
// segment only knows the asset id and the natural size.
type Image struct {
	box
	assetID string
}

// NewImage places an image blob with its top-left corner at origin.
func NewImage(assetID string, origin, size geom.Vec) (*Image, error) {
	b, err := newBox(origin, size)
	if err != nil {
		return nil, err
	}
	return &Image{box: b, assetID: assetID}, nil
}

func (im *Image) Kind() Kind      { return KindImage }
func (im *Image) AssetID() string { return im.assetID }

func (im *Image) State() State {
	st := im.state(KindImage)
	size := im.size
	st.Size = &size
	st.AssetID = im.assetID
	return st
}

func boxFromState(st State) (box, error) {
	if st.Size == nil || st.Size.X <= 0 || st.Size.Y <= 0 {
		return box{}, fmt.Errorf("%s %d: %w", st.Kind, st.InstanceID, ErrDegenerateScale)
	}
	var b box
	b.restore(st)
	b.size = *st.Size
	return b, nil
}
