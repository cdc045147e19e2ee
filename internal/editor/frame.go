package editor

import (
	"encoding/json"

	"github.com/minpen/minpen/internal/geom"
	"github.com/minpen/minpen/internal/segment"
)

// DrawCommand is one segment as the client should draw it. Stroke points are
// in local space; Transform maps them to world space.
type DrawCommand struct {
	Op           string             `json:"op"` // "stroke", "glyph", "image"
	InstanceID   segment.InstanceID `json:"instanceId"`
	SetID        segment.SetID      `json:"setId"`
	Kind         segment.Kind       `json:"kind"`
	Transform    []float64          `json:"transform"` // [a, b, c, d, e, f] affine matrix
	Bounds       geom.Rect          `json:"bounds"`
	Points       []geom.Vec         `json:"points,omitempty"`
	StrokeWidth  float64            `json:"strokeWidth,omitempty"`
	Label        string             `json:"label,omitempty"`
	ImageAssetID string             `json:"imageAssetId,omitempty"`
	Width        float64            `json:"width,omitempty"`
	Height       float64            `json:"height,omitempty"`
}

// Frame is the render update produced after an edit or animation step.
type Frame struct {
	Full      bool                 `json:"full,omitempty"` // replaces everything the client has
	Commands  []DrawCommand        `json:"commands"`
	Removed   []segment.InstanceID `json:"removed,omitempty"`
	Order     []segment.InstanceID `json:"order,omitempty"` // painter's order, sent when it changed
	Selection []segment.InstanceID `json:"selection"`
}

// Empty reports whether the frame carries no changes.
func (f Frame) Empty() bool {
	return !f.Full && len(f.Commands) == 0 && len(f.Removed) == 0 && f.Order == nil
}

// JSON serializes the frame.
func (f Frame) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Notifier receives render frames.
type Notifier interface {
	Notify(Frame)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Frame)

func (fn NotifierFunc) Notify(f Frame) { fn(f) }

// compileSegment appends draw commands for s. Groups expand into their
// members with the group's matrix applied on top.
func compileSegment(s segment.Segment, outer geom.Matrix, set segment.SetID, out *[]DrawCommand) {
	m := outer.Multiply(s.Matrix())
	cmd := DrawCommand{
		InstanceID: s.InstanceID(),
		SetID:      set,
		Kind:       s.Kind(),
		Transform:  m.ToSlice(),
		Bounds:     s.Bounds().Transform(geom.V(outer[0], outer[3]), geom.V(outer[4], outer[5])),
	}
	switch s := s.(type) {
	case *segment.Stroke:
		cmd.Op = "stroke"
		cmd.Points = s.LocalPoints()
		cmd.StrokeWidth = s.LineWidth()
	case *segment.Glyph:
		cmd.Op = "glyph"
		cmd.Label = s.Label()
		cmd.Width, cmd.Height = s.Size().X, s.Size().Y
	case *segment.Image:
		cmd.Op = "image"
		cmd.ImageAssetID = s.AssetID()
		cmd.Width, cmd.Height = s.Size().X, s.Size().Y
	case *segment.Group:
		for _, member := range s.Members() {
			compileSegment(member, m, set, out)
		}
		return
	}
	*out = append(*out, cmd)
}
