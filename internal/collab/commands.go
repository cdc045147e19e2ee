package collab

import (
	"errors"
	"fmt"

	"github.com/minpen/minpen/internal/geom"
)

var ErrBadCommand = errors.New("malformed command")

// applyCommand runs one client command against the room's editor. It must be
// called from the hub goroutine.
func (r *Room) applyCommand(cmd Command) (CommandAckPayload, error) {
	ack := CommandAckPayload{CommandID: cmd.ID}
	ed := r.editor

	switch cmd.Op {
	case OpAddStroke:
		s, err := ed.AddStroke(cmd.Points, cmd.LineWidth)
		if err != nil {
			return ack, err
		}
		ack.InstanceID, ack.SetID = s.InstanceID(), s.SetID()

	case OpAddGlyph:
		if cmd.Origin == nil || cmd.Size == nil {
			return ack, fmt.Errorf("%s needs origin and size: %w", cmd.Op, ErrBadCommand)
		}
		g, err := ed.AddGlyph(cmd.Label, *cmd.Origin, *cmd.Size)
		if err != nil {
			return ack, err
		}
		ack.InstanceID, ack.SetID = g.InstanceID(), g.SetID()

	case OpAddImage:
		if cmd.Origin == nil || cmd.Size == nil || cmd.AssetID == "" {
			return ack, fmt.Errorf("%s needs assetId, origin and size: %w", cmd.Op, ErrBadCommand)
		}
		img, err := ed.AddImage(cmd.AssetID, *cmd.Origin, *cmd.Size)
		if err != nil {
			return ack, err
		}
		ack.InstanceID, ack.SetID = img.InstanceID(), img.SetID()

	case OpSelect:
		ed.Select(cmd.IDs)
		ack.Count = len(ed.Selection())

	case OpSelectAt:
		if cmd.A == nil {
			return ack, fmt.Errorf("%s needs a: %w", cmd.Op, ErrBadCommand)
		}
		ed.SelectAt(*cmd.A)
		ack.Count = len(ed.Selection())

	case OpSelectRect, OpSelectLine:
		if cmd.A == nil || cmd.B == nil {
			return ack, fmt.Errorf("%s needs a and b: %w", cmd.Op, ErrBadCommand)
		}
		if cmd.Op == OpSelectRect {
			ack.Count = ed.SelectRect(*cmd.A, *cmd.B)
		} else {
			ack.Count = ed.SelectLine(*cmd.A, *cmd.B)
		}

	case OpSelectClear:
		ed.ClearSelection()

	case OpTransformBegin:
		return ack, ed.BeginTransform()

	case OpTransformDrag:
		if cmd.Offset == nil {
			return ack, fmt.Errorf("%s needs offset: %w", cmd.Op, ErrBadCommand)
		}
		return ack, ed.Drag(*cmd.Offset)

	case OpTransformResize:
		if cmd.Scale == nil {
			return ack, fmt.Errorf("%s needs scale: %w", cmd.Op, ErrBadCommand)
		}
		origin := geom.Zero
		if cmd.Origin != nil {
			origin = *cmd.Origin
		}
		return ack, ed.Resize(origin, *cmd.Scale)

	case OpTransformEnd:
		tr, err := ed.EndTransform()
		if err != nil {
			return ack, err
		}
		if tr != nil {
			ack.Count = len(tr.IDs())
		}

	case OpAlign:
		tr, err := ed.Align(cmd.Targets)
		if err != nil {
			return ack, err
		}
		if tr != nil {
			ack.Count = len(tr.IDs())
		}

	case OpGroup:
		set, err := ed.Group(cmd.Label, cmd.Grid)
		if err != nil {
			return ack, err
		}
		ack.SetID = set

	case OpDelete:
		ack.Count = len(ed.Selection())
		return ack, ed.Delete()

	case OpUndo:
		ok, err := ed.Undo()
		if ok {
			ack.Count = 1
		}
		return ack, err

	case OpRedo:
		ok, err := ed.Redo()
		if ok {
			ack.Count = 1
		}
		return ack, err

	default:
		return ack, fmt.Errorf("unknown op %q: %w", cmd.Op, ErrBadCommand)
	}
	return ack, nil
}

// mutates reports whether op can change the sketch.
func mutates(op string) bool {
	switch op {
	case OpSelect, OpSelectAt, OpSelectRect, OpSelectLine, OpSelectClear, OpTransformBegin:
		return false
	}
	return true
}
