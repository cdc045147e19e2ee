package collab

import (
	"encoding/json"

	"github.com/minpen/minpen/internal/editor"
	"github.com/minpen/minpen/internal/geom"
	"github.com/minpen/minpen/internal/segment"
)

type Message struct {
	Type     string          `json:"type"`
	SketchID string          `json:"sketchId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	SketchID string `json:"sketchId"`
	Version  int    `json:"version"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Rendering
	TypeFrame = "render.frame"

	// Editing
	TypeCommand    = "edit.command"
	TypeCommandAck = "edit.ack"
)

// --- Edit commands ---

// Command operation names.
const (
	OpAddStroke       = "stroke.add"
	OpAddGlyph        = "glyph.add"
	OpAddImage        = "image.add"
	OpSelect          = "select"
	OpSelectAt        = "select.at"
	OpSelectRect      = "select.rect"
	OpSelectLine      = "select.line"
	OpSelectClear     = "select.clear"
	OpTransformBegin  = "transform.begin"
	OpTransformDrag   = "transform.drag"
	OpTransformResize = "transform.resize"
	OpTransformEnd    = "transform.end"
	OpAlign           = "align"
	OpGroup           = "group"
	OpDelete          = "delete"
	OpUndo            = "undo"
	OpRedo            = "redo"
)

// Command is one editor request from a client. Which fields are read
// depends on Op.
type Command struct {
	ID string `json:"id"`
	Op string `json:"op"`

	// stroke.add
	Points    []geom.Vec `json:"points,omitempty"`
	LineWidth float64    `json:"lineWidth,omitempty"`

	// glyph.add / image.add
	Label   string    `json:"label,omitempty"`
	AssetID string    `json:"assetId,omitempty"`
	Origin  *geom.Vec `json:"origin,omitempty"`
	Size    *geom.Vec `json:"size,omitempty"`

	// select
	IDs []segment.InstanceID `json:"ids,omitempty"`

	// select.at / select.rect / select.line
	A *geom.Vec `json:"a,omitempty"`
	B *geom.Vec `json:"b,omitempty"`

	// transform.drag / transform.resize
	Offset *geom.Vec `json:"offset,omitempty"`
	Scale  *geom.Vec `json:"scale,omitempty"`

	// align
	Targets []editor.AlignTarget `json:"targets,omitempty"`

	// group
	Grid bool `json:"grid,omitempty"`
}

// CommandAckPayload reports the outcome of a command to its sender.
type CommandAckPayload struct {
	CommandID  string             `json:"commandId"`
	OK         bool               `json:"ok"`
	Error      string             `json:"error,omitempty"`
	InstanceID segment.InstanceID `json:"instanceId,omitempty"`
	SetID      segment.SetID      `json:"setId,omitempty"`
	Count      int                `json:"count,omitempty"`
}
