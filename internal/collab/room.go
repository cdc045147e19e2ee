package collab

import (
	"encoding/json"
	"log/slog"
	"maps"
	"time"

	"github.com/minpen/minpen/internal/document"
	"github.com/minpen/minpen/internal/editor"
)

// Room is one open sketch: its editor and the clients editing it. Rooms are
// owned by the hub goroutine.
type Room struct {
	sketchID string
	clients  map[string]*Client          // clientID -> client
	cursors  map[string]*PresencePayload // userID -> last presence
	editor   *editor.Editor
	doc      *document.Snapshot
	version  int
	dirty    bool
}

func newRoom(sketchID string, doc *document.Snapshot, version int, opts editor.Options) (*Room, error) {
	r := &Room{
		sketchID: sketchID,
		clients:  make(map[string]*Client),
		cursors:  make(map[string]*PresencePayload),
		doc:      doc,
		version:  version,
	}
	opts.Notifier = editor.NotifierFunc(r.broadcastFrame)
	r.editor = editor.New(opts)
	if err := r.editor.Restore(doc); err != nil {
		return nil, err
	}
	return r, nil
}

// snapshot captures the editor into the room's document for the next
// version.
func (r *Room) snapshot() (*document.Snapshot, int) {
	r.editor.Snapshot(r.doc)
	next := r.version + 1
	r.doc.Sketch.Version = next
	r.doc.Sketch.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return r.doc, next
}

// presenceState is the snapshot of cursors sent to a joining client.
func (r *Room) presenceState() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: maps.Clone(r.cursors)})
}

func (r *Room) broadcastFrame(f editor.Frame) {
	if len(r.clients) == 0 {
		return
	}
	msg, err := frameMessage(r.sketchID, f)
	if err != nil {
		slog.Error("marshal frame", "error", err, "sketch", r.sketchID)
		return
	}
	r.broadcast(msg, "")
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	for id, c := range r.clients {
		if id != excludeClientID {
			c.Send(msg)
		}
	}
}

func frameMessage(sketchID string, f editor.Frame) (*Message, error) {
	payload, err := f.JSON()
	if err != nil {
		return nil, err
	}
	return &Message{Type: TypeFrame, SketchID: sketchID, Payload: payload}, nil
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal message", "type", typ, "error", err)
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}
