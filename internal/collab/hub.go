package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/document"
	"github.com/minpen/minpen/internal/editor"
)

var (
	ErrHubStopped = errors.New("hub stopped")
	ErrNoRoom     = errors.New("sketch is not open")
)

// Loader returns the latest document of a sketch and its version.
type Loader func(ctx context.Context, sketchID string) (*document.Snapshot, int, error)

// Saver persists a document as the given version.
type Saver func(ctx context.Context, sketchID string, version int, doc *document.Snapshot) error

// RecordSink persists exported history records.
type RecordSink func(ctx context.Context, sketchID string, records []action.Record) error

type HubOptions struct {
	Load    Loader
	Save    Saver
	Records RecordSink

	AnimationDuration time.Duration
	Easing            ease.TweenFunc
	TickInterval      time.Duration
	SaveInterval      time.Duration
	IOTimeout         time.Duration
}

type inbound struct {
	client *Client
	msg    *Message
}

type exportResult struct {
	records []action.Record
	err     error
}

type exportRequest struct {
	ctx      context.Context
	sketchID string
	reply    chan exportResult
}

// Hub owns every open room. All room and editor state is touched only by the
// goroutine running Run; clients talk to it over channels.
type Hub struct {
	opts       HubOptions
	rooms      map[string]*Room // sketchID -> room
	register   chan *Client
	unregister chan *Client
	inbox      chan inbound
	exports    chan exportRequest
	stop       chan struct{}
	done       chan struct{}
}

func NewHub(opts HubOptions) *Hub {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 16 * time.Millisecond
	}
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = 30 * time.Second
	}
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = 10 * time.Second
	}
	return &Hub{
		opts:       opts,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inbound, 256),
		exports:    make(chan exportRequest),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until Stop is called. Open rooms are saved before
// it returns.
func (h *Hub) Run() {
	defer close(h.done)

	tick := time.NewTicker(h.opts.TickInterval)
	defer tick.Stop()
	save := time.NewTicker(h.opts.SaveInterval)
	defer save.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case in := <-h.inbox:
			h.handleMessage(in.client, in.msg)
		case req := <-h.exports:
			records, err := h.export(req.ctx, req.sketchID)
			req.reply <- exportResult{records: records, err: err}
		case now := <-tick.C:
			h.tick(now)
		case <-save.C:
			h.saveDirty()
		case <-h.stop:
			h.shutdown()
			return
		}
	}
}

// Stop ends Run and waits for the final save.
func (h *Hub) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) submit(client *Client, msg *Message) {
	select {
	case h.inbox <- inbound{client: client, msg: msg}:
	case <-h.done:
	}
}

// Export persists and returns the undo history of an open sketch. The
// room's history restarts afterwards.
func (h *Hub) Export(ctx context.Context, sketchID string) ([]action.Record, error) {
	req := exportRequest{ctx: ctx, sketchID: sketchID, reply: make(chan exportResult, 1)}
	select {
	case h.exports <- req:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res.records, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) editorOptions() editor.Options {
	return editor.Options{
		AnimationDuration: h.opts.AnimationDuration,
		Easing:            h.opts.Easing,
	}
}

func (h *Hub) openRoom(sketchID string) (*Room, error) {
	if room, ok := h.rooms[sketchID]; ok {
		return room, nil
	}
	if h.opts.Load == nil {
		return nil, fmt.Errorf("open %s: no loader", sketchID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.IOTimeout)
	defer cancel()
	doc, version, err := h.opts.Load(ctx, sketchID)
	if err != nil {
		return nil, fmt.Errorf("load sketch %s: %w", sketchID, err)
	}
	room, err := newRoom(sketchID, doc, version, h.editorOptions())
	if err != nil {
		return nil, fmt.Errorf("restore sketch %s: %w", sketchID, err)
	}
	h.rooms[sketchID] = room
	slog.Info("room opened", "sketch", sketchID, "version", version, "segments", room.editor.Segments().Len())
	return room, nil
}

func (h *Hub) addClient(client *Client) {
	room, err := h.openRoom(client.SketchID)
	if err != nil {
		slog.Error("open room", "error", err, "user", client.UserID)
		client.Send(newMessage(TypeError, ErrorPayload{Message: "could not open sketch"}))
		close(client.send)
		return
	}
	room.clients[client.ClientID] = client

	welcome := newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		SketchID: room.sketchID,
		Version:  room.version,
	})
	welcome.SketchID = room.sketchID
	client.Send(welcome)

	if frame, err := frameMessage(room.sketchID, room.editor.FullFrame()); err == nil {
		client.Send(frame)
	}

	client.Send(room.presenceState())

	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	room.broadcast(joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "sketch", client.SketchID)
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.rooms[client.SketchID]
	if !ok {
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	delete(room.cursors, client.UserID)

	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	room.broadcast(leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "sketch", client.SketchID)

	if len(room.clients) == 0 {
		h.closeRoom(room)
	}
}

// closeRoom saves the room and persists its history before dropping it.
func (h *Hub) closeRoom(room *Room) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.IOTimeout)
	defer cancel()
	if _, err := h.export(ctx, room.sketchID); err != nil {
		slog.Error("export on close", "error", err, "sketch", room.sketchID)
	}
	if err := h.save(ctx, room); err != nil {
		slog.Error("save on close", "error", err, "sketch", room.sketchID)
	}
	delete(h.rooms, room.sketchID)
	slog.Info("room closed", "sketch", room.sketchID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeCommand:
		h.handleCommand(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.rooms[sender.SketchID]
	if !ok {
		return
	}

	room.cursors[sender.UserID] = &presence

	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	room.broadcast(outMsg, sender.ClientID)
}

func (h *Hub) handleCommand(sender *Client, msg *Message) {
	room, ok := h.rooms[sender.SketchID]
	if !ok {
		return
	}

	var cmd Command
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		sender.Send(h.ack(msg, CommandAckPayload{Error: ErrBadCommand.Error()}))
		return
	}

	ack, err := room.applyCommand(cmd)
	if err != nil {
		slog.Debug("command failed", "op", cmd.Op, "error", err, "user", sender.UserID)
		ack.Error = err.Error()
	} else {
		ack.OK = true
		if mutates(cmd.Op) {
			room.dirty = true
		}
	}
	sender.Send(h.ack(msg, ack))
}

func (h *Hub) ack(msg *Message, payload CommandAckPayload) *Message {
	out := newMessage(TypeCommandAck, payload)
	out.SketchID = msg.SketchID
	out.Seq = msg.Seq
	return out
}

func (h *Hub) tick(now time.Time) {
	for _, room := range h.rooms {
		if room.editor.Animating() {
			room.editor.Tick(now)
		}
	}
}

func (h *Hub) export(ctx context.Context, sketchID string) ([]action.Record, error) {
	room, ok := h.rooms[sketchID]
	if !ok {
		return nil, ErrNoRoom
	}
	records := room.editor.Export()
	if len(records) == 0 {
		return records, nil
	}
	if h.opts.Records != nil {
		if err := h.opts.Records(ctx, sketchID, records); err != nil {
			return nil, fmt.Errorf("persist records: %w", err)
		}
	}
	room.editor.ClearHistory()
	return records, nil
}

func (h *Hub) save(ctx context.Context, room *Room) error {
	if !room.dirty || h.opts.Save == nil {
		return nil
	}
	doc, version := room.snapshot()
	if err := h.opts.Save(ctx, room.sketchID, version, doc); err != nil {
		return err
	}
	room.version = version
	room.dirty = false
	slog.Debug("sketch saved", "sketch", room.sketchID, "version", version)
	return nil
}

func (h *Hub) saveDirty() {
	for _, room := range h.rooms {
		if !room.dirty {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.IOTimeout)
		if err := h.save(ctx, room); err != nil {
			slog.Error("periodic save", "error", err, "sketch", room.sketchID)
		}
		cancel()
	}
}

func (h *Hub) shutdown() {
	for _, room := range h.rooms {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.IOTimeout)
		if _, err := h.export(ctx, room.sketchID); err != nil {
			slog.Error("export on shutdown", "error", err, "sketch", room.sketchID)
		}
		if err := h.save(ctx, room); err != nil {
			slog.Error("save on shutdown", "error", err, "sketch", room.sketchID)
		}
		cancel()
		for _, c := range room.clients {
			close(c.send)
		}
	}
	clear(h.rooms)
}
