package document

import (
	"encoding/json"
	"fmt"

	"github.com/minpen/minpen/internal/segment"
)

// Snapshot is the persisted form of a sketch: its metadata plus every segment
// in painter's order.
type Snapshot struct {
	Sketch   Sketch                            `json:"sketch"`
	Segments []segment.State                   `json:"segments"`
	Sets     map[segment.SetID]segment.SetInfo `json:"sets"`
	Assets   map[string]Asset                  `json:"assets"`
}

type Sketch struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
}

type Asset struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Name string          `json:"name"`
	URL  string          `json:"url"`
	Meta json.RawMessage `json:"meta,omitempty"`
}

// NewEmptySnapshot creates the document for a new sketch.
func NewEmptySnapshot(sketchID, name string) *Snapshot {
	return &Snapshot{
		Sketch: Sketch{
			ID:         sketchID,
			Name:       name,
			Version:    1,
			CreatedAt:  "", // Will be set by caller
			UpdatedAt:  "",
			Width:      1280,
			Height:     720,
			Background: "#ffffff",
		},
		Segments: []segment.State{},
		Sets:     map[segment.SetID]segment.SetInfo{},
		Assets:   map[string]Asset{},
	}
}

// Capture records the state of every segment in c, in order, into snap.
// Pending provisional stages are kept as they are.
func (snap *Snapshot) Capture(c *segment.Collection) {
	snap.Segments = make([]segment.State, 0, c.Len())
	for _, s := range c.All() {
		snap.Segments = append(snap.Segments, s.State())
	}
	snap.Sets = c.Sets()
}

// Collection rebuilds the segments, keeping their instance and set ids.
func (snap *Snapshot) Collection() (*segment.Collection, error) {
	c := segment.NewCollection()
	for i, st := range snap.Segments {
		s, err := segment.FromState(st)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if err := c.Append(s); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
	}
	for id, info := range snap.Sets {
		c.SetSetInfo(id, info)
	}
	return c, nil
}

// Parse decodes a snapshot from JSON.
func Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Sets == nil {
		snap.Sets = map[segment.SetID]segment.SetInfo{}
	}
	if snap.Assets == nil {
		snap.Assets = map[string]Asset{}
	}
	return &snap, nil
}
