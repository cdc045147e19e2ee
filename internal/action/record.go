package action

import (
	"fmt"

	"github.com/minpen/minpen/internal/segment"
)

// Record is the serializable description of an action, used when exporting
// the edit history.
type Record struct {
	Kind     Kind                 `json:"kind"`
	Segments []segment.InstanceID `json:"segments,omitempty"`
	States   []segment.State      `json:"states,omitempty"`
	Indices  []int                `json:"indices,omitempty"`
	SetID    segment.SetID        `json:"setId,omitempty"`
	Label    string               `json:"label,omitempty"`
	Grid     bool                 `json:"grid,omitempty"`
	Joined   bool                 `json:"joined,omitempty"`
	Before   []segment.Stage      `json:"before,omitempty"`
	After    []segment.Stage      `json:"after,omitempty"`
	Children []Record             `json:"children,omitempty"`
}

// RecordOf describes a. Every action kind is handled here.
func RecordOf(a Action) Record {
	switch a := a.(type) {
	case *AddSegments:
		r := Record{Kind: KindAdd, States: a.States()}
		for _, s := range a.segments {
			r.Segments = append(r.Segments, s.InstanceID())
		}
		return r
	case *DeleteSegments:
		r := Record{Kind: KindDelete, Indices: a.Indices()}
		for _, s := range a.Segments() {
			r.Segments = append(r.Segments, s.InstanceID())
		}
		return r
	case *GroupSegments:
		return Record{
			Kind:     KindGroup,
			Segments: a.IDs(),
			SetID:    a.set,
			Label:    a.info.Label,
			Grid:     a.info.Grid,
			Joined:   a.adopt,
		}
	case *TransformSegments:
		return Record{
			Kind:     KindTransform,
			Segments: a.IDs(),
			Before:   a.Before(),
			After:    a.After(),
		}
	case *Composite:
		r := Record{Kind: KindComposite}
		for _, c := range a.children {
			r.Children = append(r.Children, RecordOf(c))
		}
		return r
	default:
		panic(fmt.Sprintf("action: unhandled kind %T", a))
	}
}
