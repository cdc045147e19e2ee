package segment

import (
	"fmt"

	"github.com/minpen/minpen/internal/geom"
)

// State is the serializable form of a segment, including any pending
// provisional stage.
type State struct {
	Kind            Kind       `json:"kind"`
	InstanceID      InstanceID `json:"instanceId"`
	SetID           SetID      `json:"setId"`
	Scale           geom.Vec   `json:"scale"`
	Translation     geom.Vec   `json:"translation"`
	TempScale       geom.Vec   `json:"tempScale"`
	TempTranslation geom.Vec   `json:"tempTranslation"`

	Points    []geom.Vec `json:"points,omitempty"`
	LineWidth float64    `json:"lineWidth,omitempty"`
	Size      *geom.Vec  `json:"size,omitempty"`
	Label     string     `json:"label,omitempty"`
	AssetID   string     `json:"assetId,omitempty"`
	Members   []State    `json:"members,omitempty"`
}

// FromState rebuilds a segment, keeping its original ids. The id counters are
// raised past the restored ids.
func FromState(st State) (Segment, error) {
	if st.InstanceID <= 0 {
		return nil, fmt.Errorf("restore segment: missing instance id")
	}
	if !st.Scale.IsFinite() || st.Scale.HasZero() {
		return nil, fmt.Errorf("restore segment %d: %w", st.InstanceID, ErrDegenerateScale)
	}
	if !st.Translation.IsFinite() {
		return nil, fmt.Errorf("restore segment %d: %w", st.InstanceID, ErrNonFinite)
	}
	// A zero temp scale means the temp stage was omitted and restores as identity.
	if st.TempScale != geom.Zero && (!st.TempScale.IsFinite() || st.TempScale.HasZero()) {
		return nil, fmt.Errorf("restore segment %d temp stage: %w", st.InstanceID, ErrDegenerateScale)
	}
	if !st.TempTranslation.IsFinite() {
		return nil, fmt.Errorf("restore segment %d temp stage: %w", st.InstanceID, ErrNonFinite)
	}

	switch st.Kind {
	case KindStroke:
		return strokeFromState(st)
	case KindGlyph:
		b, err := boxFromState(st)
		if err != nil {
			return nil, err
		}
		return &Glyph{box: b, label: st.Label}, nil
	case KindImage:
		b, err := boxFromState(st)
		if err != nil {
			return nil, err
		}
		return &Image{box: b, assetID: st.AssetID}, nil
	case KindGroup:
		return groupFromState(st)
	default:
		return nil, fmt.Errorf("restore segment %d: unknown kind %v", st.InstanceID, st.Kind)
	}
}
