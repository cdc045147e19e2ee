// Package typeid mints and checks the prefixed, sortable ids used for users,
// sketches, snapshots, exported records and uploaded assets.
package typeid

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of object an id belongs to.
type Prefix string

const (
	PrefixUser     Prefix = "user"
	PrefixSketch   Prefix = "sketch"
	PrefixSnapshot Prefix = "snap"
	PrefixRecord   Prefix = "rec"
	PrefixAsset    Prefix = "asset"
)

// ErrWrongPrefix is returned by Validate for a well-formed id of another kind.
var ErrWrongPrefix = errors.New("typeid: wrong prefix")

// New returns a fresh id such as "sketch_01h455vb4pex5vsknk084sn02q".
func New(p Prefix) string {
	return typeid.MustGenerate(string(p)).String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewSketchID() string   { return New(PrefixSketch) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewRecordID() string   { return New(PrefixRecord) }
func NewAssetID() string    { return New(PrefixAsset) }

// Validate reports whether id parses and carries prefix p. Asset ids double as
// file names, so anything that passes is safe to join onto a directory.
func Validate(id string, p Prefix) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", id, err)
	}
	if got := Prefix(parsed.Prefix()); got != p {
		return fmt.Errorf("id %q is a %s, want %s: %w", id, got, p, ErrWrongPrefix)
	}
	return nil
}
