package typeid

import (
	"errors"
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	for _, p := range []Prefix{PrefixUser, PrefixSketch, PrefixSnapshot, PrefixRecord, PrefixAsset} {
		id := New(p)
		if !strings.HasPrefix(id, string(p)+"_") {
			t.Errorf("id %q lacks prefix %s", id, p)
		}
		if err := Validate(id, p); err != nil {
			t.Errorf("Validate(%q, %s): %v", id, p, err)
		}
	}
	if NewRecordID() == NewRecordID() {
		t.Error("ids should be unique")
	}
}

func TestValidateRejects(t *testing.T) {
	if err := Validate(NewSketchID(), PrefixUser); !errors.Is(err, ErrWrongPrefix) {
		t.Errorf("wrong prefix err = %v, want ErrWrongPrefix", err)
	}
	for _, id := range []string{"garbage", "asset_../../etc/passwd"} {
		err := Validate(id, PrefixAsset)
		if err == nil {
			t.Errorf("Validate(%q) should fail", id)
		}
		if errors.Is(err, ErrWrongPrefix) {
			t.Errorf("Validate(%q) = %v, want a parse error", id, err)
		}
	}
}
