package discovery

import (
	"errors"
	"testing"
)

func TestServiceInfo(t *testing.T) {
	svc, err := ServiceInfo("_minpen._tcp", 8080)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Port != 8080 || svc.Service != "_minpen._tcp" {
		t.Errorf("service = %+v", svc)
	}
	if len(svc.TXT) == 0 || svc.TXT[0] != "minpen" {
		t.Errorf("txt = %v", svc.TXT)
	}
}

func TestServiceInfoRejectsBadType(t *testing.T) {
	for _, s := range []string{"", "minpen", "_minpen", "_minpen._http", "_._tcp"} {
		if _, err := ServiceInfo(s, 1); !errors.Is(err, ErrBadService) {
			t.Errorf("%q: err = %v", s, err)
		}
	}
}
