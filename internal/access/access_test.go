package access_test

import (
	"testing"

	"github.com/google/uuid"

	"CoverPool/internal/access"
)

func TestParseAdminSet(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	set, err := access.ParseAdminSet(a.String() + ", " + b.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("len = %d, want 2", set.Len())
	}
	if !set.IsAdministrator(a) || !set.IsAdministrator(b) {
		t.Error("listed accounts should be administrators")
	}
	if set.IsAdministrator(uuid.New()) {
		t.Error("unlisted account should not be an administrator")
	}
}

func TestParseAdminSet_EmptyAndMalformed(t *testing.T) {
	set, err := access.ParseAdminSet("")
	if err != nil {
		t.Fatalf("empty list should parse: %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("len = %d, want 0", set.Len())
	}

	if _, err := access.ParseAdminSet("not-a-uuid"); err == nil {
		t.Error("malformed entry should fail")
	}
}

func TestSwitch(t *testing.T) {
	var s access.Switch
	if s.Paused() {
		t.Error("zero value should be unpaused")
	}
	s.SetPaused(true)
	if !s.Paused() {
		t.Error("pause not observed")
	}
	s.SetPaused(false)
	if s.Paused() {
		t.Error("unpause not observed")
	}
}
