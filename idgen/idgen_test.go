package idgen

import (
	"strings"
	"testing"
)

func TestNanoID_LengthAndAlphabet(t *testing.T) {
	// WHAT: NanoID produces IDs of the requested length from [0-9a-z].
	// WHY: render file names embed these IDs and must stay URL- and
	// filesystem-safe.
	gen := NanoID(12)
	for range 100 {
		id := gen()
		if len(id) != 12 {
			t.Fatalf("expected length 12, got %d (%q)", len(id), id)
		}
		for _, r := range id {
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
				t.Fatalf("unexpected character %q in %q", r, id)
			}
		}
	}
}

func TestUUIDv7_Unique(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]bool)
	for range 1000 {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("ren_", NanoID(6))
	id := gen()
	if !strings.HasPrefix(id, "ren_") || len(id) != 10 {
		t.Errorf("unexpected ID: %q", id)
	}
}

func TestRenderID_DistinctWithinSameSecond(t *testing.T) {
	// WHAT: two render IDs minted back-to-back differ.
	// WHY: two renders of the same URL must never share an output directory
	// — that is the whole collision-avoidance story for /render.
	gen := RenderID()
	a, b := gen(), gen()
	if a == b {
		t.Fatalf("render IDs collided: %s", a)
	}
	if !strings.Contains(a, "_") {
		t.Errorf("expected timestamp_suffix shape, got %q", a)
	}
}

func TestParse(t *testing.T) {
	id := New()
	got, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q): %v", id, err)
	}
	if got != id {
		t.Errorf("Parse changed ID: %q → %q", id, got)
	}
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}
