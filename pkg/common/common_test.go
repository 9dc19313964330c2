package common

import "testing"

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		if id <= 0 {
			t.Fatalf("id = %d, want positive", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestRandomHex(t *testing.T) {
	a := RandomHex(16)
	b := RandomHex(16)
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("len = %d/%d, want 32 hex chars", len(a), len(b))
	}
	if a == b {
		t.Error("two random values collided")
	}
}

func TestIfEmptyStr(t *testing.T) {
	if got := IfEmptyStr("", "fallback"); got != "fallback" {
		t.Errorf("empty: got %q", got)
	}
	if got := IfEmptyStr("value", "fallback"); got != "value" {
		t.Errorf("non-empty: got %q", got)
	}
}
