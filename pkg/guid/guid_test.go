package guid

import (
	"encoding/hex"
	"testing"
)

func TestWithoutDashesShape(t *testing.T) {
	id := WithoutDashes()
	if len(id) != 32 {
		t.Fatalf("expected 32 chars, got %d (%q)", len(id), id)
	}
	if _, err := hex.DecodeString(id); err != nil {
		t.Fatalf("expected hex identifier, got %q: %v", id, err)
	}
}

func TestWithoutDashesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := WithoutDashes()
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
}
