package utils

import (
	"fmt"
	"testing"
)

func TestDiagnosticsStaysBounded(t *testing.T) {
	diag := NewDiagnostics(4)
	for i := 0; i < 10; i++ {
		diag.Record("stage", "event %d", i)
	}

	entries := diag.Entries()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	// Oldest-first, holding only the most recent events.
	for i, entry := range entries {
		want := fmt.Sprintf("event %d", 6+i)
		if entry.Message != want {
			t.Errorf("entry %d = %q, want %q", i, entry.Message, want)
		}
	}
}

func TestDiagnosticsNilSafe(t *testing.T) {
	var diag *Diagnostics
	diag.Record("stage", "should not panic")
	if entries := diag.Entries(); entries != nil {
		t.Errorf("nil Diagnostics returned entries: %v", entries)
	}
}
