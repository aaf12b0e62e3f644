package utils

import (
	"fmt"
	"sync"
	"time"
)

// DiagnosticEntry is one recorded pipeline event.
type DiagnosticEntry struct {
	At      time.Time `json:"at"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

// Diagnostics is a fixed-capacity ring of pipeline events. It is injected
// into the pipeline services instead of any ambient global log, so memory
// stays bounded no matter how many restaurants a process analyzes.
type Diagnostics struct {
	mu      sync.Mutex
	entries []DiagnosticEntry
	next    int
	full    bool
}

// NewDiagnostics creates a ring holding at most capacity entries.
func NewDiagnostics(capacity int) *Diagnostics {
	if capacity <= 0 {
		capacity = 256
	}
	return &Diagnostics{entries: make([]DiagnosticEntry, capacity)}
}

// Record appends an event, overwriting the oldest once the ring is full.
func (d *Diagnostics) Record(stage, format string, args ...interface{}) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[d.next] = DiagnosticEntry{
		At:      time.Now(),
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
	d.next++
	if d.next == len(d.entries) {
		d.next = 0
		d.full = true
	}
}

// Entries returns the recorded events oldest-first.
func (d *Diagnostics) Entries() []DiagnosticEntry {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.full {
		out := make([]DiagnosticEntry, d.next)
		copy(out, d.entries[:d.next])
		return out
	}
	out := make([]DiagnosticEntry, 0, len(d.entries))
	out = append(out, d.entries[d.next:]...)
	out = append(out, d.entries[:d.next]...)
	return out
}
