// Package trace provides TraceSink implementations: an in-memory sink
// for tests and tooling, and a SQLite-backed sink for durable traces.
package trace

import (
	"sync"

	"github.com/petrijr/ripple/pkg/api"
)

// MemorySink buffers trace records in memory. Useful for tests and for
// inspecting a domain's recent activity.
type MemorySink struct {
	mu     sync.Mutex
	events []api.TraceEvent
}

var _ api.TraceSink = (*MemorySink)(nil)

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append records ev. It never fails.
func (s *MemorySink) Append(ev api.TraceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a snapshot of all recorded records in append order.
func (s *MemorySink) Events() []api.TraceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.TraceEvent, len(s.events))
	copy(out, s.events)
	return out
}

// EventsOfType returns the recorded records matching t, in append order.
func (s *MemorySink) EventsOfType(t api.TraceEventType) []api.TraceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []api.TraceEvent
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards all recorded records.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
