package api

import (
	"log/slog"
	"time"
)

// TraceEventType identifies a record in a domain's trace.
type TraceEventType string

const (
	TraceNodeCreate    TraceEventType = "node.create"
	TraceNodeDestroy   TraceEventType = "node.destroy"
	TraceNodeAttach    TraceEventType = "node.attach"
	TraceNodeDetach    TraceEventType = "node.detach"
	TraceNodePulse     TraceEventType = "node.pulse"
	TraceNodeIdlePulse TraceEventType = "node.idle_pulse"
	TraceNodeShift     TraceEventType = "node.shift"

	TraceTurnInput TraceEventType = "turn.input"
	TraceTurnBegin TraceEventType = "turn.begin"
	TraceTurnEnd   TraceEventType = "turn.end"
)

// TraceEvent is a minimal append-only trace record for audit/debugging.
// It is intentionally small and stable; richer tracing can be layered
// later.
type TraceEvent struct {
	Type TraceEventType
	At   time.Time

	// Node is the subject node, when the record concerns one.
	Node NodeID

	// Other is the second node of attach/detach/shift records.
	Other NodeID

	// Turn is the turn id, where relevant.
	Turn TurnID

	// Small, human-oriented details (e.g. a node type tag).
	Detail string
}

// TraceSink receives a domain's trace records. Within one emitting
// goroutine, records arrive in causal order.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay propagation.
type TraceSink interface {
	Append(ev TraceEvent) error
}

// NoopTraceSink discards all records. It is the default when no sink is
// configured.
type NoopTraceSink struct{}

func (NoopTraceSink) Append(ev TraceEvent) error { return nil }

// CompositeTraceSink fans out records to multiple sinks.
type CompositeTraceSink struct {
	sinks []TraceSink
}

// NewCompositeTraceSink creates a TraceSink that forwards records to each
// non-nil sink in sinks.
func NewCompositeTraceSink(sinks ...TraceSink) TraceSink {
	filtered := make([]TraceSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return NoopTraceSink{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeTraceSink{sinks: filtered}
}

func (c *CompositeTraceSink) Append(ev TraceEvent) error {
	var firstErr error
	for _, s := range c.sinks {
		if err := s.Append(ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SlogTraceSink writes structured logs using log/slog.
type SlogTraceSink struct {
	Logger *slog.Logger
}

// NewSlogTraceSink creates a TraceSink that logs trace records using the
// provided slog.Logger. If logger is nil, slog.Default() is used.
//
// Turn boundaries are logged at Info level; the high-volume node records at
// Debug level.
func NewSlogTraceSink(logger *slog.Logger) TraceSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTraceSink{Logger: logger}
}

func (s *SlogTraceSink) Append(ev TraceEvent) error {
	level := slog.LevelDebug
	if ev.Type == TraceTurnBegin || ev.Type == TraceTurnEnd {
		level = slog.LevelInfo
	}

	attrs := make([]any, 0, 4)
	if ev.Node != 0 {
		attrs = append(attrs, slog.Uint64("node", uint64(ev.Node)))
	}
	if ev.Other != 0 {
		attrs = append(attrs, slog.Uint64("other", uint64(ev.Other)))
	}
	attrs = append(attrs, slog.Uint64("turn", uint64(ev.Turn)))
	if ev.Detail != "" {
		attrs = append(attrs, slog.String("detail", ev.Detail))
	}

	s.Logger.Log(nil, level, string(ev.Type), attrs...) //nolint:staticcheck // trace records carry no request context
	return nil
}
