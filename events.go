package ripple

import (
	"context"
	"fmt"
	"sync"

	"github.com/petrijr/ripple/pkg/api"
)

// EventStream is any node exposing the events it carried in a given
// turn. The slice is valid only while that turn propagates.
type EventStream[E any] interface {
	api.Node
	Events(turn *api.Turn) []E
}

// Token is the payload of value-less event streams.
type Token struct{}

// EventSource is an input event stream: external code emits events
// through Emit or AddInput, and every emission pulses. Unlike signals,
// event payloads are never compared.
type EventSource[E any] struct {
	nodeBase

	mu          sync.Mutex
	staged      []E
	stagedErr   error
	current     []E
	currentTurn api.TurnID
	hasCurrent  bool
}

var _ api.InputNode = (*EventSource[int])(nil)

// MakeEventSource creates an input event stream.
func MakeEventSource[E any](d *Domain) *EventSource[E] {
	s := &EventSource[E]{nodeBase: newNodeBase(d, api.NodeEventSource)}
	d.Engine().OnNodeCreate(s)
	return s
}

// MakeTokenSource creates an input stream of value-less events.
func MakeTokenSource(d *Domain) *EventSource[Token] {
	return MakeEventSource[Token](d)
}

// Emit stages ev as input for s through ctx's dispatch path.
func (s *EventSource[E]) Emit(ctx context.Context, ev E) error {
	return s.d.AddInput(ctx, s, ev)
}

// EmitToken emits a value-less event on a token stream.
func EmitToken(ctx context.Context, s *EventSource[Token]) error {
	return s.Emit(ctx, Token{})
}

// AddInput stages an untyped event. A payload of the wrong type fails
// the turn when the node ticks.
func (s *EventSource[E]) AddInput(value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := value.(E)
	if !ok {
		s.stagedErr = fmt.Errorf("event source %d: payload %T is not %T", s.id, value, ev)
		return
	}
	s.staged = append(s.staged, ev)
}

// Tick commits the staged events for this turn.
func (s *EventSource[E]) Tick(turn *api.Turn) (api.TickResult, error) {
	s.mu.Lock()
	if err := s.stagedErr; err != nil {
		s.stagedErr = nil
		s.staged = nil
		s.mu.Unlock()
		return api.TickIdle, err
	}
	if len(s.staged) == 0 {
		s.mu.Unlock()
		return api.TickIdle, nil
	}
	s.current = s.staged
	s.staged = nil
	s.currentTurn = turn.ID()
	s.hasCurrent = true
	s.mu.Unlock()

	s.d.Engine().OnTurnInputChange(s, turn)
	s.d.Engine().OnNodePulse(s, turn)
	return api.TickPulsed, nil
}

// Events returns the events s carried in turn, in emission order.
func (s *EventSource[E]) Events(turn *api.Turn) []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCurrent || s.currentTurn != turn.ID() {
		return nil
	}
	return s.current
}

// Release removes s from its domain's graph.
func (s *EventSource[E]) Release() {
	releaseNode(s.d, s, nil)
}

// Events is a derived event stream: when a parent pulses, it pulls the
// parents' events for the turn, and pulses only when it carries at
// least one event itself.
type Events[E any] struct {
	nodeBase

	mu          sync.Mutex
	pull        func(turn *api.Turn) []E
	parents     []api.Node
	current     []E
	currentTurn api.TurnID
	hasCurrent  bool
}

var _ EventStream[int] = (*Events[int])(nil)

func makeEventsFrom[E any](d *Domain, pull func(turn *api.Turn) []E, parents ...api.Node) *Events[E] {
	e := &Events[E]{nodeBase: newNodeBase(d, api.NodeEvents), pull: pull, parents: parents}
	d.Engine().OnNodeCreate(e)
	for _, p := range parents {
		d.Engine().OnNodeAttach(e, p)
	}
	return e
}

// MergeEvents creates a stream carrying the events of all sources, in
// source order within a turn.
func MergeEvents[E any](d *Domain, sources ...EventStream[E]) *Events[E] {
	parents := make([]api.Node, len(sources))
	for i, src := range sources {
		parents[i] = src
	}
	return makeEventsFrom(d, func(turn *api.Turn) []E {
		var out []E
		for _, src := range sources {
			out = append(out, src.Events(turn)...)
		}
		return out
	}, parents...)
}

// FilterEvents creates a stream carrying the source events that satisfy
// pred.
func FilterEvents[E any](d *Domain, src EventStream[E], pred func(E) bool) *Events[E] {
	return makeEventsFrom(d, func(turn *api.Turn) []E {
		var out []E
		for _, ev := range src.Events(turn) {
			if pred(ev) {
				out = append(out, ev)
			}
		}
		return out
	}, src)
}

// TransformEvents creates a stream carrying fn applied to each source
// event.
func TransformEvents[E, F any](d *Domain, src EventStream[E], fn func(E) F) *Events[F] {
	return makeEventsFrom(d, func(turn *api.Turn) []F {
		in := src.Events(turn)
		if len(in) == 0 {
			return nil
		}
		out := make([]F, len(in))
		for i, ev := range in {
			out[i] = fn(ev)
		}
		return out
	}, src)
}

// Tick pulls the parents' events for this turn.
func (e *Events[E]) Tick(turn *api.Turn) (api.TickResult, error) {
	out := e.pull(turn)

	e.mu.Lock()
	e.current = out
	e.currentTurn = turn.ID()
	e.hasCurrent = len(out) > 0
	e.mu.Unlock()

	if len(out) > 0 {
		e.d.Engine().OnNodePulse(e, turn)
		return api.TickPulsed, nil
	}
	e.d.Engine().OnNodeIdlePulse(e, turn)
	return api.TickIdle, nil
}

// Events returns the events e carried in turn.
func (e *Events[E]) Events(turn *api.Turn) []E {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasCurrent || e.currentTurn != turn.ID() {
		return nil
	}
	return e.current
}

// Release removes e and its dependency edges from the domain's graph.
func (e *Events[E]) Release() {
	releaseNode(e.d, e, e.parents)
}
