package ripple

import (
	"context"

	"github.com/petrijr/ripple/pkg/api"
)

// Observer is the handle returned by Observe and ObserveEvents. It
// keeps the underlying observer node registered until Detach is called
// or the callback's turn schedules a detachment.
type Observer struct {
	d    *Domain
	node api.Node
}

// Detach removes the observer. Called with a propagating context the
// removal is deferred to the end of the current turn, so the observer
// still sees the pulse that triggered it; otherwise it is immediate.
// Detaching twice is harmless.
func (o *Observer) Detach(ctx context.Context) {
	o.d.DetachObserver(ctx, o.node)
}

// IsAttached reports whether the observer is still registered.
func (o *Observer) IsAttached() bool {
	return o.d.Observers().IsRegistered(o.node)
}

type signalObserver[T comparable] struct {
	nodeBase
	subject SignalSource[T]
	fn      func(ctx context.Context, v T) error
}

func (o *signalObserver[T]) Tick(turn *api.Turn) (api.TickResult, error) {
	return api.TickIdle, o.fn(turn.PropagationContext(), o.subject.Value())
}

// Observe attaches fn to a signal. The callback runs once immediately
// with the current value, then once per turn in which the signal
// pulses. A callback error fails the turn.
func Observe[T comparable](d *Domain, subject SignalSource[T], fn func(ctx context.Context, v T) error) *Observer {
	o := &signalObserver[T]{nodeBase: newNodeBase(d, api.NodeObserver), subject: subject, fn: fn}
	d.Engine().OnNodeCreate(o)
	d.Engine().OnNodeAttach(o, subject)
	d.Observers().Register(o, func() {
		releaseNode(d, o, []api.Node{subject})
	})
	_ = fn(context.Background(), subject.Value())
	return &Observer{d: d, node: o}
}

type eventObserver[E any] struct {
	nodeBase
	subject EventStream[E]
	fn      func(ctx context.Context, events []E) error
}

func (o *eventObserver[E]) Tick(turn *api.Turn) (api.TickResult, error) {
	events := o.subject.Events(turn)
	if len(events) == 0 {
		return api.TickIdle, nil
	}
	return api.TickIdle, o.fn(turn.PropagationContext(), events)
}

// ObserveEvents attaches fn to an event stream. The callback runs once
// per turn in which the stream carries events, receiving them in the
// order the stream carries them. A callback error fails the turn.
func ObserveEvents[E any](d *Domain, subject EventStream[E], fn func(ctx context.Context, events []E) error) *Observer {
	o := &eventObserver[E]{nodeBase: newNodeBase(d, api.NodeObserver), subject: subject, fn: fn}
	d.Engine().OnNodeCreate(o)
	d.Engine().OnNodeAttach(o, subject)
	d.Observers().Register(o, func() {
		releaseNode(d, o, []api.Node{subject})
	})
	return &Observer{d: d, node: o}
}
