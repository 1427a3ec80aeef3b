package ripple

import (
	"context"
	"fmt"
	"sync"

	"github.com/petrijr/ripple/pkg/api"
)

// SignalSource is any node exposing a current value of type T. Both
// input vars and derived signals satisfy it, so combinators accept
// either.
type SignalSource[T comparable] interface {
	api.Node
	Value() T
}

// VarSignal is an input signal: external code sets its value through
// Set or AddInput, and the change propagates in the resulting turn.
// Setting the current value again is absorbed without a pulse.
type VarSignal[T comparable] struct {
	nodeBase

	mu        sync.Mutex
	value     T
	staged    T
	hasStaged bool
	stagedErr error
}

var _ api.InputNode = (*VarSignal[int])(nil)

// MakeVar creates an input signal holding initial.
func MakeVar[T comparable](d *Domain, initial T) *VarSignal[T] {
	v := &VarSignal[T]{nodeBase: newNodeBase(d, api.NodeVar), value: initial}
	d.Engine().OnNodeCreate(v)
	return v
}

// Value returns the current committed value.
func (v *VarSignal[T]) Value() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stages value as input for v through ctx's dispatch path.
func (v *VarSignal[T]) Set(ctx context.Context, value T) error {
	return v.d.AddInput(ctx, v, value)
}

// AddInput stages an untyped input. A value of the wrong type fails the
// turn when the node ticks.
func (v *VarSignal[T]) AddInput(value any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	tv, ok := value.(T)
	if !ok {
		v.stagedErr = fmt.Errorf("var %d: input %T is not %T", v.id, value, v.value)
		return
	}
	v.staged = tv
	v.hasStaged = true
}

// Tick commits the staged value. It pulses only on an observable
// change.
func (v *VarSignal[T]) Tick(turn *api.Turn) (api.TickResult, error) {
	v.mu.Lock()
	if err := v.stagedErr; err != nil {
		v.stagedErr = nil
		v.hasStaged = false
		v.mu.Unlock()
		return api.TickIdle, err
	}
	if !v.hasStaged || v.staged == v.value {
		v.hasStaged = false
		v.mu.Unlock()
		return api.TickIdle, nil
	}
	v.value = v.staged
	v.hasStaged = false
	v.mu.Unlock()

	v.d.Engine().OnTurnInputChange(v, turn)
	v.d.Engine().OnNodePulse(v, turn)
	return api.TickPulsed, nil
}

// Release removes v from its domain's graph.
func (v *VarSignal[T]) Release() {
	releaseNode(v.d, v, nil)
}

// Signal is a derived (or constant) signal. Its value is recomputed
// when a parent pulses; dependents are pulsed only when the new value
// differs from the old one.
type Signal[T comparable] struct {
	nodeBase

	mu      sync.Mutex
	value   T
	compute func() T
	parents []api.Node
}

var _ SignalSource[int] = (*Signal[int])(nil)

func makeSignalFrom[T comparable](d *Domain, compute func() T, parents ...api.Node) *Signal[T] {
	s := &Signal[T]{nodeBase: newNodeBase(d, api.NodeSignal), compute: compute, parents: parents}
	if compute != nil {
		s.value = compute()
	}
	d.Engine().OnNodeCreate(s)
	for _, p := range parents {
		d.Engine().OnNodeAttach(s, p)
	}
	return s
}

// MakeVal creates a constant signal. It never pulses.
func MakeVal[T comparable](d *Domain, value T) *Signal[T] {
	s := &Signal[T]{nodeBase: newNodeBase(d, api.NodeSignal), value: value}
	d.Engine().OnNodeCreate(s)
	return s
}

// MakeSignal creates a signal computed from one dependency.
func MakeSignal[A, T comparable](d *Domain, fn func(A) T, a SignalSource[A]) *Signal[T] {
	return makeSignalFrom(d, func() T { return fn(a.Value()) }, a)
}

// MakeSignal2 creates a signal computed from two dependencies.
func MakeSignal2[A, B, T comparable](d *Domain, fn func(A, B) T, a SignalSource[A], b SignalSource[B]) *Signal[T] {
	return makeSignalFrom(d, func() T { return fn(a.Value(), b.Value()) }, a, b)
}

// MakeSignal3 creates a signal computed from three dependencies.
func MakeSignal3[A, B, C, T comparable](d *Domain, fn func(A, B, C) T, a SignalSource[A], b SignalSource[B], c SignalSource[C]) *Signal[T] {
	return makeSignalFrom(d, func() T { return fn(a.Value(), b.Value(), c.Value()) }, a, b, c)
}

// MakeSignalN creates a signal whose compute closure reads its
// dependencies directly. Every read dependency must be listed in deps.
func MakeSignalN[T comparable](d *Domain, fn func() T, deps ...api.Node) *Signal[T] {
	return makeSignalFrom(d, fn, deps...)
}

// Value returns the current committed value.
func (s *Signal[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Tick recomputes the value and pulses on change.
func (s *Signal[T]) Tick(turn *api.Turn) (api.TickResult, error) {
	if s.compute == nil {
		s.d.Engine().OnNodeIdlePulse(s, turn)
		return api.TickIdle, nil
	}
	next := s.compute()

	s.mu.Lock()
	changed := next != s.value
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.d.Engine().OnNodePulse(s, turn)
		return api.TickPulsed, nil
	}
	s.d.Engine().OnNodeIdlePulse(s, turn)
	return api.TickIdle, nil
}

// Release removes s and its dependency edges from the domain's graph.
func (s *Signal[T]) Release() {
	releaseNode(s.d, s, s.parents)
}
