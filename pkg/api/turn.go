package api

import (
	"context"
	"sync"
)

// TurnID identifies a turn. Ids are unique tokens within a reasonable
// window; the domain's counter wraps, so they are not monotonic clocks.
type TurnID uint32

// InputClosure is a deferred input buffered in a continuation. Invoking it
// performs one or more transaction-input calls through the admission
// context of a successor turn.
type InputClosure func(ctx context.Context) error

// Continuation is an insertion-ordered queue of deferred input closures
// collected while a turn is propagating. Append is safe for concurrent use
// by user callbacks running inside the same propagation; Execute is called
// by the domain only, on one goroutine, outside the propagation phase.
type Continuation struct {
	mu     sync.Mutex
	inputs []InputClosure
}

// Add appends a deferred input.
func (c *Continuation) Add(f InputClosure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, f)
}

// IsEmpty reports whether no inputs are buffered.
func (c *Continuation) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inputs) == 0
}

// Execute invokes each buffered closure in insertion order, then empties
// the buffer. It stops at the first closure error.
func (c *Continuation) Execute(ctx context.Context) error {
	c.mu.Lock()
	inputs := c.inputs
	c.inputs = nil
	c.mu.Unlock()

	for _, f := range inputs {
		if err := f(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Turn is the atomic unit of propagation: a passive value carrying a unique
// id, the flags it was opened with, the observers scheduled for detachment
// at turn end, and the continuation buffer for inputs produced during
// propagation.
//
// A Turn is created by the domain at the start of a transaction and
// discarded after post-processing. Only the engine and user node code
// invoked during propagation mutate it.
type Turn struct {
	id    TurnID
	flags TurnFlags

	mu       sync.Mutex
	detached []Node
	err      error

	cont *Continuation

	admissionCtx   context.Context
	propagationCtx context.Context
}

// NewTurn creates a turn with the given id and flags.
func NewTurn(id TurnID, flags TurnFlags) *Turn {
	return &Turn{
		id:    id,
		flags: flags,
		cont:  &Continuation{},
	}
}

func (t *Turn) ID() TurnID       { return t.id }
func (t *Turn) Flags() TurnFlags { return t.flags }

// Continuation returns the turn's continuation buffer.
func (t *Turn) Continuation() *Continuation { return t.cont }

// StealContinuation moves the continuation out of the turn, returning nil
// when it is empty. The caller becomes responsible for draining it.
func (t *Turn) StealContinuation() *Continuation {
	if t.cont.IsEmpty() {
		return nil
	}
	cont := t.cont
	t.cont = &Continuation{}
	return cont
}

// ScheduleDetach appends an observer node for removal at turn end. The
// observer still receives the pulse that triggered the detach; the registry
// is updated only during post-processing, once the engine guarantees no
// in-flight pulse references it.
func (t *Turn) ScheduleDetach(n Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detached = append(t.detached, n)
}

// TakeDetached returns and clears the observers scheduled for detachment.
func (t *Turn) TakeDetached() []Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	detached := t.detached
	t.detached = nil
	return detached
}

// Fail records the first error observed during the turn. Later calls are
// ignored.
func (t *Turn) Fail(err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

// Err returns the first error recorded for the turn, if any.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// SetAdmissionContext binds the context merged admissions execute with.
// Called by the domain before OnTurnAdmissionStart.
func (t *Turn) SetAdmissionContext(ctx context.Context) { t.admissionCtx = ctx }

// AdmissionContext returns the context bound by SetAdmissionContext.
func (t *Turn) AdmissionContext() context.Context {
	if t.admissionCtx == nil {
		return context.Background()
	}
	return t.admissionCtx
}

// SetPropagationContext binds the context handed to user callbacks invoked
// while the turn ticks and propagates. Inputs added through it are deferred
// into the turn's continuation.
func (t *Turn) SetPropagationContext(ctx context.Context) { t.propagationCtx = ctx }

// PropagationContext returns the context bound by SetPropagationContext.
func (t *Turn) PropagationContext() context.Context {
	if t.propagationCtx == nil {
		return context.Background()
	}
	return t.propagationCtx
}
