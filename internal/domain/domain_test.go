package domain

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/ripple/pkg/api"
)

// stubEngine records hook invocations and lets tests drive propagation.
type stubEngine struct {
	mu    sync.Mutex
	calls []string
	turns []*api.Turn

	propagateFn func(turn *api.Turn) error
	tryMergeFn  func(fn api.AdmissionFunc, flags api.TurnFlags) bool
}

func (e *stubEngine) record(call string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
}

func (e *stubEngine) recorded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *stubEngine) OnNodeCreate(n api.Node)                 { e.record("create") }
func (e *stubEngine) OnNodeDestroy(n api.Node)                { e.record("destroy") }
func (e *stubEngine) OnNodeAttach(c, p api.Node)              { e.record("attach") }
func (e *stubEngine) OnNodeDetach(c, p api.Node)              { e.record("detach") }
func (e *stubEngine) OnNodePulse(n api.Node, t *api.Turn)     { e.record("pulse") }
func (e *stubEngine) OnNodeIdlePulse(n api.Node, t *api.Turn) { e.record("idle") }
func (e *stubEngine) OnNodeShift(n, o, p api.Node, t *api.Turn) {
	e.record("shift")
}

func (e *stubEngine) OnTurnAdmissionStart(turn *api.Turn) {
	e.mu.Lock()
	e.turns = append(e.turns, turn)
	e.mu.Unlock()
	e.record("admission_start")
}

func (e *stubEngine) OnTurnAdmissionEnd(turn *api.Turn)         { e.record("admission_end") }
func (e *stubEngine) OnTurnInputChange(n api.Node, t *api.Turn) { e.record("input_change") }

func (e *stubEngine) OnTurnPropagate(turn *api.Turn) error {
	e.record("propagate")
	if e.propagateFn != nil {
		return e.propagateFn(turn)
	}
	return nil
}

func (e *stubEngine) OnTurnEnd(turn *api.Turn) { e.record("turn_end") }

func (e *stubEngine) TryMerge(fn api.AdmissionFunc, flags api.TurnFlags) bool {
	if e.tryMergeFn != nil {
		return e.tryMergeFn(fn, flags)
	}
	return false
}

// stubInput is a minimal input node committing staged values on Tick.
type stubInput struct {
	id api.NodeID

	mu        sync.Mutex
	staged    []any
	committed []any
	tickErr   error
}

func (n *stubInput) ObjectID() api.NodeID   { return n.id }
func (n *stubInput) NodeType() api.NodeType { return api.NodeVar }

func (n *stubInput) AddInput(value any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.staged = append(n.staged, value)
}

func (n *stubInput) Tick(turn *api.Turn) (api.TickResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tickErr != nil {
		return api.TickIdle, n.tickErr
	}
	if len(n.staged) == 0 {
		return api.TickIdle, nil
	}
	n.committed = append(n.committed, n.staged...)
	n.staged = nil
	return api.TickPulsed, nil
}

func (n *stubInput) values() []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]any, len(n.committed))
	copy(out, n.committed)
	return out
}

// plainNode satisfies api.Node but not api.InputNode.
type plainNode struct{ id api.NodeID }

func (n *plainNode) ObjectID() api.NodeID                   { return n.id }
func (n *plainNode) NodeType() api.NodeType                 { return api.NodeSignal }
func (n *plainNode) Tick(*api.Turn) (api.TickResult, error) { return api.TickIdle, nil }

func TestAddInputRunsSingleInputTurn(t *testing.T) {
	eng := &stubEngine{}
	d := New("single", eng, Config{})
	n := &stubInput{id: 1}

	require.NoError(t, d.AddInput(context.Background(), n, 5))
	require.Equal(t, []any{5}, n.values())
	assert.Equal(t, []string{"admission_start", "admission_end", "propagate", "turn_end"}, eng.recorded())
	assert.Equal(t, uint64(1), d.TurnsProcessed())
}

func TestAddInputRejectsNonInputNode(t *testing.T) {
	d := New("noinput", &stubEngine{}, Config{})
	err := d.AddInput(context.Background(), &plainNode{id: 9}, 1)
	require.ErrorIs(t, err, ErrNotInputNode)
}

func TestDoTransactionBatchesInputs(t *testing.T) {
	eng := &stubEngine{}
	d := New("batch", eng, Config{})
	a := &stubInput{id: 1}
	b := &stubInput{id: 2}

	err := d.DoTransaction(context.Background(), func(ctx context.Context) error {
		if err := d.AddInput(ctx, a, 1); err != nil {
			return err
		}
		return d.AddInput(ctx, b, 2)
	})
	require.NoError(t, err)

	require.Equal(t, []any{1}, a.values())
	require.Equal(t, []any{2}, b.values())

	// Both inputs admitted into one turn.
	assert.Equal(t, []string{"admission_start", "admission_end", "propagate", "turn_end"}, eng.recorded())
}

func TestNestedTransactionRejected(t *testing.T) {
	d := New("nested", &stubEngine{}, Config{})
	err := d.DoTransaction(context.Background(), func(ctx context.Context) error {
		return d.DoTransaction(ctx, func(context.Context) error { return nil })
	})
	require.ErrorIs(t, err, ErrNestedTransaction)
}

func TestNestedTransactionAcrossDomainsAllowed(t *testing.T) {
	d1 := New("outer", &stubEngine{}, Config{})
	d2 := New("inner", &stubEngine{}, Config{})
	n := &stubInput{id: 1}

	err := d1.DoTransaction(context.Background(), func(ctx context.Context) error {
		return d2.DoTransaction(ctx, func(ctx context.Context) error {
			return d2.AddInput(ctx, n, 3)
		})
	})
	require.NoError(t, err)
	require.Equal(t, []any{3}, n.values())
}

func TestInputDuringPropagationIsDeferred(t *testing.T) {
	eng := &stubEngine{}
	d := New("cont", eng, Config{})
	a := &stubInput{id: 1}
	b := &stubInput{id: 2}

	eng.propagateFn = func(turn *api.Turn) error {
		eng.propagateFn = nil
		return d.AddInput(turn.PropagationContext(), b, 42)
	}

	require.NoError(t, d.AddInput(context.Background(), a, 1))

	// The deferred input committed in a successor turn.
	require.Equal(t, []any{42}, b.values())
	require.Len(t, eng.turns, 2)
	assert.NotEqual(t, eng.turns[0].ID(), eng.turns[1].ID())
	assert.Equal(t, uint64(2), d.TurnsProcessed())
}

func TestTransactionDuringPropagationIsDeferred(t *testing.T) {
	eng := &stubEngine{}
	d := New("cont-tx", eng, Config{})
	a := &stubInput{id: 1}
	b := &stubInput{id: 2}

	eng.propagateFn = func(turn *api.Turn) error {
		eng.propagateFn = nil
		return d.DoTransaction(turn.PropagationContext(), func(ctx context.Context) error {
			return d.AddInput(ctx, b, 7)
		})
	}

	require.NoError(t, d.AddInput(context.Background(), a, 1))
	require.Equal(t, []any{7}, b.values())
	require.Len(t, eng.turns, 2)
}

func TestContinuationTurnStripsMergeFlag(t *testing.T) {
	eng := &stubEngine{}
	d := New("strip", eng, Config{})
	a := &stubInput{id: 1}
	b := &stubInput{id: 2}

	eng.propagateFn = func(turn *api.Turn) error {
		eng.propagateFn = nil
		return d.AddInput(turn.PropagationContext(), b, 2)
	}

	err := d.DoTransactionFlags(context.Background(), func(ctx context.Context) error {
		return d.AddInput(ctx, a, 1)
	}, api.EnableInputMerging)
	require.NoError(t, err)

	require.Len(t, eng.turns, 2)
	assert.True(t, eng.turns[0].Flags().Has(api.EnableInputMerging))
	assert.False(t, eng.turns[1].Flags().Has(api.EnableInputMerging))
}

func TestAdmissionErrorSkipsPropagation(t *testing.T) {
	eng := &stubEngine{}
	d := New("admit-err", eng, Config{})
	n := &stubInput{id: 1}
	boom := errors.New("boom")

	err := d.DoTransaction(context.Background(), func(ctx context.Context) error {
		if err := d.AddInput(ctx, n, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Staged but never ticked: the turn commits nothing.
	require.Empty(t, n.values())
	assert.Equal(t, []string{"admission_start", "admission_end", "turn_end"}, eng.recorded())
	assert.Equal(t, uint64(0), d.TurnsProcessed())
}

func TestTickErrorAbortsTurn(t *testing.T) {
	eng := &stubEngine{}
	d := New("tick-err", eng, Config{})
	boom := errors.New("tick boom")
	n := &stubInput{id: 1, tickErr: boom}

	err := d.AddInput(context.Background(), n, 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"admission_start", "admission_end", "turn_end"}, eng.recorded())
}

func TestPropagationErrorSurfaces(t *testing.T) {
	eng := &stubEngine{}
	d := New("prop-err", eng, Config{})
	boom := errors.New("prop boom")
	eng.propagateFn = func(*api.Turn) error { return boom }
	n := &stubInput{id: 1}

	err := d.AddInput(context.Background(), n, 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"admission_start", "admission_end", "propagate", "turn_end"}, eng.recorded())
}

func TestMergedTransactionShortCircuits(t *testing.T) {
	eng := &stubEngine{}
	d := New("merge", eng, Config{})
	boom := errors.New("merged boom")

	eng.tryMergeFn = func(fn api.AdmissionFunc, flags api.TurnFlags) bool {
		require.True(t, flags.Has(api.EnableInputMerging))
		_ = fn(context.Background())
		return true
	}

	err := d.DoTransactionFlags(context.Background(), func(ctx context.Context) error {
		return boom
	}, api.EnableInputMerging)
	require.ErrorIs(t, err, boom)

	// The merged path opens no turn of its own.
	assert.Empty(t, eng.recorded())
}

func TestMergeRefusedFallsBackToOwnTurn(t *testing.T) {
	eng := &stubEngine{}
	d := New("merge-refused", eng, Config{})
	n := &stubInput{id: 1}

	err := d.DoTransactionFlags(context.Background(), func(ctx context.Context) error {
		return d.AddInput(ctx, n, 1)
	}, api.EnableInputMerging)
	require.NoError(t, err)
	require.Equal(t, []any{1}, n.values())
}

func TestDeferredObserverDetach(t *testing.T) {
	eng := &stubEngine{}
	d := New("detach", eng, Config{})
	obs := &plainNode{id: 5}

	var torn bool
	d.Observers().Register(obs, func() { torn = true })

	eng.propagateFn = func(turn *api.Turn) error {
		d.DetachObserver(turn.PropagationContext(), obs)
		// Still registered while the turn runs.
		if !d.Observers().IsRegistered(obs) {
			t.Error("observer unregistered mid-turn")
		}
		return nil
	}

	n := &stubInput{id: 1}
	require.NoError(t, d.AddInput(context.Background(), n, 1))
	require.False(t, d.Observers().IsRegistered(obs))
	require.True(t, torn)
}

func TestImmediateObserverDetach(t *testing.T) {
	d := New("detach-now", &stubEngine{}, Config{})
	obs := &plainNode{id: 5}
	d.Observers().Register(obs, nil)

	d.DetachObserver(context.Background(), obs)
	require.False(t, d.Observers().IsRegistered(obs))
}

func TestTurnIDWrapsAtWindow(t *testing.T) {
	d := New("wrap", &stubEngine{}, Config{})
	d.turnSeq.Store(math.MaxInt32)

	first := d.nextTurnID()
	second := d.nextTurnID()
	assert.Equal(t, api.TurnID(math.MaxInt32), first)
	assert.Equal(t, api.TurnID(1), second)
}

func TestTurnIDsUnique(t *testing.T) {
	d := New("unique", &stubEngine{}, Config{})
	seen := make(map[api.TurnID]bool)
	for i := 0; i < 1000; i++ {
		id := d.nextTurnID()
		if seen[id] {
			t.Fatalf("duplicate turn id %d", id)
		}
		seen[id] = true
	}
}
