package domain

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/petrijr/ripple/pkg/api"
)

// turnIDWindow is the wrap point of the turn counter. Ids stay unique
// within the window; when the counter reaches the window it is pulled
// back down so it never overflows into the reserved upper range.
const turnIDWindow = math.MaxInt32

// Domain owns a reactive graph: it creates nodes, admits inputs, and
// drives its engine through turns. All input paths funnel through
// processTurn, so a domain's turns are well ordered no matter which
// goroutine initiates them.
type Domain struct {
	name      string
	raw       api.Engine
	engine    api.Engine
	trace     api.TraceSink
	observers *Registry

	turnSeq   atomic.Uint32
	nodeSeq   atomic.Uint64
	turnsDone atomic.Uint64
}

// Config carries the optional pieces of a domain. Zero values select
// working defaults.
type Config struct {
	// Trace receives the domain's trace records. Nil means no tracing.
	Trace api.TraceSink
}

// New creates a domain driving the given engine. The engine must not be
// shared between domains.
func New(name string, engine api.Engine, cfg Config) *Domain {
	d := &Domain{
		name:      name,
		raw:       engine,
		engine:    engine,
		trace:     api.NoopTraceSink{},
		observers: NewRegistry(),
	}
	if cfg.Trace != nil {
		if _, noop := cfg.Trace.(api.NoopTraceSink); !noop {
			d.trace = cfg.Trace
			d.engine = newTraceEngine(engine, cfg.Trace)
		}
	}
	return d
}

// Name returns the domain's registered name.
func (d *Domain) Name() string { return d.name }

// Engine returns the engine the domain drives, wrapped with tracing
// when a sink is configured. Node constructors report topology changes
// through it.
func (d *Domain) Engine() api.Engine { return d.engine }

// Observers returns the domain's observer registry.
func (d *Domain) Observers() *Registry { return d.observers }

// NextNodeID allocates a fresh node id.
func (d *Domain) NextNodeID() api.NodeID {
	return api.NodeID(d.nodeSeq.Add(1))
}

// TurnsProcessed reports how many turns the domain has completed. Used
// by diagnostics and tests.
func (d *Domain) TurnsProcessed() uint64 { return d.turnsDone.Load() }

// nextTurnID allocates the next turn id, wrapping the counter at the
// window boundary.
func (d *Domain) nextTurnID() api.TurnID {
	cur := d.turnSeq.Add(1) - 1
	if cur == turnIDWindow {
		d.turnSeq.Add(^uint32(turnIDWindow) + 1)
	}
	return api.TurnID(cur)
}

// AddInput stages value as input for node n. Where the call lands
// depends on the caller's context:
//
//   - inside a propagating turn of this domain, the input is deferred
//     into the turn's continuation and applied in a successor turn;
//   - inside a transaction's admission phase, the input joins the
//     transaction's turn;
//   - otherwise the input runs as its own single-input turn.
func (d *Domain) AddInput(ctx context.Context, n api.Node, value any) error {
	in, ok := n.(api.InputNode)
	if !ok {
		return fmt.Errorf("%w: node %d (%s)", ErrNotInputNode, n.ObjectID(), n.NodeType())
	}

	if p := propagationFrom(ctx, d); p != nil {
		p.turn.Continuation().Add(func(cctx context.Context) error {
			return d.AddInput(cctx, n, value)
		})
		return nil
	}

	if st := txStateFrom(ctx, d); st != nil && st.active {
		in.AddInput(value)
		st.inputs = append(st.inputs, in)
		return nil
	}

	return d.addSimpleInput(ctx, in, value)
}

// DoTransaction runs fn as one transaction: every input it stages is
// admitted into a single turn and propagated together. The default turn
// flags carried by ctx apply.
func (d *Domain) DoTransaction(ctx context.Context, fn api.AdmissionFunc) error {
	return d.DoTransactionFlags(ctx, fn, api.TurnFlagsFrom(ctx))
}

// DoTransactionFlags is DoTransaction with explicit turn flags,
// overriding any defaults carried by ctx.
func (d *Domain) DoTransactionFlags(ctx context.Context, fn api.AdmissionFunc, flags api.TurnFlags) error {
	if st := txStateFrom(ctx, d); st != nil && st.active {
		return ErrNestedTransaction
	}

	// A transaction opened from inside a propagating turn cannot run
	// now; defer the whole body into the continuation.
	if p := propagationFrom(ctx, d); p != nil {
		p.turn.Continuation().Add(func(cctx context.Context) error {
			return fn(cctx)
		})
		return nil
	}

	if flags.Has(api.EnableInputMerging) {
		var mergedErr error
		merged := d.engine.TryMerge(func(mctx context.Context) error {
			mergedErr = fn(mctx)
			return mergedErr
		}, flags)
		if merged {
			return mergedErr
		}
	}

	turn := api.NewTurn(d.nextTurnID(), flags)
	if err := d.processTurn(ctx, turn, fn); err != nil {
		return err
	}
	return d.processContinuations(ctx, turn)
}

// addSimpleInput runs a single input as its own turn with no flags.
func (d *Domain) addSimpleInput(ctx context.Context, n api.InputNode, value any) error {
	turn := api.NewTurn(d.nextTurnID(), 0)
	err := d.processTurn(ctx, turn, func(actx context.Context) error {
		return d.AddInput(actx, n, value)
	})
	if err != nil {
		return err
	}
	return d.processContinuations(ctx, turn)
}

// processTurn drives one turn through admission, ticking and
// propagation, then post-processes scheduled detachments. OnTurnEnd is
// delivered on every path so the engine can release turn ordering.
func (d *Domain) processTurn(ctx context.Context, turn *api.Turn, admit api.AdmissionFunc) error {
	st := &txState{domain: d, active: true}
	actx := withTxState(ctx, st)
	turn.SetAdmissionContext(actx)

	d.engine.OnTurnAdmissionStart(turn)

	admitErr := admit(actx)

	// Merged admissions collected by the engine run here, staging their
	// inputs through the same state.
	d.engine.OnTurnAdmissionEnd(turn)
	st.active = false

	if admitErr == nil {
		admitErr = turn.Err()
	}
	if admitErr != nil {
		d.engine.OnTurnEnd(turn)
		return admitErr
	}

	pctx := withPropagation(ctx, d, turn)
	turn.SetPropagationContext(pctx)

	shouldPropagate := false
	for _, in := range st.inputs {
		res, err := in.Tick(turn)
		if err != nil {
			turn.Fail(err)
			break
		}
		if res == api.TickPulsed {
			shouldPropagate = true
		}
	}

	if err := turn.Err(); err != nil {
		d.engine.OnTurnEnd(turn)
		return err
	}

	if shouldPropagate {
		if err := d.engine.OnTurnPropagate(turn); err != nil {
			turn.Fail(err)
			d.engine.OnTurnEnd(turn)
			return err
		}
	}

	for _, n := range turn.TakeDetached() {
		d.observers.Unregister(n)
	}

	d.engine.OnTurnEnd(turn)
	d.turnsDone.Add(1)
	return nil
}

// DetachObserver removes an observer node. Called with a propagating
// context of this domain, the removal is deferred to the end of the
// current turn so the node may still receive its final pulse; otherwise
// it takes effect immediately.
func (d *Domain) DetachObserver(ctx context.Context, n api.Node) {
	if p := propagationFrom(ctx, d); p != nil {
		p.turn.ScheduleDetach(n)
		return
	}
	d.observers.Unregister(n)
}

// processContinuations drains the continuation chain started by prev.
// Each successor turn drops the merge flag so continuations never
// coalesce with foreign transactions.
func (d *Domain) processContinuations(ctx context.Context, prev *api.Turn) error {
	flags := prev.Flags() &^ api.EnableInputMerging
	turn := prev
	for {
		cont := turn.StealContinuation()
		if cont == nil {
			return nil
		}
		next := api.NewTurn(d.nextTurnID(), flags)
		if err := d.processTurn(ctx, next, cont.Execute); err != nil {
			return err
		}
		turn = next
	}
}
