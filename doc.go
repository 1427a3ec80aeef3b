// Package ripple provides a turn-based reactive dataflow library for Go.
//
// Ripple is designed for application code that derives state from changing
// inputs: values, computed signals and event streams form a dependency
// graph, and every change propagates through it glitch-free. It runs fully
// in Go, needs no external infrastructure, and integrates cleanly into
// existing codebases.
//
// # Core Concepts
//
// The Ripple programming model is intentionally small:
//
//  1. Domain
//  2. Signals and event streams
//  3. Turns and transactions
//  4. Observers
//  5. Engines
//
// # Domain
//
// A Domain owns one reactive graph. It creates nodes, admits inputs and
// drives propagation. Domains are registered process-wide under a unique
// name and are safe for concurrent use from multiple goroutines; turns on
// one domain are serialized by its engine.
//
//	d, err := ripple.NewDomain("app")
//
// # Signals and event streams
//
// Input values enter through VarSignal (MakeVar) and EventSource
// (MakeEventSource). Derived state is built with MakeSignal and the event
// combinators:
//
//	price := ripple.MakeVar(d, 10)
//	qty := ripple.MakeVar(d, 2)
//	total := ripple.MakeSignal2(d, func(p, q int) int { return p * q }, price, qty)
//
// Signal values are compared with ==: an update that does not change the
// value is absorbed without waking dependents. Event payloads are never
// compared; every emission propagates.
//
// # Turns and transactions
//
// Every input is applied in a turn, the atomic unit of propagation. A
// single Set or Emit runs as its own turn; DoTransaction groups several
// inputs into one:
//
//	err := d.DoTransaction(ctx, func(ctx context.Context) error {
//	    if err := price.Set(ctx, 12); err != nil {
//	        return err
//	    }
//	    return qty.Set(ctx, 3)
//	})
//
// Within a turn every affected node updates exactly once, after all of its
// dependencies. Inputs added from inside a propagating turn are deferred
// into a continuation and applied in a successor turn. Transactions opened
// with EnableInputMerging may coalesce into a concurrently admitting turn
// that also carries the flag.
//
// # Observers
//
// Observe and ObserveEvents attach callbacks to the edge of the graph.
// Observers are pinned by their domain's registry until detached; a detach
// requested during a turn takes effect when the turn ends.
//
// # Engines
//
// The propagation strategy is pluggable. Two engines ship with the
// library:
//
//   - TopoSortEngine: sequential, topological order (the default)
//   - ParallelEngine: same order, same-level nodes ticked concurrently
//
// Both guarantee glitch-freedom and serialize turns. Trace sinks
// (slog, in-memory, SQLite) can be attached per domain to record node
// lifecycle and turn activity.
package ripple
