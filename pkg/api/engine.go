package api

import "context"

// AdmissionFunc is a transaction body: it performs zero or more AddInput
// calls through the context it receives.
type AdmissionFunc func(ctx context.Context) error

// Engine is the propagation strategy of a domain. The domain drives it
// through the hooks below; implementations order and possibly parallelize
// node updates while keeping every turn glitch-free.
//
// Invariants the domain relies on:
//
//  1. OnTurnPropagate returns only after every node transitively affected
//     by a pulsed input has ticked exactly once for the turn.
//  2. Turns whose input sets share a dependency never propagate
//     concurrently; the engine serializes them.
//  3. TryMerge does not block when it returns false.
type Engine interface {
	// OnNodeCreate registers a freshly constructed node in the topology.
	OnNodeCreate(n Node)

	// OnNodeDestroy removes the node; no in-flight pulse may target it
	// afterwards.
	OnNodeDestroy(n Node)

	// OnNodeAttach adds the dependency edge parent -> child.
	OnNodeAttach(child, parent Node)

	// OnNodeDetach removes the dependency edge parent -> child.
	OnNodeDetach(child, parent Node)

	// OnNodePulse is invoked from a node's Tick when it changed; the engine
	// schedules the node's dependents for ticking in this turn.
	OnNodePulse(n Node, turn *Turn)

	// OnNodeIdlePulse is invoked from a node's Tick when it confirmed no
	// change, letting dependents observe quiescence.
	OnNodeIdlePulse(n Node, turn *Turn)

	// OnNodeShift re-links node from oldParent to newParent mid-turn and
	// re-levels so the new parent's effect is not missed in this turn.
	OnNodeShift(n Node, oldParent, newParent Node, turn *Turn)

	// OnTurnAdmissionStart / OnTurnAdmissionEnd delimit the admission
	// phase; propagation is quiescent in between. The engines in
	// internal/engine apply dependency edits made in between like any other
	// edit; they do not reject them. Merged admissions collected by
	// TryMerge execute during OnTurnAdmissionEnd on the host's admission
	// context.
	OnTurnAdmissionStart(turn *Turn)
	OnTurnAdmissionEnd(turn *Turn)

	// OnTurnInputChange enlists a pulsed input node as a propagation root.
	OnTurnInputChange(n Node, turn *Turn)

	// OnTurnPropagate drives dependents of the turn's roots to fixpoint in
	// topological order. It returns the first user-callback error, at which
	// point no further nodes are scheduled for this turn.
	OnTurnPropagate(turn *Turn) error

	// OnTurnEnd is called by the domain after post-processing every turn,
	// including continuation turns and the single-input path. Engines
	// release turn ordering and complete pending merges here.
	OnTurnEnd(turn *Turn)

	// TryMerge folds fn into a turn that is currently in admission, when
	// both the caller's flags and the host turn's flags enable input
	// merging. On success it blocks until the host turn has ended and
	// returns true; otherwise it returns false without blocking.
	TryMerge(fn AdmissionFunc, flags TurnFlags) bool
}
