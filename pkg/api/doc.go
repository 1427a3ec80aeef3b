// Package api contains the core contracts of the ripple propagation
// engine. It defines the interfaces between domains, engines, and nodes,
// along with the turn machinery that carries one update through the
// dependency graph.
//
// Most users interact with the higher-level ripple package, which
// re-exports selected types and helpers from this package. The api
// package is intended for advanced use cases, custom engines, or
// contributors extending the core.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Nodes and input nodes
//   - Engines
//   - Turns, continuations, and turn flags
//   - Trace records and sinks
//
// These primitives are assembled by the domain in the ripple package,
// but can also be used directly where fine-grained control is needed.
//
// # Nodes
//
// A Node is a vertex of the dependency graph. Nodes are ticked by the
// engine during propagation and report whether they pulsed (their value
// or event batch changed) or stayed idle. InputNode extends Node with
// input staging: only input nodes may receive values from outside the
// graph.
//
// # Engines
//
// An Engine orders and propagates turns. It is notified of every graph
// mutation (node creation, attachment, dynamic shift) and of every turn
// phase, and it decides which nodes tick, in which order, and with how
// much concurrency. Engines must deliver each changed node's effect
// exactly once per turn, after all of its changed predecessors.
//
// # Turns
//
// A Turn is one atomic propagation pass. It carries the turn identifier
// and flags, the contexts of the admission and propagation phases, the
// continuation holding inputs deferred to a successor turn, and the
// observer detachments scheduled during the pass.
//
// Turn flags adjust how a turn is admitted. Flags travel either as an
// explicit argument or on a context via WithTurnFlags, so that library
// code can opt callers into behavior such as input merging without
// changing call signatures.
//
// # Tracing
//
// TraceSink receives one TraceEvent per graph mutation, node pulse, input
// change and turn boundary (begin and end).
// The ripple package provides ready-made sinks (memory, slog, SQLite)
// along with NewCompositeTraceSink to fan records out to several sinks
// at once.
//
// # Usage
//
// Most applications should start from the ripple package, using the
// domain and node constructors provided there. See the ripple package
// documentation and its runnable examples for end-to-end usage.
package api
