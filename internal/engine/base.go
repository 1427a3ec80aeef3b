package engine

import (
	"sync"

	"github.com/petrijr/ripple/pkg/api"
)

// nodeInfo is the engine-side bookkeeping for one node: its level in
// the topological order and its edges. Levels only ever grow, so a
// node's dependents always sort after it.
type nodeInfo struct {
	node     api.Node
	level    int
	parents  map[api.NodeID]api.Node
	children map[api.NodeID]api.Node
}

// mergeEntry is one admission waiting to be folded into the host turn.
type mergeEntry struct {
	fn   api.AdmissionFunc
	done chan struct{}
}

// baseEngine carries the topology, the per-turn schedule and the merge
// queue shared by the concrete engines. Turn ordering is enforced by
// turnMu, held from admission start to turn end, so at most one turn is
// in flight per engine.
type baseEngine struct {
	mu    sync.Mutex
	nodes map[api.NodeID]*nodeInfo

	schedMu  sync.Mutex
	sched    *levelQueue
	enqueued map[api.NodeID]bool
	visited  map[api.NodeID]bool

	turnMu sync.Mutex

	mergeMu   sync.Mutex
	admitting *api.Turn
	pending   []mergeEntry
	merged    []mergeEntry
}

func newBaseEngine() baseEngine {
	return baseEngine{
		nodes:    make(map[api.NodeID]*nodeInfo),
		sched:    newLevelQueue(),
		enqueued: make(map[api.NodeID]bool),
		visited:  make(map[api.NodeID]bool),
	}
}

func (e *baseEngine) OnNodeCreate(n api.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[n.ObjectID()] = &nodeInfo{
		node:     n,
		parents:  make(map[api.NodeID]api.Node),
		children: make(map[api.NodeID]api.Node),
	}
}

func (e *baseEngine) OnNodeDestroy(n api.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	info, ok := e.nodes[n.ObjectID()]
	if !ok {
		return
	}
	for _, p := range info.parents {
		if pi, ok := e.nodes[p.ObjectID()]; ok {
			delete(pi.children, n.ObjectID())
		}
	}
	for _, c := range info.children {
		if ci, ok := e.nodes[c.ObjectID()]; ok {
			delete(ci.parents, n.ObjectID())
		}
	}
	delete(e.nodes, n.ObjectID())
}

func (e *baseEngine) OnNodeAttach(child, parent api.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attachLocked(child, parent)
}

func (e *baseEngine) attachLocked(child, parent api.Node) {
	ci, ok1 := e.nodes[child.ObjectID()]
	pi, ok2 := e.nodes[parent.ObjectID()]
	if !ok1 || !ok2 {
		return
	}
	ci.parents[parent.ObjectID()] = parent
	pi.children[child.ObjectID()] = child
	e.raiseLevelLocked(ci, pi.level+1)
}

// raiseLevelLocked lifts info to at least level and cascades the lift
// through its descendants. Levels are never lowered; a conservative
// level only costs ordering slack, never correctness.
func (e *baseEngine) raiseLevelLocked(info *nodeInfo, level int) {
	if info.level >= level {
		return
	}
	info.level = level
	for _, c := range info.children {
		if ci, ok := e.nodes[c.ObjectID()]; ok {
			e.raiseLevelLocked(ci, level+1)
		}
	}
}

func (e *baseEngine) OnNodeDetach(child, parent api.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detachLocked(child, parent)
}

func (e *baseEngine) detachLocked(child, parent api.Node) {
	if ci, ok := e.nodes[child.ObjectID()]; ok {
		delete(ci.parents, parent.ObjectID())
	}
	if pi, ok := e.nodes[parent.ObjectID()]; ok {
		delete(pi.children, child.ObjectID())
	}
}

// OnNodePulse schedules the dependents of n for ticking in this turn.
func (e *baseEngine) OnNodePulse(n api.Node, turn *api.Turn) {
	e.mu.Lock()
	info, ok := e.nodes[n.ObjectID()]
	if !ok {
		e.mu.Unlock()
		return
	}
	children := make([]api.Node, 0, len(info.children))
	for _, c := range info.children {
		children = append(children, c)
	}
	e.mu.Unlock()

	for _, c := range children {
		e.schedule(c)
	}
}

// OnNodeIdlePulse records quiescence; dependents are not scheduled,
// because an unchanged parent cannot change them.
func (e *baseEngine) OnNodeIdlePulse(n api.Node, turn *api.Turn) {}

// OnNodeShift re-links n under newParent and re-schedules it so the new
// parent's current state is folded into this turn.
func (e *baseEngine) OnNodeShift(n api.Node, oldParent, newParent api.Node, turn *api.Turn) {
	e.mu.Lock()
	e.detachLocked(n, oldParent)
	e.attachLocked(n, newParent)
	e.mu.Unlock()

	e.schedMu.Lock()
	delete(e.visited, n.ObjectID())
	e.schedMu.Unlock()
	e.schedule(n)
}

// schedule enqueues n for this turn unless it is already queued or has
// already ticked.
func (e *baseEngine) schedule(n api.Node) {
	e.mu.Lock()
	info, ok := e.nodes[n.ObjectID()]
	if !ok {
		e.mu.Unlock()
		return
	}
	level := info.level
	e.mu.Unlock()

	e.schedMu.Lock()
	defer e.schedMu.Unlock()
	if e.enqueued[n.ObjectID()] || e.visited[n.ObjectID()] {
		return
	}
	e.enqueued[n.ObjectID()] = true
	e.sched.push(n, level)
}

// popNext removes and returns the queued node with the lowest level,
// marking it visited. It returns nil when the queue is empty.
func (e *baseEngine) popNext() api.Node {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()
	n, ok := e.sched.pop()
	if !ok {
		return nil
	}
	delete(e.enqueued, n.ObjectID())
	e.visited[n.ObjectID()] = true
	return n
}

// popLevel removes and returns every queued node sharing the current
// lowest level, marking them visited.
func (e *baseEngine) popLevel() []api.Node {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()
	batch := e.sched.popMinLevel()
	for _, n := range batch {
		delete(e.enqueued, n.ObjectID())
		e.visited[n.ObjectID()] = true
	}
	return batch
}

// clearSchedule drops all per-turn scheduling state.
func (e *baseEngine) clearSchedule() {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()
	e.sched.clear()
	e.enqueued = make(map[api.NodeID]bool)
	e.visited = make(map[api.NodeID]bool)
}

func (e *baseEngine) OnTurnAdmissionStart(turn *api.Turn) {
	e.turnMu.Lock()
	if turn.Flags().Has(api.EnableInputMerging) {
		e.mergeMu.Lock()
		e.admitting = turn
		e.mergeMu.Unlock()
	}
}

// OnTurnAdmissionEnd drains the merge queue into the host turn. New
// admissions may arrive while earlier ones run, so draining loops until
// the queue stays empty.
func (e *baseEngine) OnTurnAdmissionEnd(turn *api.Turn) {
	for {
		e.mergeMu.Lock()
		if len(e.pending) == 0 {
			e.admitting = nil
			e.mergeMu.Unlock()
			return
		}
		batch := e.pending
		e.pending = nil
		e.mergeMu.Unlock()

		for _, m := range batch {
			if err := m.fn(turn.AdmissionContext()); err != nil {
				turn.Fail(err)
			}
			e.mergeMu.Lock()
			e.merged = append(e.merged, m)
			e.mergeMu.Unlock()
		}
	}
}

func (e *baseEngine) OnTurnInputChange(n api.Node, turn *api.Turn) {}

// OnTurnEnd wakes merged callers and releases turn ordering.
func (e *baseEngine) OnTurnEnd(turn *api.Turn) {
	e.mergeMu.Lock()
	merged := e.merged
	e.merged = nil
	e.mergeMu.Unlock()
	for _, m := range merged {
		close(m.done)
	}

	e.clearSchedule()
	e.turnMu.Unlock()
}

// TryMerge folds fn into the turn currently admitting, when both sides
// allow merging. It blocks until the host turn has ended, so the caller
// observes the merged input's effects on return.
func (e *baseEngine) TryMerge(fn api.AdmissionFunc, flags api.TurnFlags) bool {
	if !flags.Has(api.EnableInputMerging) {
		return false
	}

	e.mergeMu.Lock()
	if e.admitting == nil || !e.admitting.Flags().Has(api.EnableInputMerging) {
		e.mergeMu.Unlock()
		return false
	}
	entry := mergeEntry{fn: fn, done: make(chan struct{})}
	e.pending = append(e.pending, entry)
	e.mergeMu.Unlock()

	<-entry.done
	return true
}
