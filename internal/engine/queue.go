package engine

import (
	"container/heap"

	"github.com/petrijr/ripple/pkg/api"
)

// levelQueue orders scheduled nodes by topological level, with
// insertion order breaking ties. It is not safe for concurrent use;
// callers hold the schedule lock.
type levelQueue struct {
	h   entryHeap
	seq uint64
}

type queueEntry struct {
	node  api.Node
	level int
	seq   uint64
}

func newLevelQueue() *levelQueue {
	return &levelQueue{}
}

func (q *levelQueue) push(n api.Node, level int) {
	q.seq++
	heap.Push(&q.h, queueEntry{node: n, level: level, seq: q.seq})
}

func (q *levelQueue) pop() (api.Node, bool) {
	if len(q.h) == 0 {
		return nil, false
	}
	e := heap.Pop(&q.h).(queueEntry)
	return e.node, true
}

// popMinLevel removes every entry sharing the current minimum level.
func (q *levelQueue) popMinLevel() []api.Node {
	if len(q.h) == 0 {
		return nil
	}
	level := q.h[0].level
	var batch []api.Node
	for len(q.h) > 0 && q.h[0].level == level {
		e := heap.Pop(&q.h).(queueEntry)
		batch = append(batch, e.node)
	}
	return batch
}

func (q *levelQueue) len() int { return len(q.h) }

func (q *levelQueue) clear() {
	q.h = q.h[:0]
	q.seq = 0
}

type entryHeap []queueEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].level != h[j].level {
		return h[i].level < h[j].level
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(queueEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
