package engine

import (
	"github.com/petrijr/ripple/pkg/api"
)

// TopoSortEngine propagates turns sequentially in topological order:
// nodes tick lowest level first, each at most once per turn, so every
// node observes fully updated parents.
type TopoSortEngine struct {
	baseEngine
}

var _ api.Engine = (*TopoSortEngine)(nil)

// NewTopoSortEngine creates a sequential engine.
func NewTopoSortEngine() *TopoSortEngine {
	return &TopoSortEngine{baseEngine: newBaseEngine()}
}

// OnTurnPropagate ticks scheduled nodes until the queue drains. A tick
// error stops propagation; remaining scheduled nodes are dropped with
// the turn.
func (e *TopoSortEngine) OnTurnPropagate(turn *api.Turn) error {
	for {
		n := e.popNext()
		if n == nil {
			return nil
		}
		if _, err := n.Tick(turn); err != nil {
			e.clearSchedule()
			return err
		}
	}
}
