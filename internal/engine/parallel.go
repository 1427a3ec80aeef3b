package engine

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/petrijr/ripple/pkg/api"
)

// ParallelEngine propagates turns level by level, ticking all nodes of
// one level concurrently. Nodes on the same level cannot depend on each
// other, so the batch is safe; levels still run in order, which keeps
// turns glitch-free.
type ParallelEngine struct {
	baseEngine
	workers int
}

var _ api.Engine = (*ParallelEngine)(nil)

// NewParallelEngine creates a level-parallel engine with up to workers
// concurrent ticks per level. workers <= 0 selects GOMAXPROCS.
func NewParallelEngine(workers int) *ParallelEngine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelEngine{baseEngine: newBaseEngine(), workers: workers}
}

// OnTurnPropagate drains the schedule one level at a time. The first
// tick error wins; the rest of the batch finishes, then propagation
// stops and the remaining schedule is dropped.
func (e *ParallelEngine) OnTurnPropagate(turn *api.Turn) error {
	for {
		batch := e.popLevel()
		if len(batch) == 0 {
			return nil
		}
		if len(batch) == 1 {
			if _, err := batch[0].Tick(turn); err != nil {
				e.clearSchedule()
				return err
			}
			continue
		}

		var g errgroup.Group
		g.SetLimit(e.workers)
		for _, n := range batch {
			n := n
			g.Go(func() error {
				_, err := n.Tick(turn)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			e.clearSchedule()
			return err
		}
	}
}
