package parcorana

import (
	"context"
	"sync"

	"github.com/lclsdet/parcorana/pool"
)

// dispatcher reads roleTasks from the input channel and executes them via
// the pool. Unlike the teacher's dispatcher, the inflight count here is
// known upfront (one task per rank) and is seeded by the caller before
// run starts; run only calls Done per completed task, avoiding a
// WaitGroup Add/Wait race between the dispatch loop and the caller
// blocking on inflight.Wait() for a fixed, already-known task count.
type dispatcher struct {
	tasks    <-chan *roleTask
	inflight *sync.WaitGroup
	pool     pool.Pool
}

func newDispatcher(tasks <-chan *roleTask, inflight *sync.WaitGroup, p pool.Pool) *dispatcher {
	return &dispatcher{tasks: tasks, inflight: inflight, pool: p}
}

// run starts the dispatch loop and returns when the context is canceled.
func (d *dispatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.tasks:
			go func(tt *roleTask) {
				defer d.inflight.Done()
				d.execute(ctx, tt)
			}(t)
		}
	}
}

func (d *dispatcher) execute(ctx context.Context, t *roleTask) {
	ww := d.pool.Get().(*poolWorker)
	ww.execute(ctx, t)
	d.pool.Put(ww)
}
