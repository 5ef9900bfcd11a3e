package parcorana

import (
	"context"
	"errors"
	"sync"

	"github.com/lclsdet/parcorana/pool"
)

// Supervisor owns exactly one long-lived role loop per rank in the world
// and runs them concurrently, wiring first-error cancellation so that any
// rank's unrecoverable error becomes a world-abort for every other rank
// (spec §4.3, §7). It generalizes the teacher's transient Workers[R]/
// RunAll engine to a fixed set of long-running tasks known in advance:
// Register replaces AddTask, and Run blocks for the whole lifetime of the
// world instead of returning once a task queue drains.
type Supervisor struct {
	config Config

	n     int
	tasks []*roleTask

	pool pool.Pool
}

// NewSupervisor creates a Supervisor sized for n ranks.
func NewSupervisor(n int, opts ...Option) *Supervisor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Supervisor{
		config: cfg,
		n:      n,
		tasks:  make([]*roleTask, 0, n),
	}
}

// Register attaches a rank's role loop. Must be called before Run, once
// per rank; the order of registration does not matter.
func (s *Supervisor) Register(role Role, rank int, fn RoleFunc) {
	s.tasks = append(s.tasks, &roleTask{role: role, rank: rank, fn: fn})
}

// ErrRankCountMismatch is returned by Run when fewer or more roles were
// registered than the Supervisor was sized for.
var ErrRankCountMismatch = errors.New(Namespace + ": registered role count does not match world size")

// Run starts every registered role loop and blocks until all of them
// return. The first rank to return a non-nil error triggers cancellation
// of a derived context shared by every other role loop — the Go analogue
// of the world-abort in spec §7. Run returns that first error (if any);
// a plain context.Canceled surfacing from a rank that merely observed the
// abort is not itself reported as a cause.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.tasks) != s.n {
		return ErrRankCountMismatch
	}

	results := make(chan RoleResult, s.config.ResultsBufferSize)
	errBuf := make(chan error, s.config.StopOnErrorErrorsBufferSize)
	outward := make(chan error, s.config.ErrorsBufferSize)

	newWorkerFn := func() interface{} { return newPoolWorker(results, errBuf) }
	s.pool = pool.NewFixed(uint(s.n), newWorkerFn)

	runCtx, cancel := context.WithCancel(ctx)

	closeCh := make(chan struct{})
	var sendWG sync.WaitGroup
	forwarder := newErrorForwarder(errBuf, outward, closeCh, cancel, &sendWG)
	go forwarder.run()

	taskCh := make(chan *roleTask, s.n)

	var inflight sync.WaitGroup
	inflight.Add(s.n)
	disp := newDispatcher(taskCh, &inflight, s.pool)

	var dispatcherWG sync.WaitGroup
	dispatcherWG.Add(1)
	go func() {
		defer dispatcherWG.Done()
		disp.run(runCtx)
	}()

	for _, t := range s.tasks {
		taskCh <- t
	}

	inflight.Wait()
	cancel() // every role task has already completed; stop the dispatch loop

	var errs []error
	lc := newLifecycleCoordinator(
		func() {}, // cancel already issued above
		nil,       // inflight already awaited above
		closeCh,
		&dispatcherWG,
		&sendWG,
		func() {
			close(results)
			for range results {
			}
		},
		func() {
			close(outward)
			for e := range outward {
				if e != nil && !errors.Is(e, context.Canceled) {
					errs = append(errs, e)
				}
			}
		},
	)
	lc.Close()

	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
