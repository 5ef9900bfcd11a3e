package parcorana

import (
	"context"
	"fmt"
)

// poolWorker pulls one roleTask off the dispatcher and runs it to
// completion, delivering its RoleResult or a panic-wrapped error.
type poolWorker struct {
	results chan RoleResult
	errors  chan error
}

func newPoolWorker(results chan RoleResult, errors chan error) *poolWorker {
	return &poolWorker{results: results, errors: errors}
}

func (w *poolWorker) execute(ctx context.Context, t *roleTask) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			w.errors <- fmt.Errorf("%w: %v", ErrTaskPanicked, ePanic)
		}
	}()

	result, err := t.execute(ctx)

	if err != nil {
		w.errors <- err
		return
	}

	w.results <- result
}
