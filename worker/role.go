package worker

import (
	"context"
	"fmt"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/comm"
	"github.com/lclsdet/parcorana/logging"
	"github.com/lclsdet/parcorana/wire"
)

// Worker runs one worker rank's loop (spec §4.4): receive a broadcast from
// master, participate in the matching scatter or gather, maintain the
// correlation engine.
type Worker struct {
	rank          comm.Rank
	masterWorkers *comm.Communicator
	serverComms   map[comm.Rank]*comm.Communicator // keyed by server's world rank
	viewerWorkers *comm.Communicator
	viewerRank    comm.Rank

	engine *Engine
	log    *logging.Logger
}

// New builds a Worker for rank. serverComms must have one entry per server
// rank appearing in a NEW_EVENT broadcast's SenderRank (spec §4.1's
// per-server communicators).
func New(rank comm.Rank, masterWorkers *comm.Communicator, serverComms map[comm.Rank]*comm.Communicator, viewerWorkers *comm.Communicator, viewerRank comm.Rank, engine *Engine, log *logging.Logger) *Worker {
	return &Worker{
		rank:          rank,
		masterWorkers: masterWorkers,
		serverComms:   serverComms,
		viewerWorkers: viewerWorkers,
		viewerRank:    viewerRank,
		engine:        engine,
		log:           log,
	}
}

// Run executes the per-broadcast loop of spec §4.4 until an END broadcast
// is received.
func (w *Worker) Run(ctx context.Context) error {
	for {
		raw, err := w.masterWorkers.BroadcastRecv(ctx, w.rank)
		if err != nil {
			return err
		}
		msg, ok := raw.(wire.BroadcastMsg)
		if !ok {
			return fmt.Errorf("%w: worker %d received a broadcast of unexpected type", parcorana.ErrProtocol, w.rank)
		}

		switch msg.Tag {
		case wire.TagEvt:
			if err := w.handleEvent(ctx, msg); err != nil {
				return err
			}
		case wire.TagUpdate:
			if err := w.handleUpdate(ctx); err != nil {
				return err
			}
		case wire.TagEnd:
			return nil
		default:
			return fmt.Errorf("%w: worker %d received unknown broadcast tag %s", parcorana.ErrProtocol, w.rank, msg.Tag)
		}
	}
}

// handleEvent implements spec §4.4 steps 2-4: participate in the named
// server's scatter, then fold the received slice into the engine.
func (w *Worker) handleEvent(ctx context.Context, msg wire.BroadcastMsg) error {
	serverComm, ok := w.serverComms[comm.Rank(msg.SenderRank)]
	if !ok {
		return fmt.Errorf("%w: worker %d has no scatter communicator for server rank %d", parcorana.ErrProtocol, w.rank, msg.SenderRank)
	}

	slice, err := serverComm.ScatterRecv(ctx, w.rank)
	if err != nil {
		return err
	}

	if w.log != nil && w.log.Enabled(logging.LevelDebug) {
		min, p25, median, p75, max := quantiles(slice)
		w.log.Debugf("worker: counter=%d received slice stats min=%v p25=%v median=%v p75=%v max=%v",
			msg.Counter, min, p25, median, p75, max)
	}

	return w.engine.Insert(msg.Counter, slice)
}

// handleUpdate implements spec §4.4 step 5: assemble the current
// accumulators via workerCalc and contribute them to the viewer's gather.
func (w *Worker) handleUpdate(ctx context.Context) error {
	m := w.engine.Compute()
	return w.viewerWorkers.GatherSend(ctx, w.rank, w.viewerRank, wire.WorkerPartial{
		Rank:       int(w.rank),
		G2:         m.G2,
		IF:         m.IF,
		IP:         m.IP,
		Counts:     m.Counts,
		Saturation: m.Saturation,
	})
}
