package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/comm"
	"github.com/lclsdet/parcorana/logging"
	"github.com/lclsdet/parcorana/metrics"
	"github.com/lclsdet/parcorana/topology"
	"github.com/lclsdet/parcorana/wire"
)

// Viewer runs the viewer rank's loop (spec §4.5).
type Viewer struct {
	rank       comm.Rank
	world      *comm.World
	gatherComm *comm.Communicator // viewer + workers, viewer as root

	workerRanks []comm.Rank // ascending, same order as partition
	partition   topology.Partition
	m           int
	k           int

	colors    *ColorTable
	publisher Publisher
	log       *logging.Logger

	gatherLatency metrics.Histogram
	now           func() time.Time
}

// New builds a Viewer for rank. workerRanks and partition must be in the
// same order the mask-wide M elements were divided in (spec §4.1
// DivideAmongWorkers); k is the number of configured delays.
func New(rank comm.Rank, world *comm.World, gatherComm *comm.Communicator, workerRanks []comm.Rank, partition topology.Partition, k int, colors *ColorTable, publisher Publisher, log *logging.Logger) *Viewer {
	m := 0
	for _, c := range partition.Counts {
		m += c
	}
	return &Viewer{
		rank:          rank,
		world:         world,
		gatherComm:    gatherComm,
		workerRanks:   append([]comm.Rank(nil), workerRanks...),
		partition:     partition,
		m:             m,
		k:             k,
		colors:        colors,
		publisher:     publisher,
		log:           log,
		gatherLatency: metrics.NewNoopProvider().Histogram(""),
		now:           time.Now,
	}
}

// UseMetrics wires a gather-latency histogram onto p, replacing the no-op
// default (spec §11 "Metrics"). Call once before Run.
func (v *Viewer) UseMetrics(p metrics.Provider) {
	v.gatherLatency = p.Histogram("viewer_gather_latency_seconds", metrics.WithDescription("wall time spent gathering one update's worker contributions"), metrics.WithUnit("s"))
}

// Run executes spec §4.5's loop until an END metadata message is received.
func (v *Viewer) Run(ctx context.Context) error {
	for {
		e, err := v.world.Recv(ctx, v.rank)
		if err != nil {
			return err
		}
		msg, ok := e.Msg.(wire.UpdateMsg)
		if !ok {
			return fmt.Errorf("%w: viewer received a metadata message of unexpected type", parcorana.ErrProtocol)
		}

		switch msg.Tag {
		case wire.TagUpdate:
			if err := v.handleUpdate(ctx, msg); err != nil {
				return err
			}
		case wire.TagEnd:
			return nil
		default:
			return fmt.Errorf("%w: viewer received unexpected tag %s", parcorana.ErrProtocol, msg.Tag)
		}
	}
}

// handleUpdate implements spec §4.5 steps 2-5: gather, retire saturated
// colors, normalize, publish.
func (v *Viewer) handleUpdate(ctx context.Context, msg wire.UpdateMsg) error {
	start := v.now()
	raw, err := v.gatherComm.GatherRecv(ctx, v.rank)
	v.gatherLatency.Record(v.now().Sub(start).Seconds())
	if err != nil {
		return err
	}

	gathered, err := v.assemble(raw)
	if err != nil {
		return err
	}

	if retired := v.colors.Retire(gathered.Saturation); len(retired) > 0 && v.log != nil {
		v.log.Infof("viewer: retired colors %v (all pixels saturated)", retired)
	}

	curves := Normalize(&gathered, v.colors)

	if v.publisher == nil {
		return nil
	}
	return v.publisher.Publish(msg.LatestCounter, curves, gathered)
}

// assemble implements spec §4.6: stitch each worker's K x m_w contribution
// into the viewer's K x M staging at that worker's precomputed offset, and
// take the counts vector from the first contribution (all workers agree,
// spec §8 invariant 5).
func (v *Viewer) assemble(partials map[comm.Rank]any) (wire.Gathered, error) {
	g2 := make([][]float32, v.k)
	ifAcc := make([][]float32, v.k)
	ipAcc := make([][]float32, v.k)
	for d := range g2 {
		g2[d] = make([]float32, v.m)
		ifAcc[d] = make([]float32, v.m)
		ipAcc[d] = make([]float32, v.m)
	}
	saturation := make([]int8, v.m)
	var counts []int64

	for i, wr := range v.workerRanks {
		raw, ok := partials[wr]
		if !ok {
			return wire.Gathered{}, fmt.Errorf("%w: viewer gather missing contribution from worker rank %d", parcorana.ErrProtocol, wr)
		}
		wp, ok := raw.(wire.WorkerPartial)
		if !ok {
			return wire.Gathered{}, fmt.Errorf("%w: viewer gather contribution from rank %d has unexpected type", parcorana.ErrProtocol, wr)
		}

		offset, count := v.partition.Offsets[i], v.partition.Counts[i]
		for d := 0; d < v.k; d++ {
			copy(g2[d][offset:offset+count], wp.G2[d])
			copy(ifAcc[d][offset:offset+count], wp.IF[d])
			copy(ipAcc[d][offset:offset+count], wp.IP[d])
		}
		copy(saturation[offset:offset+count], wp.Saturation)

		if counts == nil {
			counts = append([]int64(nil), wp.Counts...)
		}
	}

	return wire.Gathered{G2: g2, IF: ifAcc, IP: ipAcc, Counts: counts, Saturation: saturation}, nil
}
