// Package master implements the sequencer rank (spec §4.3): it tracks
// every server's readiness, selects the next event to admit, assigns its
// counter, and drives the periodic broadcast/gather-update cadence.
package master

import (
	"context"
	"fmt"
	"time"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/comm"
	"github.com/lclsdet/parcorana/counter"
	"github.com/lclsdet/parcorana/logging"
	"github.com/lclsdet/parcorana/metrics"
	"github.com/lclsdet/parcorana/wire"
)

// UpdateInterval configures the periodic broadcast/gather cadence of spec
// §4.3 step 7. Zero disables mid-run updates; only the final update at
// shutdown is ever sent.
type UpdateInterval int

// Master runs the sequencer rank's loop.
type Master struct {
	rank        comm.Rank
	world       *comm.World
	servers     []comm.Rank // ascending, fixed membership
	viewerRank  comm.Rank
	workersComm *comm.Communicator // master + workers, master as root

	mode           Mode
	updateInterval int

	assigner     counter.Assigner
	rate         *rateLogger
	eventsPerSec metrics.Counter
	log          *logging.Logger

	now func() time.Time
}

// New builds a Master for rank, sequencing servers (ascending world ranks),
// broadcasting NEW_EVENT/UPDATE/END on workersComm, and sending UPDATE/END
// point-to-point to viewerRank.
func New(rank comm.Rank, world *comm.World, servers []comm.Rank, viewerRank comm.Rank, workersComm *comm.Communicator, mode Mode, updateInterval int, rateWindow time.Duration, log *logging.Logger) *Master {
	return &Master{
		rank:           rank,
		world:          world,
		servers:        append([]comm.Rank(nil), servers...),
		viewerRank:     viewerRank,
		workersComm:    workersComm,
		mode:           mode,
		updateInterval: updateInterval,
		rate:           newRateLogger(rateWindow, log),
		eventsPerSec:   metrics.NewNoopProvider().Counter(""),
		log:            log,
		now:            time.Now,
	}
}

// UseMetrics wires an events-admitted counter onto p, replacing the no-op
// default (spec §11 "Metrics"). Call once before Run.
func (m *Master) UseMetrics(p metrics.Provider) {
	m.eventsPerSec = p.Counter("master_events_admitted_total", metrics.WithDescription("count of events admitted and assigned a counter"), metrics.WithUnit("1"))
}

// Run executes the sequencer loop of spec §4.3 until every server has sent
// END, then emits the final UPDATE and END messages.
func (m *Master) Run(ctx context.Context) error {
	runStart := m.now()

	notReady := make(map[comm.Rank]bool, len(m.servers))
	for _, s := range m.servers {
		notReady[s] = true
	}
	ready := make(map[comm.Rank]wire.EventID, len(m.servers))
	finished := make(map[comm.Rank]bool, len(m.servers))

	var lastSelected comm.Rank
	hasLastSelected := false

	var latestEventID wire.EventID
	var latestCounter int64
	hasLatest := false

	var numEvents, lastUpdate int64

	for len(finished) < len(m.servers) {
		if len(notReady) > 0 {
			envs, err := m.world.RecvN(ctx, m.rank, len(notReady))
			if err != nil {
				return err
			}
			for _, e := range envs {
				msg, ok := e.Msg.(wire.ServerMasterMsg)
				if !ok {
					return fmt.Errorf("%w: master received a server message of unexpected type", parcorana.ErrProtocol)
				}
				rank := comm.Rank(msg.SenderRank)
				switch msg.Tag {
				case wire.TagEvtReady:
					ready[rank] = msg.EventID
					delete(notReady, rank)
				case wire.TagEnd:
					finished[rank] = true
					delete(notReady, rank)
				default:
					return fmt.Errorf("%w: master received unexpected tag %s from server %d", parcorana.ErrProtocol, msg.Tag, rank)
				}
			}
		}

		if len(ready) == 0 {
			continue
		}

		var selected comm.Rank
		switch m.mode {
		case ModeStrictTimeOrder:
			selected = selectStrictTimeOrder(ready)
		case ModeRoundRobin:
			selected = selectRoundRobin(ready, lastSelected, hasLastSelected)
		default:
			return fmt.Errorf("%w: master has unknown selection mode %d", parcorana.ErrConfiguration, m.mode)
		}
		lastSelected, hasLastSelected = selected, true

		eventID := ready[selected]
		delete(ready, selected)

		assignedCounter, err := m.assigner.Assign(eventID.Sec, eventID.Nsec, eventID.Fid)
		if err != nil {
			return fmt.Errorf("%w: %v", parcorana.ErrData, err)
		}
		if !hasLatest || assignedCounter > latestCounter {
			latestEventID, latestCounter, hasLatest = eventID, assignedCounter, true
		}

		if err := m.workersComm.BroadcastSend(ctx, m.rank, wire.BroadcastMsg{
			Tag:        wire.TagEvt,
			SenderRank: int32(selected),
			EventID:    eventID,
			Counter:    assignedCounter,
		}); err != nil {
			return err
		}

		if err := m.world.Send(ctx, m.rank, selected, wire.MasterServerMsg{Tag: wire.TagSendToWorkers}); err != nil {
			return err
		}
		notReady[selected] = true

		numEvents++
		m.eventsPerSec.Add(1)
		if m.updateInterval > 0 && numEvents-lastUpdate > int64(m.updateInterval) {
			if err := m.sendUpdate(ctx, latestEventID, latestCounter); err != nil {
				return err
			}
			lastUpdate = numEvents
		}

		m.rate.Tick(m.now())
	}

	if err := m.sendUpdate(ctx, latestEventID, latestCounter); err != nil {
		return err
	}
	if err := m.workersComm.BroadcastSend(ctx, m.rank, wire.BroadcastMsg{Tag: wire.TagEnd}); err != nil {
		return err
	}
	if err := m.world.Send(ctx, m.rank, m.viewerRank, wire.UpdateMsg{Tag: wire.TagEnd}); err != nil {
		return err
	}

	m.rate.Final(numEvents, runStart, m.now())
	return nil
}

// sendUpdate implements spec §4.3 step 7's update fan-out: UPDATE to the
// viewer point-to-point, and UPDATE broadcast on master+workers.
func (m *Master) sendUpdate(ctx context.Context, latestEventID wire.EventID, latestCounter int64) error {
	if err := m.world.Send(ctx, m.rank, m.viewerRank, wire.UpdateMsg{
		Tag:           wire.TagUpdate,
		LatestEventID: latestEventID,
		LatestCounter: latestCounter,
	}); err != nil {
		return err
	}
	return m.workersComm.BroadcastSend(ctx, m.rank, wire.BroadcastMsg{
		Tag:        wire.TagUpdate,
		EventID:    latestEventID,
		Counter:    latestCounter,
	})
}
