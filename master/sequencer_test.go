package master

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lclsdet/parcorana/comm"
	"github.com/lclsdet/parcorana/metrics"
	"github.com/lclsdet/parcorana/wire"
)

// fakeServer plays one server's side of spec §4.2's handshake: send READY,
// wait for a decision, then send END. It never scatters (master/sequencer
// tests only exercise the control-message protocol).
func fakeServer(ctx context.Context, world *comm.World, self, masterRank comm.Rank, eventID wire.EventID) <-chan error {
	done := make(chan error, 1)
	go func() {
		if err := world.Send(ctx, self, masterRank, wire.ServerMasterMsg{
			Tag:        wire.TagEvtReady,
			SenderRank: int32(self),
			EventID:    eventID,
		}); err != nil {
			done <- err
			return
		}
		e, err := world.Recv(ctx, self)
		if err != nil {
			done <- err
			return
		}
		if _, ok := e.Msg.(wire.MasterServerMsg); !ok {
			done <- nil
			return
		}
		done <- world.Send(ctx, self, masterRank, wire.ServerMasterMsg{
			Tag:        wire.TagEnd,
			SenderRank: int32(self),
		})
	}()
	return done
}

func TestMaster_StrictTimeOrder_SelectsEarliestEventFirst(t *testing.T) {
	const (
		masterRank comm.Rank = 0
		viewerRank comm.Rank = 1
		workerRank comm.Rank = 2
		serverA    comm.Rank = 3
		serverB    comm.Rank = 4
	)

	world := comm.NewWorld([]comm.Rank{masterRank, viewerRank, workerRank, serverA, serverB}, 4)
	workersComm := comm.NewCommunicator(world, []comm.Rank{masterRank, workerRank})

	m := New(masterRank, world, []comm.Rank{serverA, serverB}, viewerRank, workersComm, ModeStrictTimeOrder, 0, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventB := wire.EventID{Sec: 5, Nsec: 0, Fid: 50} // seen first by the Assigner, becomes its origin
	eventA := wire.EventID{Sec: 10, Nsec: 0, Fid: 53} // fid delta from origin (3) must be a multiple of FidStep

	doneA := fakeServer(ctx, world, serverA, masterRank, eventA)
	doneB := fakeServer(ctx, world, serverB, masterRank, eventB)

	var gotEvents []wire.BroadcastMsg
	workerDone := make(chan error, 1)
	go func() {
		for i := 0; i < 2; i++ {
			raw, err := workersComm.BroadcastRecv(ctx, workerRank)
			if err != nil {
				workerDone <- err
				return
			}
			msg, ok := raw.(wire.BroadcastMsg)
			if !ok || msg.Tag != wire.TagEvt {
				workerDone <- nil
				return
			}
			gotEvents = append(gotEvents, msg)
		}
		// final UPDATE, then final END.
		raw, err := workersComm.BroadcastRecv(ctx, workerRank)
		if err != nil {
			workerDone <- err
			return
		}
		if msg, ok := raw.(wire.BroadcastMsg); !ok || msg.Tag != wire.TagUpdate {
			workerDone <- nil
			return
		}
		raw, err = workersComm.BroadcastRecv(ctx, workerRank)
		if err != nil {
			workerDone <- err
			return
		}
		if msg, ok := raw.(wire.BroadcastMsg); !ok || msg.Tag != wire.TagEnd {
			workerDone <- nil
			return
		}
		workerDone <- nil
	}()

	viewerDone := make(chan error, 1)
	go func() {
		e, err := world.Recv(ctx, viewerRank)
		if err != nil {
			viewerDone <- err
			return
		}
		if msg, ok := e.Msg.(wire.UpdateMsg); !ok || msg.Tag != wire.TagUpdate {
			viewerDone <- nil
			return
		}
		e, err = world.Recv(ctx, viewerRank)
		if err != nil {
			viewerDone <- err
			return
		}
		if msg, ok := e.Msg.(wire.UpdateMsg); !ok || msg.Tag != wire.TagEnd {
			viewerDone <- nil
			return
		}
		viewerDone <- nil
	}()

	require.NoError(t, m.Run(ctx))
	require.NoError(t, <-doneA)
	require.NoError(t, <-doneB)
	require.NoError(t, <-workerDone)
	require.NoError(t, <-viewerDone)

	require.Len(t, gotEvents, 2)
	require.Equal(t, int32(serverB), gotEvents[0].SenderRank, "earlier (sec=5) event must be selected first")
	require.Equal(t, int32(serverA), gotEvents[1].SenderRank)
	require.Less(t, gotEvents[0].Counter, gotEvents[1].Counter)
}

func TestMaster_RoundRobin_AlternatesWhenBothReady(t *testing.T) {
	const (
		masterRank comm.Rank = 0
		viewerRank comm.Rank = 1
		workerRank comm.Rank = 2
		serverA    comm.Rank = 3
		serverB    comm.Rank = 4
	)

	world := comm.NewWorld([]comm.Rank{masterRank, viewerRank, workerRank, serverA, serverB}, 4)
	workersComm := comm.NewCommunicator(world, []comm.Rank{masterRank, workerRank})

	m := New(masterRank, world, []comm.Rank{serverA, serverB}, viewerRank, workersComm, ModeRoundRobin, 0, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doneA := fakeServer(ctx, world, serverA, masterRank, wire.EventID{Sec: 1, Fid: 10})
	doneB := fakeServer(ctx, world, serverB, masterRank, wire.EventID{Sec: 1, Fid: 13})

	var gotRanks []int32
	workerDone := make(chan error, 1)
	go func() {
		for i := 0; i < 2; i++ {
			raw, err := workersComm.BroadcastRecv(ctx, workerRank)
			if err != nil {
				workerDone <- err
				return
			}
			msg := raw.(wire.BroadcastMsg)
			gotRanks = append(gotRanks, msg.SenderRank)
		}
		workersComm.BroadcastRecv(ctx, workerRank) // final UPDATE
		workersComm.BroadcastRecv(ctx, workerRank) // final END
		workerDone <- nil
	}()

	viewerDone := make(chan error, 1)
	go func() {
		world.Recv(ctx, viewerRank) // final UPDATE
		world.Recv(ctx, viewerRank) // final END
		viewerDone <- nil
	}()

	require.NoError(t, m.Run(ctx))
	require.NoError(t, <-doneA)
	require.NoError(t, <-doneB)
	require.NoError(t, <-workerDone)
	require.NoError(t, <-viewerDone)

	require.Equal(t, []int32{int32(serverA), int32(serverB)}, gotRanks, "lowest rank selected first, then alternation")
}

// TestMaster_UseMetrics_CountsAdmittedEvents checks that the
// events-admitted counter increments exactly once per selected event,
// independent of the rateLogger's own window-based bookkeeping.
func TestMaster_UseMetrics_CountsAdmittedEvents(t *testing.T) {
	const (
		masterRank comm.Rank = 0
		viewerRank comm.Rank = 1
		workerRank comm.Rank = 2
		serverA    comm.Rank = 3
	)

	world := comm.NewWorld([]comm.Rank{masterRank, viewerRank, workerRank, serverA}, 4)
	workersComm := comm.NewCommunicator(world, []comm.Rank{masterRank, workerRank})

	provider := metrics.NewBasicProvider()
	m := New(masterRank, world, []comm.Rank{serverA}, viewerRank, workersComm, ModeStrictTimeOrder, 0, time.Hour, nil)
	m.UseMetrics(provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doneA := fakeServer(ctx, world, serverA, masterRank, wire.EventID{Sec: 1, Fid: 0})

	workerDone := make(chan error, 1)
	go func() {
		workersComm.BroadcastRecv(ctx, workerRank) // the one EVT
		workersComm.BroadcastRecv(ctx, workerRank) // final UPDATE
		workersComm.BroadcastRecv(ctx, workerRank) // final END
		workerDone <- nil
	}()
	viewerDone := make(chan error, 1)
	go func() {
		world.Recv(ctx, viewerRank) // final UPDATE
		world.Recv(ctx, viewerRank) // final END
		viewerDone <- nil
	}()

	require.NoError(t, m.Run(ctx))
	require.NoError(t, <-doneA)
	require.NoError(t, <-workerDone)
	require.NoError(t, <-viewerDone)

	counter := provider.Counter("master_events_admitted_total").(*metrics.BasicCounter)
	require.EqualValues(t, 1, counter.Snapshot())
}
