package comm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendRecv_FIFO(t *testing.T) {
	w := NewWorld([]Rank{0, 1}, 4)
	ctx := context.Background()

	require.NoError(t, w.Send(ctx, 0, 1, "a"))
	require.NoError(t, w.Send(ctx, 0, 1, "b"))

	e1, err := w.Recv(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "a", e1.Msg)
	require.Equal(t, Rank(0), e1.From)

	e2, err := w.Recv(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "b", e2.Msg)
}

func TestRecvN_FansInMultipleSenders(t *testing.T) {
	w := NewWorld([]Rank{0, 1, 2}, 4)
	ctx := context.Background()

	require.NoError(t, w.Send(ctx, 1, 0, "from-1"))
	require.NoError(t, w.Send(ctx, 2, 0, "from-2"))

	envs, err := w.RecvN(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, envs, 2)

	froms := map[Rank]bool{envs[0].From: true, envs[1].From: true}
	require.True(t, froms[1])
	require.True(t, froms[2])
}

// ScatterGatherRoundTrip exercises spec §8's round-trip law: scattering v
// and gathering the pieces reconstructs v exactly.
func TestScatterGather_RoundTrip(t *testing.T) {
	const root Rank = 0
	members := []Rank{root, 1, 2, 3}
	w := NewWorld(members, 1)
	comm := NewCommunicator(w, members)

	v := []float32{10, 20, 30, 40, 50, 60, 70}
	counts := []int{0, 3, 2, 2}
	offsets := []int{0, 0, 3, 5}

	ctx := context.Background()
	var wg sync.WaitGroup
	pieces := make(map[Rank][]float32)
	var mu sync.Mutex

	for _, m := range members[1:] {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()
			piece, err := comm.ScatterRecv(ctx, m)
			require.NoError(t, err)
			mu.Lock()
			pieces[m] = piece
			mu.Unlock()
		}()
	}

	require.NoError(t, comm.Scatter(ctx, root, v, counts, offsets))
	wg.Wait()

	require.Equal(t, []float32{10, 20, 30}, pieces[1])
	require.Equal(t, []float32{40, 50}, pieces[2])
	require.Equal(t, []float32{60, 70}, pieces[3])

	// gather back
	gatherDone := make(chan map[Rank]any, 1)
	go func() {
		got, err := comm.GatherRecv(ctx, root)
		require.NoError(t, err)
		gatherDone <- got
	}()

	for _, m := range members[1:] {
		require.NoError(t, comm.GatherSend(ctx, m, root, pieces[m]))
	}

	got := <-gatherDone
	reconstructed := make([]float32, 0, len(v))
	for i, m := range members {
		if m == root {
			continue
		}
		reconstructed = append(reconstructed, got[m].([]float32)...)
		_ = i
	}
	require.Equal(t, v, reconstructed)
}

func TestBroadcast_TotalOrder(t *testing.T) {
	const root Rank = 0
	members := []Rank{root, 1, 2}
	w := NewWorld(members, 2)
	comm := NewCommunicator(w, members)
	ctx := context.Background()

	require.NoError(t, comm.BroadcastSend(ctx, root, "NEW_EVENT"))
	require.NoError(t, comm.BroadcastSend(ctx, root, "UPDATE"))

	for _, m := range []Rank{1, 2} {
		first, err := comm.BroadcastRecv(ctx, m)
		require.NoError(t, err)
		require.Equal(t, "NEW_EVENT", first)

		second, err := comm.BroadcastRecv(ctx, m)
		require.NoError(t, err)
		require.Equal(t, "UPDATE", second)
	}
}
