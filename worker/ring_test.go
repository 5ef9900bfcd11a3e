package worker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBuffer_GetAbsentAfterEviction(t *testing.T) {
	r := NewRingBuffer(2, 1)
	r.Insert(1, []float32{1})
	r.Insert(2, []float32{2})

	_, ok := r.Get(1)
	require.True(t, ok)

	r.Insert(3, []float32{3})

	_, ok = r.Get(1)
	require.False(t, ok, "counter 1 should have been evicted FIFO")

	row, ok := r.Get(3)
	require.True(t, ok)
	require.Equal(t, []float32{3}, row)
}

func TestRingBuffer_MaxStoredTime_EmptyRing(t *testing.T) {
	r := NewRingBuffer(4, 1)
	_, ok := r.MaxStoredTime()
	require.False(t, ok)
}

// TestRingBuffer_RecomputeMax_RoundRobinEviction: a round-robin arrival
// order (spec §4.7) can evict the slot holding the current max, which must
// trigger a rescan rather than leaving a stale maxTime behind.
func TestRingBuffer_RecomputeMax_RoundRobinEviction(t *testing.T) {
	r := NewRingBuffer(3, 1)
	r.Insert(5, []float32{5})
	r.Insert(3, []float32{3})
	r.Insert(1, []float32{1})

	maxTime, ok := r.MaxStoredTime()
	require.True(t, ok)
	require.EqualValues(t, 5, maxTime)

	// next insert overwrites the oldest slot, which holds counter 5 (the
	// current max) — forces recomputeMax over the remaining {3,1} before
	// 2 is stored.
	r.Insert(2, []float32{2})

	maxTime, ok = r.MaxStoredTime()
	require.True(t, ok)
	require.EqualValues(t, 3, maxTime)

	_, ok = r.Get(5)
	require.False(t, ok)
}

func TestRingBuffer_NextEvict_DoesNotMutate(t *testing.T) {
	r := NewRingBuffer(2, 1)
	r.Insert(1, []float32{1})

	counter, row, willEvict := r.NextEvict()
	require.False(t, willEvict, "ring is not yet full")
	require.Zero(t, counter)
	require.Nil(t, row)

	r.Insert(2, []float32{2})

	counter, row, willEvict = r.NextEvict()
	require.True(t, willEvict)
	require.EqualValues(t, 1, counter)
	require.Equal(t, []float32{1}, row)

	// peeking must not have evicted anything.
	_, ok := r.Get(1)
	require.True(t, ok)
}

func TestRingBuffer_SortedCounters_Ascending(t *testing.T) {
	r := NewRingBuffer(4, 1)
	for _, c := range []int64{5, 1, 3, 2} {
		r.Insert(c, []float32{float32(c)})
	}

	require.Equal(t, []int64{1, 2, 3, 5}, r.SortedCounters())
}
