package counter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scenario (a), spec §8: 60 frames at fid = 33132, 33135, 33138, ... except
// fid 33300 is absent (the naive index 56 slot, 33132+56*3).
func TestAssigner_ScenarioA_SkipReproducesAsCounterGap(t *testing.T) {
	const sec = int32(1000)
	const fid0 = int32(33132)

	var a Assigner
	var counters []int64
	for naive := 0; naive <= 60; naive++ {
		if naive == 56 {
			continue // 33300 never arrives
		}
		fid := fid0 + int32(naive)*FidStep
		c, err := a.Assign(sec, 0, fid)
		require.NoError(t, err)
		counters = append(counters, c)
	}

	require.Len(t, counters, 60)
	require.EqualValues(t, 0, counters[0])
	// counters run 0..55 then jump to 57..60, reproducing the skip.
	for i := 0; i < 56; i++ {
		require.EqualValues(t, i, counters[i])
	}
	for i := 56; i < 60; i++ {
		require.EqualValues(t, i+1, counters[i])
	}
}

func TestAssigner_SecondBoundary_UsesSecondSpanTicks(t *testing.T) {
	var a Assigner
	c0, err := a.Assign(10, 0, 100)
	require.NoError(t, err)
	require.EqualValues(t, 0, c0)

	// one full second later, fid returns to the same cyclic position: the
	// counter must advance by exactly NominalFramesPerSecond (120), i.e.
	// SecondSpanTicks/FidStep.
	c1, err := a.Assign(11, 0, 100)
	require.NoError(t, err)
	require.EqualValues(t, NominalFramesPerSecond, c1)
}

func TestAssigner_FiducialWrap(t *testing.T) {
	var a Assigner
	_, err := a.Assign(0, 0, FidWidth-3)
	require.NoError(t, err)

	c, err := a.Assign(0, 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, c)
}
