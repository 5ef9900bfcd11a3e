// Package counter assigns the monotonically increasing integer counter the
// master attaches to each selected event, from its (sec, fid) pair (spec
// §3, §4.7). Workers never recompute it; they consume the value the master
// broadcasts.
package counter

import "fmt"

const (
	// NominalFramesPerSecond is the 120 Hz acquisition rate.
	NominalFramesPerSecond = 120

	// FidStep is the fiducial increment between two consecutive real
	// frames at the nominal rate.
	FidStep = 3

	// SecondSpanTicks is the number of raw fiducial ticks spanned by one
	// second of acquisition: 120 real frames at step 3 (spec §4.7, §9
	// open question 1; recorded decision in SPEC_FULL.md §13.1).
	SecondSpanTicks = NominalFramesPerSecond * FidStep

	// FidWidth is the width of the 17-bit fiducial register; raw fiducial
	// values wrap modulo this width (spec §3's "17-bit fiducial").
	FidWidth = 1 << 17
)

// Assigner converts (sec, fid) pairs to the integer counter, taking the
// first event it sees as the origin (counter 0). It is stateful and must be
// used by a single sequential caller (the master), matching spec §3's "the
// master holds the counter origin".
//
// The counter is elapsed seconds times NominalFramesPerSecond plus the
// unwrapped fiducial delta divided by FidStep (each elapsed second counts as
// SecondSpanTicks = 360 ticks). No per-second skip schedule is kept: a
// fiducial that never appears in the raw stream leaves a gap in the
// counter sequence.
type Assigner struct {
	originSet bool
	sec0      int64
	fid0      int64 // unwrapped

	lastRawFid int32
	wraps      int64
}

// Assign returns the counter for (sec, nsec, fid); nsec does not affect the
// counter (spec §3's formula is sec/fid only) but is accepted for symmetry
// with EventID. The first call always returns 0 and fixes the origin.
func (a *Assigner) Assign(sec, nsec, fid int32) (int64, error) {
	_ = nsec

	if !a.originSet {
		a.originSet = true
		a.sec0 = int64(sec)
		a.fid0 = int64(fid)
		a.lastRawFid = fid
		return 0, nil
	}

	unwrapped := int64(fid) + a.wraps*FidWidth
	if int64(fid) < int64(a.lastRawFid)-FidWidth/2 {
		a.wraps++
		unwrapped += FidWidth
	}
	a.lastRawFid = fid

	ticks := (int64(sec)-a.sec0)*SecondSpanTicks + (unwrapped - a.fid0)
	if ticks%FidStep != 0 {
		return 0, fmt.Errorf("counter: fiducial delta %d is not a multiple of step %d (sec=%d fid=%d)", ticks, FidStep, sec, fid)
	}
	return ticks / FidStep, nil
}

// This package does not import wire; callers pass the three fields of a
// wire.EventID directly to Assign.
