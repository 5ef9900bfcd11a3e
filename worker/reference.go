package worker

// Event is one stored (counter, slice) pair, used by ReferenceG2 and by
// tests constructing a known event log directly (spec §9 supplemented
// feature, scenario d).
type Event struct {
	Counter int64
	Row     []float32
}

// ReferenceG2 computes G2/IF/IP/counts via an unoptimized O(T^2) double
// loop over events, for each configured delay, independent of Engine's
// incremental or windowed bookkeeping. It mirrors the original's
// runTestAlt / single-process reference mode (spec §9, §12 "test_alt"
// supplemented feature), used only to validate the three variants'
// correctness (spec §8 invariant 4, scenario d) — never on the hot path.
func ReferenceG2(events []Event, delays []int64) Matrices {
	k := len(delays)
	width := 0
	if len(events) > 0 {
		width = len(events[0].Row)
	}

	g2 := make([][]float32, k)
	ifAcc := make([][]float32, k)
	ipAcc := make([][]float32, k)
	counts := make([]int64, k)
	for i := range g2 {
		g2[i] = make([]float32, width)
		ifAcc[i] = make([]float32, width)
		ipAcc[i] = make([]float32, width)
	}

	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			delta := events[j].Counter - events[i].Counter
			for kIdx, d := range delays {
				if delta != d {
					continue
				}
				a, b := events[i].Row, events[j].Row
				for x := range a {
					g2[kIdx][x] += a[x] * b[x]
					ipAcc[kIdx][x] += a[x]
					ifAcc[kIdx][x] += b[x]
				}
				counts[kIdx]++
			}
		}
	}

	return Matrices{G2: g2, IF: ifAcc, IP: ipAcc, Counts: counts}
}
