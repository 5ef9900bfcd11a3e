package worker

import "sort"

// quantiles returns a five-number summary (min, p25, median, p75, max) of
// v, mirroring UserG2.getStats — the debug-level diagnostic the original
// logs for raw detector values. Callers should guard this behind a level
// check (logger.Enabled(logging.LevelDebug)) before calling it, the same
// idiom as `if self.logger.isEnabledFor(logging.DEBUG)` throughout the
// original, since sorting a full detector frame is not free.
func quantiles(v []float32) (min, p25, median, p75, max float32) {
	if len(v) == 0 {
		return 0, 0, 0, 0, 0
	}
	sorted := append([]float32(nil), v...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	at := func(frac float64) float32 {
		idx := int(frac * float64(len(sorted)-1))
		return sorted[idx]
	}
	return sorted[0], at(0.25), at(0.5), at(0.75), sorted[len(sorted)-1]
}
