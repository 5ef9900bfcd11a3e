package master

import (
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/lclsdet/parcorana/logging"
)

// rateLogCategory is the single catrate category the sequencer logs under;
// a real deployment could add more (one per server, say) without touching
// the Limiter's construction.
const rateLogCategory = "master.events"

// rateLogger replaces RunMaster.run's raw eventsSinceLastDataRateMsg > 1200
// counter (one events/sec message roughly every 10s at 120Hz) with a
// catrate.Limiter sliding-window gate, while still reporting the same
// figure: events observed since the last allowed log, divided by elapsed
// wall time (spec §12 "Data-rate logging").
type rateLogger struct {
	limiter *catrate.Limiter
	log     *logging.Logger

	windowEvents int64
	windowStart  time.Time
}

// newRateLogger builds a rateLogger gated to at most one message per
// window, mirroring the original's ~1200-event (10s @ 120Hz) cadence.
func newRateLogger(window time.Duration, log *logging.Logger) *rateLogger {
	return &rateLogger{
		limiter: catrate.NewLimiter(map[time.Duration]int{window: 1}),
		log:     log,
	}
}

// Tick records one more event and, if the limiter allows it, logs the
// observed rate over the window since the last allowed log.
func (r *rateLogger) Tick(now time.Time) {
	r.windowEvents++
	if r.windowStart.IsZero() {
		r.windowStart = now
	}

	allowedAt, ok := r.limiter.Allow(rateLogCategory)
	if !ok {
		return
	}
	if r.log == nil {
		return
	}

	elapsed := allowedAt.Sub(r.windowStart)
	if elapsed <= 0 {
		return
	}
	hz := float64(r.windowEvents) / elapsed.Seconds()
	r.log.Infof("master: events/sec=%.1f events=%d window=%s", hz, r.windowEvents, elapsed)

	r.windowEvents = 0
	r.windowStart = allowedAt
}

// Final logs the overall rate across the whole run at shutdown (spec §12:
// "a final overall rate at shutdown").
func (r *rateLogger) Final(totalEvents int64, runStart, now time.Time) {
	if r.log == nil {
		return
	}
	elapsed := now.Sub(runStart)
	if elapsed <= 0 {
		return
	}
	hz := float64(totalEvents) / elapsed.Seconds()
	r.log.Infof("master: final events/sec=%.1f events=%d elapsed=%s", hz, totalEvents, elapsed)
}
