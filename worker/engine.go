package worker

import (
	"fmt"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/config"
	"github.com/lclsdet/parcorana/metrics"
)

// Variant selects one of the three G2 correlation strategies (spec §9):
// re-architected as a tagged variant dispatched through a small capability
// set rather than the original's virtual-method "user object", keeping the
// worker loop monomorphic.
type Variant int

const (
	VariantAtEnd Variant = iota
	VariantIncrementalAccumulator
	VariantIncrementalWindowed
)

func (v Variant) String() string {
	switch v {
	case VariantAtEnd:
		return "at-end"
	case VariantIncrementalAccumulator:
		return "incremental-accumulator"
	case VariantIncrementalWindowed:
		return "incremental-windowed"
	default:
		return "unknown-variant"
	}
}

// ParseVariant maps the configuration's userClass key (spec §6) to a
// Variant.
func ParseVariant(uc config.UserClass) (Variant, error) {
	switch uc {
	case config.UserClassAtEnd:
		return VariantAtEnd, nil
	case config.UserClassIncrementalAccumulator:
		return VariantIncrementalAccumulator, nil
	case config.UserClassIncrementalWindowed:
		return VariantIncrementalWindowed, nil
	default:
		return 0, fmt.Errorf("%w: unknown userClass %q", parcorana.ErrConfiguration, uc)
	}
}

// Matrices is the per-worker result of workerCalc (spec §4.4): three named
// (K x width) accumulator matrices, the K-length pair-count vector, and the
// width-length saturation vector. Copies are returned so the caller may
// hand them off to a gather without racing the engine's next insert.
type Matrices struct {
	G2         [][]float32
	IF         [][]float32
	IP         [][]float32
	Counts     []int64
	Saturation []int8
}

// Engine is the per-worker correlation state machine (spec §4.4): a ring
// buffer of recent slices plus the accumulators, maintained according to
// the configured Variant.
type Engine struct {
	width   int
	delays  []int64 // ascending
	variant Variant

	ring *RingBuffer

	g2, ifAcc, ipAcc [][]float32 // [K][width]
	counts           []int64     // [K]
	saturation       []int8      // [width]

	saturatedValue float32
	notzero        float32

	ringOccupancy   metrics.UpDownCounter
	saturatedPixels metrics.Counter
	prevOccupancy   int
}

// NewEngine allocates an Engine for one worker's m_w = width elements,
// capacity T, ascending delays, and variant (spec §9 "allocate once at
// startup").
func NewEngine(width int, delays []int64, capacity int, variant Variant, saturatedValue, notzero float32) *Engine {
	k := len(delays)
	e := &Engine{
		width:          width,
		delays:         append([]int64(nil), delays...),
		variant:        variant,
		ring:           NewRingBuffer(capacity, width),
		g2:             make([][]float32, k),
		ifAcc:          make([][]float32, k),
		ipAcc:          make([][]float32, k),
		counts:         make([]int64, k),
		saturation:     make([]int8, width),
		saturatedValue: saturatedValue,
		notzero:        notzero,
		ringOccupancy:  metrics.NewNoopProvider().UpDownCounter(""),
		saturatedPixels: metrics.NewNoopProvider().Counter(""),
	}
	for i := 0; i < k; i++ {
		e.g2[i] = make([]float32, width)
		e.ifAcc[i] = make([]float32, width)
		e.ipAcc[i] = make([]float32, width)
	}
	return e
}

// UseMetrics wires ring-occupancy and saturated-pixel-count instruments
// onto p, replacing the no-op defaults (spec §11 "Metrics"). Call once
// before the worker loop starts; not safe to call concurrently with Insert.
func (e *Engine) UseMetrics(p metrics.Provider) {
	e.ringOccupancy = p.UpDownCounter("worker_ring_occupancy", metrics.WithDescription("number of counters currently held in the ring buffer"), metrics.WithUnit("1"))
	e.saturatedPixels = p.Counter("worker_saturated_pixels_total", metrics.WithDescription("count of pixel positions newly flagged saturated"), metrics.WithUnit("1"))
}

// Ring exposes the underlying ring buffer (used by tests and the O(T^2)
// reference calculator).
func (e *Engine) Ring() *RingBuffer { return e.ring }

// Delays returns the configured ascending delay list.
func (e *Engine) Delays() []int64 { return e.delays }

// adjustData implements workerAdjustData (spec §4.4 step 3): mark
// saturated element positions with a sticky OR, and clamp values below
// notzero up to notzero. Idempotent under re-application (spec §8): once a
// value is clamped it stays >= notzero, and once a saturation flag is set
// it stays set.
func adjustData(raw []float32, saturatedValue, notzero float32, saturation []int8) []float32 {
	out := make([]float32, len(raw))
	for i, v := range raw {
		if v >= saturatedValue {
			saturation[i] = 1
		}
		if v < notzero {
			v = notzero
		}
		out[i] = v
	}
	return out
}

// Insert handles one NEW_EVENT's received slice (spec §4.4 steps 3-4):
// adjust the data, notify the variant of an impending eviction if the ring
// is full, overwrite the slot, then notify the variant of the insert.
func (e *Engine) Insert(counter int64, raw []float32) error {
	before := countSaturated(e.saturation)
	adjusted := adjustData(raw, e.saturatedValue, e.notzero, e.saturation)
	if newly := countSaturated(e.saturation) - before; newly > 0 {
		e.saturatedPixels.Add(int64(newly))
	}

	if e.variant == VariantIncrementalWindowed {
		if evictedCounter, evictedRow, willEvict := e.ring.NextEvict(); willEvict {
			if err := e.onRemove(evictedCounter, evictedRow); err != nil {
				return err
			}
		}
	}

	e.ring.Insert(counter, adjusted)
	if occ := e.ring.Count(); occ != e.prevOccupancy {
		e.ringOccupancy.Add(int64(occ - e.prevOccupancy))
		e.prevOccupancy = occ
	}

	if e.variant != VariantAtEnd {
		e.onInsert(counter)
	}

	return nil
}

// onInsert implements the incremental insert rule shared by the
// accumulator and windowed variants (spec §4.4): for each configured
// delay still reachable from the current maxStoredTime, accumulate the
// pair with tm as the later element (tmE = tm-d present) and/or as the
// earlier element (tmL = tm+d present). Each true pair is counted exactly
// once, whichever branch fires at the insertion of the second of its two
// members to arrive — arrival order need not match counter order (spec
// §4.7, round-robin mode).
func (e *Engine) onInsert(tm int64) {
	maxTime, _ := e.ring.MaxStoredTime()
	tmRow, ok := e.ring.Get(tm)
	if !ok {
		return
	}
	for k, d := range e.delays {
		if d > maxTime {
			break
		}
		if earlier, ok := e.ring.Get(tm - d); ok {
			e.accumulatePair(k, earlier, tmRow)
		}
		if later, ok := e.ring.Get(tm + d); ok {
			e.accumulatePair(k, tmRow, later)
		}
	}
}

func (e *Engine) accumulatePair(k int, earlier, later []float32) {
	g2, ip, ifv := e.g2[k], e.ipAcc[k], e.ifAcc[k]
	for i := range earlier {
		g2[i] += earlier[i] * later[i]
		ip[i] += earlier[i]
		ifv[i] += later[i]
	}
	e.counts[k]++
}

// onRemove implements workerBeforeDataRemove for the windowed variant
// (spec §4.4): undo every pair involving the evicted counter tm.
func (e *Engine) onRemove(tm int64, tmRow []float32) error {
	maxTime, _ := e.ring.MaxStoredTime()
	for k, d := range e.delays {
		if d > maxTime {
			break
		}
		if earlier, ok := e.ring.Get(tm - d); ok {
			if err := e.subtractPair(k, tm, earlier, tmRow); err != nil {
				return err
			}
		}
		if later, ok := e.ring.Get(tm + d); ok {
			if err := e.subtractPair(k, tm, tmRow, later); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) subtractPair(k int, tm int64, earlier, later []float32) error {
	if e.counts[k] == 0 {
		return fmt.Errorf("%w: windowed decrement with counts[%d]==0 at tm=%d (delay=%d)", parcorana.ErrInvariant, k, tm, e.delays[k])
	}
	g2, ip, ifv := e.g2[k], e.ipAcc[k], e.ifAcc[k]
	for i := range earlier {
		g2[i] -= earlier[i] * later[i]
		ip[i] -= earlier[i]
		ifv[i] -= later[i]
	}
	e.counts[k]--
	return nil
}

// Compute implements workerCalc (spec §4.4 step 5). For the at-end
// variant it recomputes everything from the current ring contents; for
// the incremental variants the accumulators are already current and are
// simply copied out.
func (e *Engine) Compute() Matrices {
	if e.variant == VariantAtEnd {
		e.recomputeAtEnd()
	}
	return Matrices{
		G2:         copyMatrix(e.g2),
		IF:         copyMatrix(e.ifAcc),
		IP:         copyMatrix(e.ipAcc),
		Counts:     append([]int64(nil), e.counts...),
		Saturation: append([]int8(nil), e.saturation...),
	}
}

// recomputeAtEnd implements the "G2 at end" variant's workerCalc (spec
// §4.4): zero everything, then for each stored counter a (ascending) and
// each ascending delay d_k, pair a with b = a+d_k when present.
func (e *Engine) recomputeAtEnd() {
	for k := range e.counts {
		e.counts[k] = 0
		zero(e.g2[k])
		zero(e.ifAcc[k])
		zero(e.ipAcc[k])
	}

	maxTime, hasMax := e.ring.MaxStoredTime()
	if !hasMax {
		return
	}

	for _, a := range e.ring.SortedCounters() {
		aRow, _ := e.ring.Get(a)
		for k, d := range e.delays {
			if d > maxTime-a {
				break
			}
			b := a + d
			bRow, ok := e.ring.Get(b)
			if !ok {
				continue
			}
			e.accumulatePair(k, aRow, bRow)
		}
	}
}

func countSaturated(saturation []int8) int {
	n := 0
	for _, s := range saturation {
		if s != 0 {
			n++
		}
	}
	return n
}

func copyMatrix(m [][]float32) [][]float32 {
	out := make([][]float32, len(m))
	for i, row := range m {
		out[i] = append([]float32(nil), row...)
	}
	return out
}

func zero(v []float32) {
	for i := range v {
		v[i] = 0
	}
}
