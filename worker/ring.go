// Package worker implements the per-worker ring buffer and correlation
// engine (spec §3, §4.4): a fixed-capacity store of recent frame slices
// keyed by counter, and three algorithmic variants maintaining the G2, IF,
// IP accumulators.
package worker

// noCounter marks an empty ring slot; counters are always >= 0 (the first
// event assigned by the master is counter 0, spec §3).
const noCounter = -1

// RingBuffer holds the most recent T per-worker frame slices (spec §3
// "Worker ring buffer"): a (T x width) matrix of rows, each tagged by its
// counter, with O(1) amortized counter -> slot lookup and FIFO eviction of
// the oldest inserted row.
type RingBuffer struct {
	capacity int
	width    int

	rows        [][]float32
	slotCounter []int64
	counterToSlot map[int64]int

	next int

	maxTime int64
	hasMax  bool
}

// NewRingBuffer allocates a ring of capacity rows, each width elements,
// once at startup (spec §9 "allocate once at startup").
func NewRingBuffer(capacity, width int) *RingBuffer {
	rows := make([][]float32, capacity)
	slotCounter := make([]int64, capacity)
	for i := range rows {
		rows[i] = make([]float32, width)
		slotCounter[i] = noCounter
	}
	return &RingBuffer{
		capacity:      capacity,
		width:         width,
		rows:          rows,
		slotCounter:   slotCounter,
		counterToSlot: make(map[int64]int, capacity),
		maxTime:       0,
		hasMax:        false,
	}
}

// Width returns m_w, the number of elements per row.
func (r *RingBuffer) Width() int { return r.width }

// Count returns the number of counters currently present (ring occupancy).
func (r *RingBuffer) Count() int { return len(r.counterToSlot) }

// Capacity returns T.
func (r *RingBuffer) Capacity() int { return r.capacity }

// Get returns the stored row for counter, or ok=false if it is not
// currently present (evicted, or never inserted) — spec §3 invariant 3.
func (r *RingBuffer) Get(counter int64) (row []float32, ok bool) {
	slot, ok := r.counterToSlot[counter]
	if !ok {
		return nil, false
	}
	return r.rows[slot], true
}

// MaxStoredTime returns the maximum counter currently present, or
// ok=false if the ring is empty.
func (r *RingBuffer) MaxStoredTime() (counter int64, ok bool) {
	return r.maxTime, r.hasMax
}

// NextEvict reports the slot that the next Insert will overwrite, and the
// counter/row currently occupying it, without mutating anything. Callers
// needing workerBeforeDataRemove semantics (spec §4.4 step 4, the windowed
// variant) must call this before Insert, since Insert itself overwrites
// the slot in place.
func (r *RingBuffer) NextEvict() (counter int64, row []float32, willEvict bool) {
	c := r.slotCounter[r.next]
	if c == noCounter {
		return 0, nil, false
	}
	return c, r.rows[r.next], true
}

// Insert overwrites the oldest slot with row, tagged by counter, and
// advances the head cursor. A counter occurs at most once at any instant
// (spec §3 invariant 1): the caller is responsible for not inserting a
// counter that is already present.
func (r *RingBuffer) Insert(counter int64, row []float32) {
	slot := r.next
	if old := r.slotCounter[slot]; old != noCounter {
		delete(r.counterToSlot, old)
		if old == r.maxTime {
			r.recomputeMax()
		}
	}

	copy(r.rows[slot], row)
	r.slotCounter[slot] = counter
	r.counterToSlot[counter] = slot
	r.next = (r.next + 1) % r.capacity

	if !r.hasMax || counter > r.maxTime {
		r.maxTime = counter
		r.hasMax = true
	}
}

// recomputeMax rescans the currently-present counters. Only needed when
// the row just evicted held the previous maximum — round-robin selection
// mode does not guarantee counters arrive in increasing order (spec §4.7),
// so the oldest-inserted row is not always the lowest-counter row.
func (r *RingBuffer) recomputeMax() {
	r.hasMax = false
	for c := range r.counterToSlot {
		if !r.hasMax || c > r.maxTime {
			r.maxTime = c
			r.hasMax = true
		}
	}
}

// SortedCounters returns the counters currently present, ascending —
// the "stored order" the at-end variant iterates in (spec §4.4).
func (r *RingBuffer) SortedCounters() []int64 {
	out := make([]int64, 0, len(r.counterToSlot))
	for c := range r.counterToSlot {
		out = append(out, c)
	}
	// small T in practice; insertion sort is simpler than pulling in
	// sort.Slice for an int64 key and reads just as clearly.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
