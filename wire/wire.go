// Package wire defines the small, fixed-layout messages exchanged between
// roles (spec §6) and the bulk scatter/gather payload shapes, independent of
// any particular transport. comm.World carries these as plain Go values
// over channels, the same way the messages here would cross a
// serialization boundary in a real deployment.
package wire

// Tag identifies the kind of a small control message.
type Tag int

const (
	// TagEvtReady is sent Server->Master: a new event is queued and ready
	// to be scattered (spec §4.2 ready_to_master).
	TagEvtReady Tag = iota
	// TagEnd is sent Server->Master when the generator is exhausted, and
	// Master->Workers/Viewer to signal orderly shutdown.
	TagEnd
	// TagSendToWorkers is sent Master->Server: scatter the head of the
	// queue now (spec §4.2 await_decision).
	TagSendToWorkers
	// TagAbort is sent Master->Server, or assumed implicitly by every rank
	// on a world abort (spec §7).
	TagAbort
	// TagEvt is broadcast Master->Workers: a new event has been
	// selected and counted (spec §4.3 step 5).
	TagEvt
	// TagUpdate is broadcast Master->Workers, and sent Master->Viewer: run
	// the gather/publish cycle (spec §4.3 step 7, §4.5).
	TagUpdate
)

func (t Tag) String() string {
	switch t {
	case TagEvtReady:
		return "EVT_READY"
	case TagEnd:
		return "END"
	case TagSendToWorkers:
		return "SEND_TO_WORKERS"
	case TagAbort:
		return "ABORT"
	case TagEvt:
		return "EVT"
	case TagUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN_TAG"
	}
}

// EventID is the (sec, nsec, fid) triple that uniquely identifies an
// acquisition cycle (spec §3).
type EventID struct {
	Sec  int32
	Nsec int32
	Fid  int32
}

// ServerMasterMsg is the Server<->Master small message (spec §6 "SM").
type ServerMasterMsg struct {
	Tag        Tag
	SenderRank int32
	EventID    EventID
}

// MasterServerMsg is the Master->Server decision message (spec §6 "SM").
type MasterServerMsg struct {
	Tag Tag
}

// BroadcastMsg is the Master->Workers/Viewer message (spec §6 "MVW").
type BroadcastMsg struct {
	Tag        Tag
	SenderRank int32
	EventID    EventID
	Counter    int64
}

// UpdateMsg is the Master->Viewer metadata message preceding a gather
// (spec §4.5 step 1).
type UpdateMsg struct {
	Tag           Tag
	LatestEventID EventID
	LatestCounter int64
}

// GatherMatrix names one of the three worker-maintained accumulator
// matrices gathered at an update (spec §4.4, §4.6).
type GatherMatrix int

const (
	MatrixG2 GatherMatrix = iota
	MatrixIF
	MatrixIP
)

func (m GatherMatrix) String() string {
	switch m {
	case MatrixG2:
		return "G2"
	case MatrixIF:
		return "IF"
	case MatrixIP:
		return "IP"
	default:
		return "UNKNOWN_MATRIX"
	}
}

// WorkerPartial is one worker's contribution to a gather: K rows of m_w
// elements for each of the three matrices, the K-length counts vector, and
// the m_w-length saturation vector (spec §4.4, §4.6).
type WorkerPartial struct {
	Rank       int
	G2         [][]float32 // [K][m_w]
	IF         [][]float32
	IP         [][]float32
	Counts     []int64 // [K]
	Saturation []int8  // [m_w]
}

// Gathered is the viewer's assembled (K x M) result of a gather (spec §4.6).
type Gathered struct {
	G2         [][]float32 // [K][M]
	IF         [][]float32
	IP         [][]float32
	Counts     []int64 // [K], taken from worker 0 (all equal, spec §4.6)
	Saturation []int8  // [M]
}
