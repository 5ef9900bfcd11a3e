package comm

import "errors"

// ErrUnknownRank is returned by Send/Recv when addressing a rank the World
// was not constructed with — a Protocol-class error (spec §7).
var ErrUnknownRank = errors.New("comm: unknown rank")
