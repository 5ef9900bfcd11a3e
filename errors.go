package parcorana

import "errors"

const Namespace = "parcorana"

var (
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrTaskCancelled = errors.New(Namespace + ": role loop cancelled")
	ErrTaskPanicked  = errors.New(Namespace + ": role loop panicked")

	// ErrConfiguration covers missing required keys, wrong types, bad file
	// paths, a mask that isn't {0,1}, or a mask that is all zeros.
	ErrConfiguration = errors.New(Namespace + ": configuration error")

	// ErrTopology covers N < 4, N-S < 3, and duplicate server ranks. A
	// requested host being absent is a warning, not this error, as long as
	// S servers can still be placed.
	ErrTopology = errors.New(Namespace + ": topology error")

	// ErrProtocol covers an unknown tag in a received message, a server END
	// whose tag doesn't match, or a worker/viewer receiving a tag other
	// than the ones it understands.
	ErrProtocol = errors.New(Namespace + ": protocol error")

	// ErrData covers negative mask values, out-of-range color values, and
	// color/finecolor mismatches.
	ErrData = errors.New(Namespace + ": data error")

	// ErrInvariant signals a bug: e.g. a windowed decrement underflowing
	// counts[k] below zero.
	ErrInvariant = errors.New(Namespace + ": invariant violation")
)
