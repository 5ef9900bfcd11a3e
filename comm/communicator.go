package comm

import "context"

// Communicator is a named, ordered subset of world ranks sharing the
// collectives below — the Go analogue of spec §4.1's derived communicators
// (master+workers, viewer+workers, and one per server: that server plus
// all workers).
type Communicator struct {
	world   *World
	members []Rank
}

// NewCommunicator builds a Communicator over members, in the given order.
// Collective operations below take an explicit root rather than assuming
// members[0], since the same World backs communicators with different
// roots (e.g. each per-server communicator's root is that server).
func NewCommunicator(world *World, members []Rank) *Communicator {
	return &Communicator{world: world, members: append([]Rank(nil), members...)}
}

// Members returns a copy of the communicator's member ranks.
func (c *Communicator) Members() []Rank {
	return append([]Rank(nil), c.members...)
}

// Contains reports whether rank is a member of c.
func (c *Communicator) Contains(rank Rank) bool {
	for _, m := range c.members {
		if m == rank {
			return true
		}
	}
	return false
}

// BroadcastSend is called by root: it delivers msg to every other member,
// in member order, which is the channel-based equivalent of spec §5's
// "broadcast is total-order among workers" — every member observes
// broadcasts from a given root in the same relative order root sent them.
func (c *Communicator) BroadcastSend(ctx context.Context, root Rank, msg any) error {
	for _, m := range c.members {
		if m == root {
			continue
		}
		if err := c.world.Send(ctx, root, m, msg); err != nil {
			return err
		}
	}
	return nil
}

// BroadcastRecv is called by every non-root member: it blocks for the next
// broadcast value addressed to self.
func (c *Communicator) BroadcastRecv(ctx context.Context, self Rank) (any, error) {
	e, err := c.world.Recv(ctx, self)
	if err != nil {
		return nil, err
	}
	return e.Msg, nil
}

// Scatter is called by root: it cuts data according to counts/offsets
// (spec §4.1's balanced mask partition) and sends each non-root member its
// piece, in member order. Root's own entry in counts/offsets is expected
// to be zero-length (spec §4.2: "server contributes the buffer, workers
// each receive their m_w floats").
func (c *Communicator) Scatter(ctx context.Context, root Rank, data []float32, counts, offsets []int) error {
	for i, m := range c.members {
		if m == root {
			continue
		}
		piece := append([]float32(nil), data[offsets[i]:offsets[i]+counts[i]]...)
		if err := c.world.Send(ctx, root, m, piece); err != nil {
			return err
		}
	}
	return nil
}

// ScatterRecv is called by every non-root member to receive its slice.
func (c *Communicator) ScatterRecv(ctx context.Context, self Rank) ([]float32, error) {
	e, err := c.world.Recv(ctx, self)
	if err != nil {
		return nil, err
	}
	piece, _ := e.Msg.([]float32)
	return piece, nil
}

// GatherSend is called by every non-root member: it contributes its
// partial result to root (spec §4.6).
func (c *Communicator) GatherSend(ctx context.Context, self, root Rank, contribution any) error {
	return c.world.Send(ctx, self, root, contribution)
}

// GatherRecv is called by root: it blocks for exactly one contribution
// from each non-root member and returns them keyed by sender rank (spec
// §4.6: the viewer assembles the K x M result from the per-worker
// contributions identified by which worker sent them).
func (c *Communicator) GatherRecv(ctx context.Context, root Rank) (map[Rank]any, error) {
	need := len(c.members) - 1
	got := make(map[Rank]any, need)
	for i := 0; i < need; i++ {
		e, err := c.world.Recv(ctx, root)
		if err != nil {
			return got, err
		}
		got[e.From] = e.Msg
	}
	return got, nil
}
