// Package server implements the per-rank server loop (spec §4.2): a
// bounded queue of generated events, a ready/decision handshake with the
// master, and the per-server scatter of masked frame slices to workers.
package server

import (
	"context"
	"fmt"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/comm"
	"github.com/lclsdet/parcorana/logging"
	"github.com/lclsdet/parcorana/wire"
)

// DataSource is the external collaborator producing frames (spec §1, §6):
// a lazy, finite sequence of masked-and-flattened slices. Next returns
// ok=false once the sequence is exhausted. Frame-level validity/threshold
// predicates that suppress a frame before it is queued (spec §7
// "Propagation") are the DataSource implementation's responsibility; the
// server only ever sees frames it should offer to the master.
type DataSource interface {
	Next(ctx context.Context) (eventID wire.EventID, slice []float32, ok bool, err error)
	// Abort releases underlying handles after a world abort (spec §4.2 step 4).
	Abort()
}

// QueueCapacity is the server's keep-ahead depth (spec §4.2: "capacity >= 1
// (keep-ahead of one frame is sufficient, more is permitted)"). One slot is
// the head awaiting a decision; the rest is prefetch.
const QueueCapacity = 2

type queuedEvent struct {
	eventID wire.EventID
	slice   []float32
}

// Server runs one server rank's loop.
type Server struct {
	rank       comm.Rank
	masterRank comm.Rank
	world      *comm.World
	workersOut *comm.Communicator // this server + all workers, server as root
	counts     []int
	offsets    []int

	source DataSource
	log    *logging.Logger

	queue []queuedEvent
}

// New builds a Server for rank, communicating with masterRank over world,
// scattering via workersOut (this server's per-server communicator, spec
// §4.1), with the precomputed scatter counts/offsets (spec §4.1's balanced
// mask partition, server's own slot count 0).
func New(rank, masterRank comm.Rank, world *comm.World, workersOut *comm.Communicator, counts, offsets []int, source DataSource, log *logging.Logger) *Server {
	return &Server{
		rank:       rank,
		masterRank: masterRank,
		world:      world,
		workersOut: workersOut,
		counts:     counts,
		offsets:    offsets,
		source:     source,
		log:        log,
	}
}

// Run executes the main sequence of spec §4.2 until the generator is
// exhausted (sends END) or an ABORT decision or context cancellation ends
// the loop early.
func (s *Server) Run(ctx context.Context) error {
	exhausted := false

	if err := s.fetch(ctx, &exhausted); err != nil {
		return err
	}

	for len(s.queue) > 0 {
		head := s.queue[0]

		if err := s.readyToMaster(ctx, head.eventID); err != nil {
			return err
		}

		if !exhausted && len(s.queue) < QueueCapacity {
			if err := s.fetch(ctx, &exhausted); err != nil {
				return err
			}
		}

		decision, err := s.awaitDecision(ctx)
		if err != nil {
			return err
		}

		switch decision {
		case wire.TagSendToWorkers:
			if err := s.scatter(ctx, head); err != nil {
				return err
			}
			s.queue = s.queue[1:]
		case wire.TagAbort:
			s.source.Abort()
			return nil
		default:
			err := fmt.Errorf("%w: server %d received decision tag %s from master", parcorana.ErrProtocol, s.rank, decision)
			s.source.Abort()
			return err
		}
	}

	return s.endToMaster(ctx)
}

func (s *Server) fetch(ctx context.Context, exhausted *bool) error {
	eventID, slice, ok, err := s.source.Next(ctx)
	if err != nil {
		return fmt.Errorf("server: data source: %w", err)
	}
	if !ok {
		*exhausted = true
		return nil
	}
	s.queue = append(s.queue, queuedEvent{eventID: eventID, slice: slice})
	return nil
}

func (s *Server) readyToMaster(ctx context.Context, eventID wire.EventID) error {
	return s.world.Send(ctx, s.rank, s.masterRank, wire.ServerMasterMsg{
		Tag:        wire.TagEvtReady,
		SenderRank: int32(s.rank),
		EventID:    eventID,
	})
}

func (s *Server) endToMaster(ctx context.Context) error {
	return s.world.Send(ctx, s.rank, s.masterRank, wire.ServerMasterMsg{
		Tag:        wire.TagEnd,
		SenderRank: int32(s.rank),
	})
}

func (s *Server) awaitDecision(ctx context.Context) (wire.Tag, error) {
	e, err := s.world.Recv(ctx, s.rank)
	if err != nil {
		return 0, err
	}
	msg, ok := e.Msg.(wire.MasterServerMsg)
	if !ok {
		return 0, fmt.Errorf("%w: server %d received a decision message of unexpected type", parcorana.ErrProtocol, s.rank)
	}
	if msg.Tag != wire.TagSendToWorkers && msg.Tag != wire.TagAbort {
		return 0, fmt.Errorf("%w: server %d received decision tag %s, neither SEND_TO_WORKERS nor ABORT", parcorana.ErrProtocol, s.rank, msg.Tag)
	}
	return msg.Tag, nil
}

func (s *Server) scatter(ctx context.Context, head queuedEvent) error {
	return s.workersOut.Scatter(ctx, s.rank, head.slice, s.counts, s.offsets)
}
