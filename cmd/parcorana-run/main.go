// Command parcorana-run assembles the four rank roles into a single
// process and runs one G2 correlation pass end to end (spec §4.1-§4.6).
//
// The DataSource, mask/color loader, and Publisher collaborators are
// out-of-scope external systems (spec §1, §6) — psana, an HDF5-backed mask
// file, an HDF5 writer. In place of those this binary wires small
// synthetic stand-ins (below) so the run is self-contained and
// demonstrates the full message-passing pipeline; a real deployment
// supplies its own implementations of server.DataSource and
// viewer.Publisher and a real mask/color loader ahead of main.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/comm"
	"github.com/lclsdet/parcorana/config"
	"github.com/lclsdet/parcorana/counter"
	"github.com/lclsdet/parcorana/logging"
	"github.com/lclsdet/parcorana/master"
	"github.com/lclsdet/parcorana/metrics"
	"github.com/lclsdet/parcorana/server"
	"github.com/lclsdet/parcorana/topology"
	"github.com/lclsdet/parcorana/viewer"
	"github.com/lclsdet/parcorana/wire"
	"github.com/lclsdet/parcorana/worker"
)

func main() {
	configPath := flag.String("config", "", "path to the run's YAML configuration document")
	worldSize := flag.Int("world", 6, "total rank count (servers + master + viewer + workers)")
	maskSize := flag.Int("maskSize", 256, "M, the number of masked elements in the synthetic demo mask")
	numColors := flag.Int("colors", 4, "number of distinct colors in the synthetic demo color table")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "parcorana-run: -config is required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *worldSize, *maskSize, *numColors); err != nil {
		fmt.Fprintf(os.Stderr, "parcorana-run: %+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, worldSize, maskSize, numColors int) error {
	bootLog := logging.New("boot", 0, logging.LevelInformational, os.Stderr)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", parcorana.ErrConfiguration, err)
	}
	sys, err := config.Load(data, bootLog)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(sys.Verbosity)
	if err != nil {
		level = logging.LevelInformational
	}

	hosts := topology.HostMap{"localhost": allRanks(worldSize)}
	servers, err := topology.AssignServers(hosts, sys.ServerHosts, sys.NumServers, false, bootLog)
	if err != nil {
		return err
	}
	layout, err := topology.Build(worldSize, servers)
	if err != nil {
		return err
	}

	partition := topology.DivideAmongWorkers(maskSize, len(layout.Workers))
	scatterCounts, scatterOffsets := topology.ScatterCounts(partition)

	delays := make([]int64, len(sys.Delays))
	for i, d := range sys.Delays {
		delays[i] = int64(d)
	}
	variant, err := worker.ParseVariant(sys.User)
	if err != nil {
		return err
	}
	saturatedValue, notzero := userThresholds(sys.UserParams)

	provider := metrics.NewBasicProvider()

	ranks := make([]comm.Rank, worldSize)
	for i := range ranks {
		ranks[i] = comm.Rank(i)
	}
	world := comm.NewWorld(ranks, 2)

	masterRank := comm.Rank(layout.Master)
	viewerRank := comm.Rank(layout.Viewer)
	workerRanks := make([]comm.Rank, len(layout.Workers))
	for i, w := range layout.Workers {
		workerRanks[i] = comm.Rank(w)
	}

	masterWorkers := comm.NewCommunicator(world, append([]comm.Rank{masterRank}, workerRanks...))
	viewerWorkers := comm.NewCommunicator(world, append([]comm.Rank{viewerRank}, workerRanks...))

	mode := master.ModeStrictTimeOrder
	if sys.ServersRoundRobin {
		mode = master.ModeRoundRobin
	}

	sup := parcorana.NewSupervisor(worldSize)

	for i, s := range layout.Servers {
		srv := comm.Rank(s)
		members := make([]comm.Rank, len(layout.ServerWorkerComm[s]))
		for j, m := range layout.ServerWorkerComm[s] {
			members[j] = comm.Rank(m)
		}
		serverComm := comm.NewCommunicator(world, members)
		log := logging.New("server", int(srv), level, os.Stderr)
		perServer := (eventBudget(sys) + len(layout.Servers) - 1) / len(layout.Servers)
		source := newSyntheticDataSource(i, len(layout.Servers), maskSize, perServer, saturatedValue)
		role := server.New(srv, masterRank, world, serverComm, scatterCounts, scatterOffsets, source, log)
		sup.Register(parcorana.RoleServer, int(srv), role.Run)
	}

	color, finecolor := syntheticColors(maskSize, numColors)
	colors := viewer.NewColorTable(color, finecolor)
	pub := &logPublisher{log: logging.New("publisher", int(viewerRank), level, os.Stderr)}
	viewerRole := viewer.New(viewerRank, world, viewerWorkers, workerRanks, partition, len(delays), colors, pub,
		logging.New("viewer", int(viewerRank), level, os.Stderr))
	viewerRole.UseMetrics(provider)
	sup.Register(parcorana.RoleViewer, int(viewerRank), viewerRole.Run)

	serverComms := make(map[comm.Rank]*comm.Communicator, len(layout.Servers))
	for _, s := range layout.Servers {
		members := make([]comm.Rank, len(layout.ServerWorkerComm[s]))
		for j, m := range layout.ServerWorkerComm[s] {
			members[j] = comm.Rank(m)
		}
		serverComms[comm.Rank(s)] = comm.NewCommunicator(world, members)
	}

	for i, w := range layout.Workers {
		wr := comm.Rank(w)
		engine := worker.NewEngine(partition.Counts[i], delays, sys.Times, variant, saturatedValue, notzero)
		engine.UseMetrics(provider)
		log := logging.New("worker", int(wr), level, os.Stderr).FirstOnly(i == 0)
		role := worker.New(wr, masterWorkers, serverComms, viewerWorkers, viewerRank, engine, log)
		sup.Register(parcorana.RoleWorker, int(wr), role.Run)
	}

	masterLog := logging.New("master", int(masterRank), level, os.Stderr)
	masterRole := master.New(masterRank, world, toCommRanks(layout.Servers), viewerRank, masterWorkers, mode, sys.Update, 5*time.Second, masterLog)
	masterRole.UseMetrics(provider)
	sup.Register(parcorana.RoleMaster, int(masterRank), masterRole.Run)

	return sup.Run(ctx)
}

func allRanks(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func toCommRanks(rs []int) []comm.Rank {
	out := make([]comm.Rank, len(rs))
	for i, r := range rs {
		out[i] = comm.Rank(r)
	}
	return out
}

func eventBudget(sys *config.System) int {
	if sys.NumEvents > 0 {
		return sys.NumEvents
	}
	if sys.TestNumEvents > 0 {
		return sys.TestNumEvents
	}
	return 20
}

// userThresholds reads the userClass-specific saturatedValue/notzero knobs
// out of userParams (spec §9's "user object" parameters), defaulting to
// values that won't spuriously trip on synthetic demo data.
func userThresholds(params map[string]any) (saturatedValue, notzero float32) {
	saturatedValue, notzero = float32(math.MaxFloat32), 1e-6
	if v, ok := params["saturatedValue"].(float64); ok {
		saturatedValue = float32(v)
	}
	if v, ok := params["notzero"].(float64); ok {
		notzero = float32(v)
	}
	return saturatedValue, notzero
}

// syntheticColors builds a demo color/finecolor table: numColors evenly
// striped across the M masked elements, each finecolor offset by its color
// so Normalize's per-finecolor grouping has something to distinguish.
func syntheticColors(m, numColors int) (color, finecolor []int) {
	if numColors < 1 {
		numColors = 1
	}
	color = make([]int, m)
	finecolor = make([]int, m)
	for i := 0; i < m; i++ {
		c := (i % numColors) + 1
		color[i] = c
		finecolor[i] = c*1000 + i
	}
	return color, finecolor
}

// syntheticDataSource stands in for psana (spec §1, §6): it produces
// serverCount-interleaved events (this server handles every serverCount'th
// event, by server index) with strictly increasing fiducials spaced by
// counter.FidStep, so the master's counter.Assigner always accepts them.
type syntheticDataSource struct {
	serverIndex, serverCount int
	width                    int
	remaining                int
	nextSlot                 int64
	saturatedValue           float32
	rng                      *rand.Rand
}

func newSyntheticDataSource(serverIndex, serverCount, width, totalEvents int, saturatedValue float32) *syntheticDataSource {
	return &syntheticDataSource{
		serverIndex:    serverIndex,
		serverCount:    serverCount,
		width:          width,
		remaining:      totalEvents,
		nextSlot:       int64(serverIndex),
		saturatedValue: saturatedValue,
		rng:            rand.New(rand.NewSource(int64(serverIndex) + 1)),
	}
}

func (s *syntheticDataSource) Next(ctx context.Context) (wire.EventID, []float32, bool, error) {
	if s.remaining <= 0 {
		return wire.EventID{}, nil, false, nil
	}
	select {
	case <-ctx.Done():
		return wire.EventID{}, nil, false, ctx.Err()
	default:
	}

	fid := int32(s.nextSlot * counter.FidStep)
	s.nextSlot += int64(s.serverCount)
	s.remaining--

	slice := make([]float32, s.width)
	for i := range slice {
		v := float32(s.rng.NormFloat64()*10 + 100)
		if s.rng.Intn(500) == 0 {
			v = s.saturatedValue + 1
		}
		slice[i] = v
	}

	return wire.EventID{Sec: 0, Nsec: 0, Fid: fid}, slice, true, nil
}

func (s *syntheticDataSource) Abort() { s.remaining = 0 }

// logPublisher stands in for the HDF5 writer (h5output, spec §6): it logs
// a one-line summary of each update instead of persisting anything.
type logPublisher struct {
	log *logging.Logger
}

func (p *logPublisher) Publish(latestCounter int64, curves map[int][]float32, matrices wire.Gathered) error {
	p.log.Infof("publish: counter=%d colors=%d saturated=%d", latestCounter, len(curves), countSaturated(matrices.Saturation))
	return nil
}

func countSaturated(s []int8) int {
	n := 0
	for _, v := range s {
		if v != 0 {
			n++
		}
	}
	return n
}
