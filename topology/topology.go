// Package topology assigns the four rank roles across the fixed world and
// computes the balanced mask partition shared by scatter and gather.
package topology

import (
	"fmt"
	"sort"

	"github.com/lclsdet/parcorana"
	"github.com/lclsdet/parcorana/logging"
)

// Layout is the result of role assignment for a world of N ranks.
type Layout struct {
	World int

	Servers []int // ascending world ranks
	Viewer  int
	Master  int
	Workers []int // ascending world ranks, length W = World - len(Servers) - 2

	// ServerWorkerComm maps each server's world rank to the ranks that
	// participate in its per-server scatter communicator: the server
	// itself plus every worker, in communicator-local order.
	ServerWorkerComm map[int][]int
}

// HostMap reports, for every host name, the ascending world ranks running
// on it. AssignServers itself drops rank 0 from every host's list when
// excludeRank0 is set, mirroring identifyServerRanks in CommSystem.py.
type HostMap map[string][]int

// AssignServers selects numServers ranks by round-robin over distinct
// hosts, preferring preferredHosts (if non-empty) over the full host set,
// grounded on CommSystem.py's identifyServerRanks + roundRobin.
//
// The host-absence case is a warning, not a fatal error, provided
// numServers ranks can still be placed from the remaining candidate hosts
// (spec §7, Topology errors).
func AssignServers(hosts HostMap, preferredHosts []string, numServers int, excludeRank0 bool, log *logging.Logger) ([]int, error) {
	candidates := hosts
	if len(preferredHosts) > 0 {
		candidates = make(HostMap, len(preferredHosts))
		for _, h := range preferredHosts {
			ranks, ok := hosts[h]
			if !ok || len(ranks) == 0 {
				if log != nil {
					log.Warnf("requested server host %q has no ranks available", h)
				}
				continue
			}
			candidates[h] = append([]int(nil), ranks...)
		}
	}

	hostKeys := make([]string, 0, len(candidates))
	for h := range candidates {
		hostKeys = append(hostKeys, h)
	}
	sort.Strings(hostKeys)

	hostRanks := make(map[string][]int, len(hostKeys))
	for _, h := range hostKeys {
		ranks := append([]int(nil), candidates[h]...)
		sort.Ints(ranks)
		if excludeRank0 {
			filtered := ranks[:0]
			for _, r := range ranks {
				if r != 0 {
					filtered = append(filtered, r)
				}
			}
			ranks = filtered
		}
		hostRanks[h] = ranks
	}

	var servers []int
	cursor := make(map[string]int, len(hostKeys))
	stalled := 0
	for len(servers) < numServers {
		if stalled >= len(hostKeys) {
			return nil, fmt.Errorf("%w: cannot place %d servers: candidate hosts exhausted after placing %d", parcorana.ErrTopology, numServers, len(servers))
		}
		progressed := false
		for _, h := range hostKeys {
			if len(servers) >= numServers {
				break
			}
			ranks := hostRanks[h]
			i := cursor[h]
			if i >= len(ranks) {
				continue
			}
			servers = append(servers, ranks[i])
			cursor[h] = i + 1
			progressed = true
		}
		if !progressed {
			stalled++
		} else {
			stalled = 0
		}
		if len(hostKeys) == 0 {
			break
		}
	}

	if len(servers) < numServers {
		return nil, fmt.Errorf("%w: only placed %d of %d requested servers", parcorana.ErrTopology, len(servers), numServers)
	}

	sort.Ints(servers)
	return servers, nil
}

// Build derives the full Layout from a world size and a chosen set of
// server ranks, per spec §4.1 step 4 (lowest non-server rank becomes the
// viewer, next becomes master, the rest are workers).
func Build(world int, servers []int) (Layout, error) {
	if world < 4 {
		return Layout{}, fmt.Errorf("%w: world size %d < 4", parcorana.ErrTopology, world)
	}
	s := len(servers)
	if world-s < 3 {
		return Layout{}, fmt.Errorf("%w: world-servers %d < 3 (need room for master, viewer, >=1 worker)", parcorana.ErrTopology, world-s)
	}

	isServer := make(map[int]bool, s)
	for _, r := range servers {
		if isServer[r] {
			return Layout{}, fmt.Errorf("%w: duplicate server rank %d", parcorana.ErrTopology, r)
		}
		isServer[r] = true
	}

	var remainder []int
	for r := 0; r < world; r++ {
		if !isServer[r] {
			remainder = append(remainder, r)
		}
	}
	sort.Ints(remainder)

	viewer := remainder[0]
	master := remainder[1]
	workers := append([]int(nil), remainder[2:]...)

	serverComm := make(map[int][]int, s)
	for _, srv := range servers {
		comm := make([]int, 0, 1+len(workers))
		comm = append(comm, srv)
		comm = append(comm, workers...)
		serverComm[srv] = comm
	}

	return Layout{
		World:            world,
		Servers:          append([]int(nil), servers...),
		Viewer:           viewer,
		Master:           master,
		Workers:          workers,
		ServerWorkerComm: serverComm,
	}, nil
}

// Partition is the balanced mask-partition result shared by every
// server-workers scatter and the viewer-workers gather: offsets[w],
// counts[w] split M elements as evenly as possible, remainder spread over
// the first r workers. Grounded directly on
// CommSystemUtil.divideAmongWorkers.
type Partition struct {
	Counts  []int
	Offsets []int
}

// DivideAmongWorkers partitions dataLength elements among numWorkers as
// evenly as possible; the first (dataLength mod numWorkers) workers
// receive one extra element.
func DivideAmongWorkers(dataLength, numWorkers int) Partition {
	k := dataLength / numWorkers
	r := dataLength % numWorkers

	counts := make([]int, numWorkers)
	offsets := make([]int, numWorkers)
	next := 0
	for w := 0; w < numWorkers; w++ {
		offsets[w] = next
		count := k
		if r > 0 {
			count++
			r--
		}
		counts[w] = count
		next += count
	}
	return Partition{Counts: counts, Offsets: offsets}
}

// CheckCountsOffsets verifies that counts/offsets partition n exactly,
// mirroring CommSystemUtil.checkCountsOffsets.
func CheckCountsOffsets(counts, offsets []int, n int) error {
	if len(counts) != len(offsets) {
		return fmt.Errorf("%w: counts=%v offsets=%v do not partition n=%d (length mismatch)", parcorana.ErrTopology, counts, offsets, n)
	}
	sum := 0
	for _, c := range counts {
		sum += c
	}
	if sum != n {
		return fmt.Errorf("%w: counts=%v offsets=%v do not partition n=%d (sum=%d)", parcorana.ErrTopology, counts, offsets, n, sum)
	}
	if len(offsets) == 0 {
		if n != 0 {
			return fmt.Errorf("%w: empty counts/offsets cannot partition n=%d", parcorana.ErrTopology, n)
		}
		return nil
	}
	if offsets[0] != 0 {
		return fmt.Errorf("%w: counts=%v offsets=%v do not partition n=%d (offsets[0]!=0)", parcorana.ErrTopology, counts, offsets, n)
	}
	for i := 1; i < len(counts); i++ {
		if offsets[i] != offsets[i-1]+counts[i-1] {
			return fmt.Errorf("%w: counts=%v offsets=%v do not partition n=%d (gap at %d)", parcorana.ErrTopology, counts, offsets, n, i)
		}
	}
	last := len(counts) - 1
	if offsets[last]+counts[last] != n {
		return fmt.Errorf("%w: counts=%v offsets=%v do not partition n=%d (tail mismatch)", parcorana.ErrTopology, counts, offsets, n)
	}
	return nil
}

// ScatterCounts builds the per-server scatter counts/offsets for a server
// communicator of [server, workers...]: the server's own slot receives
// count 0, offsets stay monotonically non-decreasing, and the workers'
// slots follow the world-wide worker partition (spec §4.1).
func ScatterCounts(workerPartition Partition) (counts, offsets []int) {
	counts = make([]int, 1+len(workerPartition.Counts))
	offsets = make([]int, 1+len(workerPartition.Offsets))
	counts[0] = 0
	offsets[0] = 0
	for i, c := range workerPartition.Counts {
		counts[i+1] = c
		offsets[i+1] = workerPartition.Offsets[i]
	}
	return counts, offsets
}
