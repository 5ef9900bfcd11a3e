package viewer

import "github.com/lclsdet/parcorana/wire"

// Publisher is the external collaborator that persists or plots a result
// (spec §6): "absorbs (counter, per-color delay curves, per-delay matrices,
// diagnostic images) and persists/plots them." Out of scope per §1; the
// viewer only produces the arguments, never opens an HDF5 file or a plot
// window itself.
type Publisher interface {
	Publish(latestCounter int64, curves map[int][]float32, matrices wire.Gathered) error
}
