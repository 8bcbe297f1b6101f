// Package pillars implements the four signature enhancement stages of the
// mastering chain: Floor (low-end foundation), Lattice (harmonic density),
// Weave (stereo field) and Curve (final polish). Each stage resolves an
// accelerated block-oriented binding or the portable node-graph path once at
// construction; the two paths compute the same math and are observably
// identical.
package pillars

import (
	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/stage"
)

// resolveBinding asks the accel registry for kernels. Stages fall back to the
// node-graph path when the registry has nothing for this process.
func resolveBinding() (*accel.Kernels, stage.Binding) {
	if k, err := accel.Acquire(); err == nil {
		return k, stage.BindingAccelerated
	}
	return nil, stage.BindingNodeGraph
}

var (
	_ stage.Bound = (*Floor)(nil)
	_ stage.Bound = (*Lattice)(nil)
	_ stage.Bound = (*Weave)(nil)
	_ stage.Bound = (*Curve)(nil)
)
