package pillars

import (
	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
	"github.com/cwbudde/algo-mastering/dsp/shape"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/profile"
)

const (
	presenceFrequency = 1000.0
	presenceGainDB    = 1.5
	presenceQ         = 0.9

	airFrequency = 8000.0
	airGainDB    = 2.0
)

// Lattice adds harmonic density. A peaking mid boost and a high-shelf air
// lift feed a character-selected saturation curve, so the enhanced bands are
// the ones that generate harmonics.
type Lattice struct {
	eqL, eqR *biquad.Chain
	table    *shape.Table

	kernels *accel.Kernels
	binding stage.Binding
}

// NewLattice creates a Lattice stage for the given sample rate and settings.
func NewLattice(sampleRate float64, s profile.LatticeSettings) *Lattice {
	coeffs := []biquad.Coefficients{
		design.Peak(presenceFrequency, presenceGainDB, presenceQ, sampleRate),
		design.HighShelf(airFrequency, airGainDB, design.DefaultQ, sampleRate),
	}
	l := &Lattice{
		eqL: biquad.NewChain(coeffs),
		eqR: biquad.NewChain(coeffs),
	}
	l.kernels, l.binding = resolveBinding()
	l.Apply(s)
	return l
}

// Apply swaps the saturation character.
func (l *Lattice) Apply(s profile.LatticeSettings) {
	l.table = shape.Lookup(s.Character.CurveAmount(), shape.DefaultResolution)
}

func (l *Lattice) Binding() stage.Binding { return l.binding }

func (l *Lattice) ProcessBlock(left, right []float64) {
	if l.binding == stage.BindingAccelerated {
		l.eqL.ProcessBlock(left)
		l.eqR.ProcessBlock(right)
		l.table.ShapeBlock(left)
		l.table.ShapeBlock(right)
		return
	}
	for i := range left {
		left[i] = l.table.Shape(l.eqL.ProcessSample(left[i]))
		right[i] = l.table.Shape(l.eqR.ProcessSample(right[i]))
	}
}

func (l *Lattice) Reset() {
	l.eqL.Reset()
	l.eqR.Reset()
}
