package dynamics

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-mastering/dsp/core"
)

// DefaultGlueParams are the neutral bus-compressor settings before any
// profile calibration.
var DefaultGlueParams = Params{
	ThresholdDB: -18,
	Ratio:       2.2,
	AttackMs:    15,
	ReleaseMs:   250,
	KneeDB:      2,
}

// Glue is the stereo bus compressor. The detector is stereo-linked and the
// wet path is blended with the dry signal (parallel compression) so the mix
// control trades density against transient life.
type Glue struct {
	comp *Comp
	mix  *core.Smoothed

	// Last per-block reduction, published for control-side metering.
	reductionDB atomic.Uint64
}

// NewGlue creates a glue compressor with the default settings.
func NewGlue(sampleRate float64) (*Glue, error) {
	comp, err := NewComp(sampleRate, DefaultGlueParams)
	if err != nil {
		return nil, err
	}
	return &Glue{
		comp: comp,
		mix:  core.NewSmoothed(0.5, 20, sampleRate),
	}, nil
}

// Calibrate retunes threshold, ratio, release and mix. Attack and knee keep
// their defaults. Invalid values leave the previous calibration in place.
func (g *Glue) Calibrate(thresholdDB, ratio, releaseMs, mix float64) error {
	p := g.comp.Params()
	p.ThresholdDB = thresholdDB
	p.Ratio = ratio
	p.ReleaseMs = releaseMs
	if err := g.comp.SetParams(p); err != nil {
		return err
	}
	g.mix.SetTarget(core.Clamp(mix, 0, 1))
	return nil
}

// Params returns the current compressor settings.
func (g *Glue) Params() Params { return g.comp.Params() }

// Mix returns the wet/dry target.
func (g *Glue) Mix() float64 { return g.mix.Target() }

// GainReductionDB reports the momentary reduction for metering. Safe to call
// concurrently with ProcessBlock; the value is the reduction at the end of
// the last processed block.
func (g *Glue) GainReductionDB() float64 {
	return math.Float64frombits(g.reductionDB.Load())
}

func (g *Glue) ProcessBlock(left, right []float64) {
	for i := range left {
		mix := g.mix.Next()
		gain := g.comp.Advance(math.Max(math.Abs(left[i]), math.Abs(right[i])))
		blended := 1 + (gain-1)*mix
		left[i] *= blended
		right[i] *= blended
	}

	g.reductionDB.Store(math.Float64bits(g.comp.GainReductionDB()))
}

func (g *Glue) Reset() {
	g.comp.Reset()
	g.mix.Jump(g.mix.Target())
	g.reductionDB.Store(0)
}
