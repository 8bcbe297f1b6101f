package stage

import (
	"math"

	"github.com/cwbudde/algo-mastering/dsp/core"
)

// Panner applies an equal-power stereo balance. Position -1 is hard left,
// 0 is an exact pass-through, +1 is hard right. A stereo pan folds the
// off-side channel into the pan side rather than just attenuating it, so no
// material is lost at the extremes. Position changes are smoothed to avoid
// zipper noise.
type Panner struct {
	position *core.Smoothed
}

// NewPanner creates a centered panner.
func NewPanner(sampleRate float64) *Panner {
	return &Panner{position: core.NewSmoothed(0, 10, sampleRate)}
}

// SetPosition sets the pan target, clamped to [-1, 1].
func (p *Panner) SetPosition(pos float64) {
	p.position.SetTarget(core.Clamp(pos, -1, 1))
}

// Position returns the current pan target.
func (p *Panner) Position() float64 { return p.position.Target() }

func (p *Panner) ProcessBlock(left, right []float64) {
	for i := range left {
		pos := p.position.Next()
		x := pos
		if pos <= 0 {
			x = pos + 1
		}
		gl := math.Cos(x * math.Pi / 2)
		gr := math.Sin(x * math.Pi / 2)
		l, r := left[i], right[i]
		if pos <= 0 {
			left[i] = l + r*gl
			right[i] = r * gr
		} else {
			left[i] = l * gl
			right[i] = r + l*gr
		}
	}
}

func (p *Panner) Reset() {
	p.position.Jump(p.position.Target())
}
