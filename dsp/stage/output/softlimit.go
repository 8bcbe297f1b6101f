// Package output implements the end of the mastering chain: the soft limiter
// that absorbs transients, the true-peak limiter that enforces the delivery
// ceiling, and the dither stage that conditions the signal for quantized
// delivery. Stage order soft -> true-peak -> dither is fixed; each stage
// assumes the previous one already bounded the signal.
package output

import (
	"math"

	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/stage/dynamics"
)

// Soft limiter tuning: high ratio, wide knee, slow enough to stay musical.
var softLimiterParams = dynamics.Params{
	ThresholdDB: -6,
	Ratio:       6,
	AttackMs:    10,
	ReleaseMs:   100,
	KneeDB:      4,
}

// softCeilingHeadroomDB places the threshold below the requested ceiling so
// the knee tops out near it. Matches the knee width.
const softCeilingHeadroomDB = 4

// SoftLimiter rounds off transients ahead of true-peak limiting so the
// brick-wall stage works on a pre-conditioned signal.
type SoftLimiter struct {
	comp *dynamics.Comp
}

// NewSoftLimiter creates the transient-absorbing limiter.
func NewSoftLimiter(sampleRate float64) (*SoftLimiter, error) {
	comp, err := dynamics.NewComp(sampleRate, softLimiterParams)
	if err != nil {
		return nil, err
	}
	return &SoftLimiter{comp: comp}, nil
}

// SetCeilingDB retunes the limiter around a profile's soft ceiling. The
// threshold sits a knee width below the ceiling; invalid values are clamped.
func (s *SoftLimiter) SetCeilingDB(db float64) {
	_ = s.comp.SetThreshold(core.Clamp(db, -12, 0) - softCeilingHeadroomDB)
}

func (s *SoftLimiter) ProcessBlock(left, right []float64) {
	for i := range left {
		gain := s.comp.Advance(math.Max(math.Abs(left[i]), math.Abs(right[i])))
		left[i] *= gain
		right[i] *= gain
	}
}

func (s *SoftLimiter) Reset() {
	s.comp.Reset()
}
