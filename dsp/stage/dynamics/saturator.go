package dynamics

import (
	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/shape"
	"github.com/cwbudde/algo-mastering/profile"
)

// saturatorAmount is the fixed curve amount; loudness character comes from
// the drive, not the curve shape.
const saturatorAmount = 0.45

// Saturator adds harmonic density ahead of the limiters. Drive is
// recalibrated per profile and ramps over ~20 ms; warmth blends a one-pole
// low-pass into the shaped path; mix blends shaped against dry.
type Saturator struct {
	table *shape.Table
	drive *core.Smoothed

	warmth float64
	mix    float64

	toneCoeff    float64
	toneL, toneR float64
}

// NewSaturator creates a saturator with unity drive.
func NewSaturator(sampleRate float64, s profile.DriveSettings) *Saturator {
	sat := &Saturator{
		table:     shape.Lookup(saturatorAmount, shape.DefaultResolution),
		drive:     core.NewSmoothed(1, 20, sampleRate),
		toneCoeff: 1 - core.OnePoleCoeff(0.05, sampleRate),
	}
	sat.Apply(s)
	return sat
}

// Apply pushes warmth and mix from the profile. Drive is set separately by
// the chain's loudness calibration.
func (s *Saturator) Apply(d profile.DriveSettings) {
	s.warmth = core.Clamp(d.Warmth, 0, 1)
	s.mix = core.Clamp(d.Mix, 0, 1)
}

// SetDrive ramps the drive toward gain; values below zero are clamped.
func (s *Saturator) SetDrive(gain float64) {
	if gain < 0 {
		gain = 0
	}
	s.drive.SetTarget(gain)
}

// Drive returns the drive target.
func (s *Saturator) Drive() float64 { return s.drive.Target() }

func (s *Saturator) ProcessBlock(left, right []float64) {
	for i := range left {
		drive := s.drive.Next()

		shapedL := s.table.Shape(left[i] * drive)
		shapedR := s.table.Shape(right[i] * drive)

		s.toneL += s.toneCoeff * (shapedL - s.toneL)
		s.toneR += s.toneCoeff * (shapedR - s.toneR)
		shapedL = shapedL*(1-s.warmth) + s.toneL*s.warmth
		shapedR = shapedR*(1-s.warmth) + s.toneR*s.warmth

		left[i] = left[i]*(1-s.mix) + shapedL*s.mix
		right[i] = right[i]*(1-s.mix) + shapedR*s.mix
	}
}

func (s *Saturator) Reset() {
	s.drive.Jump(s.drive.Target())
	s.toneL, s.toneR = 0, 0
}
