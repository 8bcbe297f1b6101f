package core

import (
	"math"
	"sync/atomic"
)

// Smoothed is a control-rate parameter that approaches its target
// exponentially instead of jumping. Parameter changes issued from the control
// context always travel through a Smoothed value; the render context ticks it
// once per sample (or block) and never observes a discontinuity. The target
// crosses goroutines through an atomic, so SetTarget is safe to call from the
// control context while the render context ticks. The coefficient and the
// current value stay render-owned.
type Smoothed struct {
	current float64
	target  atomic.Uint64 // math.Float64bits
	coeff   float64
}

// NewSmoothed creates a smoothed parameter starting at value with the given
// time constant.
func NewSmoothed(value, timeConstantMs, sampleRate float64) *Smoothed {
	s := &Smoothed{
		current: value,
		coeff:   OnePoleCoeff(timeConstantMs, sampleRate),
	}
	s.target.Store(math.Float64bits(value))

	return s
}

// SetTarget sets the value the parameter ramps toward. Safe to call
// concurrently with Next and TickBlock.
func (s *Smoothed) SetTarget(v float64) {
	s.target.Store(math.Float64bits(v))
}

// SetTimeConstant reconfigures the ramp speed without disturbing the ramp.
// Construction and render-side use only; the coefficient is not synchronized.
func (s *Smoothed) SetTimeConstant(timeConstantMs, sampleRate float64) {
	s.coeff = OnePoleCoeff(timeConstantMs, sampleRate)
}

// Jump forces current and target to v immediately. Only for construction and
// reset paths; live parameter changes must use SetTarget.
func (s *Smoothed) Jump(v float64) {
	s.current = v
	s.target.Store(math.Float64bits(v))
}

// Next advances one sample and returns the smoothed value.
func (s *Smoothed) Next() float64 {
	target := s.Target()
	s.current = target + (s.current-target)*s.coeff
	s.current = FlushDenormals(s.current)

	return s.current
}

// TickBlock advances n samples at once and returns the value at the end of
// the block. Used by stages that apply one gain per block. The target is read
// once, so a change landing mid-block takes effect on the next one.
func (s *Smoothed) TickBlock(n int) float64 {
	if n <= 0 {
		return s.current
	}

	target := s.Target()
	c := s.coeff
	for range n {
		s.current = target + (s.current-target)*c
	}

	s.current = FlushDenormals(s.current)

	return s.current
}

// Value returns the current value without advancing.
func (s *Smoothed) Value() float64 { return s.current }

// Target returns the ramp destination.
func (s *Smoothed) Target() float64 {
	return math.Float64frombits(s.target.Load())
}

// Settled reports whether current is within eps of target.
func (s *Smoothed) Settled(eps float64) bool {
	return NearlyEqual(s.current, s.Target(), eps)
}
