package pillars

import (
	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/profile"
)

const (
	warmthFrequency = 180.0

	// warmthRangeDB maps Warmth 0..1 onto a 0..+3 dB low-shelf lift.
	warmthRangeDB = 3.0
)

// Curve is the final-polish warmth shelf, a gentle low-shelf lift whose gain
// tracks the profile's warmth setting. It doubles as the offline stem
// post-process via RenderCurve.
type Curve struct {
	shelfL, shelfR biquad.Section
	sampleRate     float64

	kernels *accel.Kernels
	binding stage.Binding
}

// NewCurve creates a Curve stage for the given sample rate and settings.
func NewCurve(sampleRate float64, s profile.CurveSettings) *Curve {
	c := &Curve{sampleRate: sampleRate}
	c.kernels, c.binding = resolveBinding()
	c.Apply(s)
	return c
}

// Apply redesigns the shelf for the new warmth. Filter state is preserved so
// a profile switch does not click.
func (c *Curve) Apply(s profile.CurveSettings) {
	gain := warmthRangeDB * core.Clamp(s.Warmth, 0, 1)
	coeffs := design.LowShelf(warmthFrequency, gain, design.DefaultQ, c.sampleRate)
	c.shelfL.SetCoefficients(coeffs)
	c.shelfR.SetCoefficients(coeffs)
}

func (c *Curve) Binding() stage.Binding { return c.binding }

func (c *Curve) ProcessBlock(left, right []float64) {
	if c.binding == stage.BindingAccelerated {
		c.shelfL.ProcessBlock(left)
		c.shelfR.ProcessBlock(right)
		return
	}
	for i := range left {
		left[i] = c.shelfL.ProcessSample(left[i])
		right[i] = c.shelfR.ProcessSample(right[i])
	}
}

func (c *Curve) Reset() {
	c.shelfL.Reset()
	c.shelfR.Reset()
}

// RenderCurve applies the warmth shelf to a fully rendered stereo buffer.
// It is the offline entry point for separated stems: it shares the stage
// constructor but not a live chain, and the buffers are processed in place
// in one call.
func RenderCurve(left, right []float64, sampleRate float64, s profile.CurveSettings) {
	c := NewCurve(sampleRate, s)
	c.ProcessBlock(left, right)
}
