package pillars

import (
	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
	"github.com/cwbudde/algo-mastering/dsp/shape"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/profile"
)

// tiltFrequency is the corner of the low-pass feeding the Floor exciter. The
// shaped path only ever sees low-end content; everything above stays dry.
const tiltFrequency = 220.0

// Floor thickens the low end. A low-pass tilt feeds a waveshaping exciter and
// the shaped path is summed with the dry path, keeping the original signal
// coherent underneath the added harmonics.
type Floor struct {
	tiltL, tiltR biquad.Section
	table        *shape.Table
	makeup       *core.Smoothed

	scratchL, scratchR []float64

	kernels *accel.Kernels
	binding stage.Binding
}

// NewFloor creates a Floor stage for the given sample rate and settings.
func NewFloor(sampleRate float64, s profile.FloorSettings) *Floor {
	coeffs := design.Lowpass(tiltFrequency, design.DefaultQ, sampleRate)
	f := &Floor{
		makeup: core.NewSmoothed(1, 10, sampleRate),
	}
	f.tiltL.SetCoefficients(coeffs)
	f.tiltR.SetCoefficients(coeffs)
	f.kernels, f.binding = resolveBinding()
	f.Apply(s)
	f.makeup.Jump(f.makeup.Target())
	return f
}

// Apply pushes new settings. The saturation table swaps immediately; make-up
// gain ramps over its smoothing window.
func (f *Floor) Apply(s profile.FloorSettings) {
	warmth := core.Clamp(s.Warmth, 0, 100) / 100
	depth := core.Clamp(s.Depth, 0, 100)
	f.table = shape.Lookup(warmth, shape.DefaultResolution)
	f.makeup.SetTarget(1 + depth/200)
}

func (f *Floor) Binding() stage.Binding { return f.binding }

func (f *Floor) ProcessBlock(left, right []float64) {
	if f.binding == stage.BindingAccelerated && f.makeup.Settled(1e-6) {
		f.processAccelerated(left, right)
		return
	}
	for i := range left {
		gain := f.makeup.Next()
		left[i] = (left[i] + f.table.Shape(f.tiltL.ProcessSample(left[i]))) * gain
		right[i] = (right[i] + f.table.Shape(f.tiltR.ProcessSample(right[i]))) * gain
	}
}

func (f *Floor) processAccelerated(left, right []float64) {
	f.scratchL = core.EnsureLen(f.scratchL, len(left))
	f.scratchR = core.EnsureLen(f.scratchR, len(right))
	copy(f.scratchL, left)
	copy(f.scratchR, right)

	f.tiltL.ProcessBlock(f.scratchL)
	f.tiltR.ProcessBlock(f.scratchR)
	f.table.ShapeBlock(f.scratchL)
	f.table.ShapeBlock(f.scratchR)

	gain := f.makeup.Value()
	f.kernels.Gain(left, gain)
	f.kernels.Gain(right, gain)
	f.kernels.Mix(left, f.scratchL, gain)
	f.kernels.Mix(right, f.scratchR, gain)
}

func (f *Floor) Reset() {
	f.tiltL.Reset()
	f.tiltR.Reset()
	f.makeup.Jump(f.makeup.Target())
}
