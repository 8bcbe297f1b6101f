package pillars

import (
	"math"

	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/profile"
)

const (
	encodeCoeff = 1.0 / math.Sqrt2

	// maxSideGain caps the width scale at 1.5x.
	maxSideGain = 1.5

	// monoCompatReduction is the maximum side attenuation applied for
	// mono-sensitive targets.
	monoCompatReduction = 0.3
)

// Weave shapes the stereo field through a true mid/side matrix. Width 100 is
// unity (encode and decode cancel exactly); lower values narrow the image,
// higher values widen it up to 1.5x side gain. Mono compatibility pulls the
// side level back by up to 30 %.
type Weave struct {
	sideGain *core.Smoothed

	scratchM, scratchS []float64

	kernels *accel.Kernels
	binding stage.Binding
}

// NewWeave creates a Weave stage for the given sample rate and settings.
func NewWeave(sampleRate float64, s profile.WeaveSettings) *Weave {
	w := &Weave{
		sideGain: core.NewSmoothed(1, 10, sampleRate),
	}
	w.kernels, w.binding = resolveBinding()
	w.Apply(s)
	w.sideGain.Jump(w.sideGain.Target())
	return w
}

// Apply pushes new settings; side gain ramps over its smoothing window.
func (w *Weave) Apply(s profile.WeaveSettings) {
	gain := math.Min(core.Clamp(s.Width, 0, 150)/100, maxSideGain)
	gain *= 1 - monoCompatReduction*core.Clamp(s.MonoCompatibility, 0, 1)
	w.sideGain.SetTarget(gain)
}

func (w *Weave) Binding() stage.Binding { return w.binding }

func (w *Weave) ProcessBlock(left, right []float64) {
	if w.binding == stage.BindingAccelerated && w.sideGain.Settled(1e-6) {
		w.processAccelerated(left, right)
		return
	}
	for i := range left {
		gain := w.sideGain.Next()
		mid := (left[i] + right[i]) * encodeCoeff
		side := (left[i] - right[i]) * encodeCoeff * gain
		left[i] = (mid + side) * encodeCoeff
		right[i] = (mid - side) * encodeCoeff
	}
}

func (w *Weave) processAccelerated(left, right []float64) {
	w.scratchM = core.EnsureLen(w.scratchM, len(left))
	w.scratchS = core.EnsureLen(w.scratchS, len(left))
	for i := range left {
		w.scratchM[i] = (left[i] + right[i]) * encodeCoeff
		w.scratchS[i] = (left[i] - right[i]) * encodeCoeff
	}
	w.kernels.Gain(w.scratchS, w.sideGain.Value())
	for i := range left {
		left[i] = (w.scratchM[i] + w.scratchS[i]) * encodeCoeff
		right[i] = (w.scratchM[i] - w.scratchS[i]) * encodeCoeff
	}
}

func (w *Weave) Reset() {
	w.sideGain.Jump(w.sideGain.Target())
}
