package loudness

import (
	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
)

// Simplified K-weighting pre-filter: a second-order highpass near 60 Hz
// cascaded with a +4 dB high shelf near 6.5 kHz. This is an approximation of
// the BS.1770 curve, preserved exactly because profile targets were tuned
// against it.
const (
	kHighpassFreq = 60.0
	kShelfFreq    = 6500.0
	kShelfGainDB  = 4.0
	kFilterQ      = 0.707
)

type kWeighting struct {
	hp    biquad.Section
	shelf biquad.Section
}

func newKWeighting(sampleRate float64) *kWeighting {
	k := &kWeighting{}
	k.hp.SetCoefficients(design.Highpass(kHighpassFreq, kFilterQ, sampleRate))
	k.shelf.SetCoefficients(design.HighShelf(kShelfFreq, kShelfGainDB, kFilterQ, sampleRate))
	return k
}

func (k *kWeighting) processSample(x float64) float64 {
	return k.shelf.ProcessSample(k.hp.ProcessSample(x))
}

func (k *kWeighting) reset() {
	k.hp.Reset()
	k.shelf.Reset()
}
