package dynamics

import (
	"math"

	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
)

const (
	lowCrossover  = 120.0
	midCenter     = 1600.0
	midBandwidthQ = 0.7
	highCrossover = 5500.0

	lowTrim  = 1.05
	highTrim = 1.1

	// highExponent is the power law of the high-band exciter.
	highExponent = 0.8
)

var (
	lowBandParams = Params{
		ThresholdDB: -30,
		Ratio:       2.2,
		AttackMs:    10,
		ReleaseMs:   150,
		KneeDB:      2,
	}
	midBandParams = Params{
		ThresholdDB: -22,
		Ratio:       1.6,
		AttackMs:    8,
		ReleaseMs:   120,
		KneeDB:      2,
	}
)

// Multiband runs three parallel bands: a compressed low band below 120 Hz, a
// compressed 1.6 kHz presence band and a power-law excited high band above
// 5.5 kHz. The bands are summed with fixed trims favoring the outer bands.
type Multiband struct {
	lowL, lowR   *biquad.Chain
	midL, midR   biquad.Section
	highL, highR *biquad.Chain

	lowComp *Comp
	midComp *Comp

	low, mid, high [2][]float64
}

// NewMultiband creates the multiband dynamics stage.
func NewMultiband(sampleRate float64) (*Multiband, error) {
	lowComp, err := NewComp(sampleRate, lowBandParams)
	if err != nil {
		return nil, err
	}
	midComp, err := NewComp(sampleRate, midBandParams)
	if err != nil {
		return nil, err
	}

	lowCoeffs := design.LinkwitzRiley4LP(lowCrossover, sampleRate)
	highCoeffs := design.LinkwitzRiley4HP(highCrossover, sampleRate)
	midCoeffs := design.Bandpass(midCenter, midBandwidthQ, sampleRate)

	m := &Multiband{
		lowL:    biquad.NewChain(lowCoeffs),
		lowR:    biquad.NewChain(lowCoeffs),
		highL:   biquad.NewChain(highCoeffs),
		highR:   biquad.NewChain(highCoeffs),
		lowComp: lowComp,
		midComp: midComp,
	}
	m.midL.SetCoefficients(midCoeffs)
	m.midR.SetCoefficients(midCoeffs)
	return m, nil
}

func (m *Multiband) ProcessBlock(left, right []float64) {
	n := len(left)
	for ch := 0; ch < 2; ch++ {
		m.low[ch] = core.EnsureLen(m.low[ch], n)
		m.mid[ch] = core.EnsureLen(m.mid[ch], n)
		m.high[ch] = core.EnsureLen(m.high[ch], n)
	}
	copy(m.low[0], left)
	copy(m.low[1], right)
	copy(m.mid[0], left)
	copy(m.mid[1], right)
	copy(m.high[0], left)
	copy(m.high[1], right)

	m.lowL.ProcessBlock(m.low[0])
	m.lowR.ProcessBlock(m.low[1])
	m.midL.ProcessBlock(m.mid[0])
	m.midR.ProcessBlock(m.mid[1])
	m.highL.ProcessBlock(m.high[0])
	m.highR.ProcessBlock(m.high[1])

	for i := 0; i < n; i++ {
		// Stereo-linked detectors keep the image stable under reduction.
		lowGain := m.lowComp.Advance(math.Max(math.Abs(m.low[0][i]), math.Abs(m.low[1][i])))
		midGain := m.midComp.Advance(math.Max(math.Abs(m.mid[0][i]), math.Abs(m.mid[1][i])))

		left[i] = m.low[0][i]*lowGain*lowTrim +
			m.mid[0][i]*midGain +
			excite(m.high[0][i])*highTrim
		right[i] = m.low[1][i]*lowGain*lowTrim +
			m.mid[1][i]*midGain +
			excite(m.high[1][i])*highTrim
	}
}

// excite applies the sign-preserving power law x^0.8, lifting low-level
// detail without introducing DC.
func excite(x float64) float64 {
	if x == 0 {
		return 0
	}
	if x < 0 {
		return -math.Pow(-x, highExponent)
	}
	return math.Pow(x, highExponent)
}

func (m *Multiband) Reset() {
	m.lowL.Reset()
	m.lowR.Reset()
	m.midL.Reset()
	m.midR.Reset()
	m.highL.Reset()
	m.highR.Reset()
	m.lowComp.Reset()
	m.midComp.Reset()
}
