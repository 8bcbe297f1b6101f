package dynamics

import (
	"math"

	"github.com/cwbudde/algo-mastering/dsp/filter/biquad"
	"github.com/cwbudde/algo-mastering/dsp/filter/design"
)

const (
	midDipFrequency = 320.0
	midDipGainDB    = -1.5
	midDipQ         = 1.0

	sideShelfFrequency = 6000.0
	sideShelfGainDB    = 1.5
)

// Side compressor tuning: keeps the widened image from pumping.
var sideCompParams = Params{
	ThresholdDB: -26,
	Ratio:       1.8,
	AttackMs:    2,
	ReleaseMs:   120,
	KneeDB:      2,
}

// MidSide conditions the stereo image: the mid channel gets a gentle 320 Hz
// dip to unmask vocals, the side channel a high-shelf lift plus its own
// compressor. Encode and decode both use 1/sqrt(2) so the matrix is unity
// when the processors are.
type MidSide struct {
	midEQ     biquad.Section
	sideShelf biquad.Section
	sideComp  *Comp
}

// NewMidSide creates the mid/side conditioning stage.
func NewMidSide(sampleRate float64) (*MidSide, error) {
	comp, err := NewComp(sampleRate, sideCompParams)
	if err != nil {
		return nil, err
	}
	m := &MidSide{sideComp: comp}
	m.midEQ.SetCoefficients(design.Peak(midDipFrequency, midDipGainDB, midDipQ, sampleRate))
	m.sideShelf.SetCoefficients(design.HighShelf(sideShelfFrequency, sideShelfGainDB, design.DefaultQ, sampleRate))
	return m, nil
}

func (m *MidSide) ProcessBlock(left, right []float64) {
	const enc = 1.0 / math.Sqrt2
	for i := range left {
		mid := (left[i] + right[i]) * enc
		side := (left[i] - right[i]) * enc

		mid = m.midEQ.ProcessSample(mid)
		side = m.sideShelf.ProcessSample(side)
		side *= m.sideComp.Advance(math.Abs(side))

		left[i] = (mid + side) * enc
		right[i] = (mid - side) * enc
	}
}

func (m *MidSide) Reset() {
	m.midEQ.Reset()
	m.sideShelf.Reset()
	m.sideComp.Reset()
}
