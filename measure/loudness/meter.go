// Package loudness implements the compliance meter of the mastering chain:
// momentary, short-term and gated integrated loudness over a simplified
// K-weighting, plus oversampled true peak. The meter runs block-synchronous
// on the render thread; snapshots cross to the control thread as immutable
// values.
package loudness

import (
	"math"

	"github.com/cwbudde/algo-mastering/accel"
)

const (
	momentaryDuration = 0.4
	shortTermDuration = 3.0

	// Gating parameters for integrated loudness.
	absGateLUFS = -70.0
	relGateLU   = -10.0

	// gatingBlockSeconds is the accumulation quantum for the two-pass
	// integrated measurement.
	gatingBlockSeconds = 0.4
)

// Metrics is an immutable loudness snapshot. Loudness fields are LUFS and
// negative infinity for silence; TruePeakDB is dBFS.
type Metrics struct {
	MomentaryLUFS  float64
	ShortTermLUFS  float64
	IntegratedLUFS float64
	TruePeakDB     float64
}

// Meter measures a stereo program. Not safe for concurrent use; the chain
// owns it on the render thread.
type Meter struct {
	cfg MeterConfig

	weightL, weightR *kWeighting

	momentary *Window
	shortTerm *Window

	// Integrated loudness accumulates fixed gating blocks into a histogram,
	// keeping the render path free of allocation.
	gate        GateHistogram
	gateEnergy  float64
	gateSeconds float64

	truePeak float64
	prevL    float64
	prevR    float64
	kernels  *accel.Kernels
}

// NewMeter creates a meter with the given options.
func NewMeter(opts ...MeterOption) *Meter {
	cfg := ApplyMeterOptions(opts...)
	m := &Meter{
		cfg:       cfg,
		weightL:   newKWeighting(cfg.SampleRate),
		weightR:   newKWeighting(cfg.SampleRate),
		momentary: NewWindow(momentaryDuration),
		shortTerm: NewWindow(shortTermDuration),
	}
	if k, err := accel.Acquire(); err == nil {
		m.kernels = k
	}
	return m
}

// SampleRate returns the configured rate.
func (m *Meter) SampleRate() float64 { return m.cfg.SampleRate }

// ProcessBlock feeds one stereo block. Both channels must have equal length.
func (m *Meter) ProcessBlock(left, right []float64) {
	n := len(left)
	if n == 0 {
		return
	}

	m.updateTruePeak(left, right)

	var sum float64
	for i := 0; i < n; i++ {
		wl := m.weightL.processSample(left[i])
		wr := m.weightR.processSample(right[i])
		sum += wl*wl + wr*wr
	}

	// Channel-summed mean square per BS.1770 (unity channel weights).
	energy := sum / float64(n)
	seconds := float64(n) / m.cfg.SampleRate

	m.momentary.Push(energy, seconds)
	m.shortTerm.Push(energy, seconds)
	m.pushGating(energy, seconds)
}

func (m *Meter) pushGating(energy, seconds float64) {
	m.gateEnergy += energy * seconds
	m.gateSeconds += seconds
	if m.gateSeconds >= gatingBlockSeconds {
		m.gate.Add(m.gateEnergy / m.gateSeconds)
		m.gateEnergy = 0
		m.gateSeconds = 0
	}
}

func (m *Meter) updateTruePeak(left, right []float64) {
	if m.kernels != nil {
		if p := m.kernels.OversampledPeak(left, m.prevL); p > m.truePeak {
			m.truePeak = p
		}
		if p := m.kernels.OversampledPeak(right, m.prevR); p > m.truePeak {
			m.truePeak = p
		}
	} else {
		if p := oversampledPeak(left, m.prevL); p > m.truePeak {
			m.truePeak = p
		}
		if p := oversampledPeak(right, m.prevR); p > m.truePeak {
			m.truePeak = p
		}
	}
	m.prevL = left[len(left)-1]
	m.prevR = right[len(right)-1]
}

// oversampledPeak mirrors the accelerated kernel for the node-graph path.
func oversampledPeak(buf []float64, prev float64) float64 {
	var peak float64
	last := prev
	for _, s := range buf {
		if a := math.Abs(s); a > peak {
			peak = a
		}
		for _, frac := range [3]float64{0.25, 0.5, 0.75} {
			if v := math.Abs(last + (s-last)*frac); v > peak {
				peak = v
			}
		}
		last = s
	}
	return peak
}

// Momentary returns the 0.4 s window loudness.
func (m *Meter) Momentary() float64 { return m.momentary.LUFS() }

// ShortTerm returns the 3.0 s window loudness.
func (m *Meter) ShortTerm() float64 { return m.shortTerm.LUFS() }

// Integrated computes the gated integrated loudness over everything fed
// since the last Reset, using the two-pass relative gate. The partially
// filled tail block is folded in without touching the accumulated state.
func (m *Meter) Integrated() float64 {
	if m.gateSeconds > 0 {
		return m.gate.IntegratedWith(m.gateEnergy / m.gateSeconds)
	}
	return m.gate.Integrated()
}

// GatedLoudness runs the two-pass gate over per-block mean-square energies:
// ungated mean, relative threshold 10 LU below it floored at -70 LUFS
// absolute, then the mean of passing blocks. It is the reference form of the
// gate over an explicit block list; the streaming meter and the degraded
// analyzer fold blocks into a GateHistogram instead.
func GatedLoudness(blocks []float64) float64 {
	if len(blocks) == 0 {
		return silenceLUFS
	}

	var sum float64
	for _, e := range blocks {
		sum += e
	}
	ungated := EnergyLUFS(sum / float64(len(blocks)))
	gate := math.Max(ungated+relGateLU, absGateLUFS)

	var gatedSum float64
	var count int
	for _, e := range blocks {
		if EnergyLUFS(e) > gate {
			gatedSum += e
			count++
		}
	}
	if count == 0 {
		return silenceLUFS
	}
	return EnergyLUFS(gatedSum / float64(count))
}

// TruePeakDB returns the maximum oversampled peak seen since Reset, in dBFS.
// Silence reports negative infinity.
func (m *Meter) TruePeakDB() float64 {
	if m.truePeak <= 0 {
		return silenceLUFS
	}
	return 20 * math.Log10(m.truePeak)
}

// Snapshot captures the current metrics as one immutable value.
func (m *Meter) Snapshot() Metrics {
	return Metrics{
		MomentaryLUFS:  m.Momentary(),
		ShortTermLUFS:  m.ShortTerm(),
		IntegratedLUFS: m.Integrated(),
		TruePeakDB:     m.TruePeakDB(),
	}
}

// Reset clears all measurement state, including the integration history.
func (m *Meter) Reset() {
	m.weightL.reset()
	m.weightR.reset()
	m.momentary.Reset()
	m.shortTerm.Reset()
	m.gate.Reset()
	m.gateEnergy = 0
	m.gateSeconds = 0
	m.truePeak = 0
	m.prevL = 0
	m.prevR = 0
}
