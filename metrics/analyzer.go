package metrics

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-mastering/dsp/filter/design"
	"github.com/cwbudde/algo-mastering/internal/pool"
	"github.com/cwbudde/algo-mastering/measure/loudness"
)

const (
	// analyzerRateHz is the degraded sampling schedule. Each tick takes one
	// frame from the capture ring and folds it into the sliding windows.
	analyzerRateHz = 60

	// analyzerFrameSize is the FFT length per tick. At 48kHz a frame spans
	// about 43ms, comfortably inside the 400ms momentary window.
	analyzerFrameSize = 2048

	analyzerMomentarySeconds = 0.4
	analyzerShortTermSeconds = 3.0
	analyzerGateSeconds      = 0.4

	// Frames overlap at 60Hz, so each tick accounts for one tick period of
	// window time rather than a full frame length.
	analyzerTickSeconds = 1.0 / analyzerRateHz

	// Scratch frames come and go on every tick; keep a couple warm but let
	// them go once analysis stops.
	analyzerPoolMax     = 4
	analyzerPoolIdleTTL = 5 * time.Second
)

// Analyzer is the degraded loudness path used when the accelerated meter
// cannot run inside the render thread. The render path only copies samples
// into a capture ring; an ~60Hz schedule pulls frames out, weights their
// spectra with the K-weighting magnitude response, and folds the energies
// into the same windowed formulas the meter uses. For a sustained tone both
// paths settle on the same readings.
type Analyzer struct {
	sampleRate float64

	plan    *algofft.Plan[complex128]
	weights []float64 // |H_k(f)|^2 per bin, DC through Nyquist
	scratch *pool.Pool
	fftBuf  []complex128

	mu       sync.Mutex
	ringL    []float64
	ringR    []float64
	writeIdx int
	filled   int

	momentary *loudness.Window
	shortTerm *loudness.Window

	gate        loudness.GateHistogram
	gateEnergy  float64
	gateSeconds float64

	truePeak float64
}

// NewAnalyzer returns an analyzer for the given sample rate.
func NewAnalyzer(sampleRate float64) (*Analyzer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) {
		return nil, errors.New("metrics: sample rate must be positive")
	}

	plan, err := algofft.NewPlan64(analyzerFrameSize)
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		sampleRate: sampleRate,
		plan:       plan,
		weights:    kWeightingBins(sampleRate),
		scratch:    pool.New(analyzerFrameSize, analyzerPoolMax, analyzerPoolIdleTTL),
		fftBuf:     make([]complex128, analyzerFrameSize),
		ringL:      make([]float64, analyzerFrameSize),
		ringR:      make([]float64, analyzerFrameSize),
		momentary:  loudness.NewWindow(analyzerMomentarySeconds),
		shortTerm:  loudness.NewWindow(analyzerShortTermSeconds),
		truePeak:   0,
	}, nil
}

// kWeightingBins evaluates the squared magnitude of the K-weighting
// approximation (60Hz highpass into a +4dB shelf at 6.5kHz) at each FFT bin
// up to Nyquist.
func kWeightingBins(sampleRate float64) []float64 {
	hp := design.Highpass(60, design.DefaultQ, sampleRate)
	shelf := design.HighShelf(6500, 4, design.DefaultQ, sampleRate)

	w := make([]float64, analyzerFrameSize/2+1)
	for k := range w {
		f := float64(k) * sampleRate / analyzerFrameSize
		w[k] = hp.MagnitudeSquared(f, sampleRate) * shelf.MagnitudeSquared(f, sampleRate)
	}

	return w
}

// Write copies a rendered block into the capture ring and tracks the sample
// peak. Interior points of a linear interpolant never exceed its endpoints,
// so the plain sample peak matches the piecewise-linear true-peak estimate.
func (a *Analyzer) Write(left, right []float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < n; i++ {
		l, r := left[i], right[i]

		if v := math.Abs(l); v > a.truePeak {
			a.truePeak = v
		}

		if v := math.Abs(r); v > a.truePeak {
			a.truePeak = v
		}

		a.ringL[a.writeIdx] = l
		a.ringR[a.writeIdx] = r
		a.writeIdx++

		if a.writeIdx == len(a.ringL) {
			a.writeIdx = 0
		}
	}

	a.filled += n
	if a.filled > len(a.ringL) {
		a.filled = len(a.ringL)
	}
}

// Pump takes the current frame from the ring, computes its K-weighted energy
// in the frequency domain, and folds it into the sliding windows. It is
// driven by Run and exposed for offline stepping in tests.
func (a *Analyzer) Pump() {
	frameL := a.scratch.Get()
	frameR := a.scratch.Get()

	a.mu.Lock()
	filled := a.filled
	copy(frameL, a.ringL)
	copy(frameR, a.ringR)
	a.mu.Unlock()

	if filled == 0 {
		a.scratch.Put(frameL)
		a.scratch.Put(frameR)

		return
	}

	// Channel energies sum, matching the meter's channel-summed measure.
	energy := a.frameEnergy(frameL, filled) + a.frameEnergy(frameR, filled)

	a.scratch.Put(frameL)
	a.scratch.Put(frameR)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.momentary.Push(energy, analyzerTickSeconds)
	a.shortTerm.Push(energy, analyzerTickSeconds)

	a.gateEnergy += energy * analyzerTickSeconds
	a.gateSeconds += analyzerTickSeconds

	if a.gateSeconds >= analyzerGateSeconds {
		a.gate.Add(a.gateEnergy / a.gateSeconds)
		a.gateEnergy = 0
		a.gateSeconds = 0
	}
}

// frameEnergy returns the K-weighted mean-square energy of one frame. The
// ring is not unrotated first: a circular shift only changes bin phases,
// and the weighting uses magnitudes.
func (a *Analyzer) frameEnergy(frame []float64, filled int) float64 {
	for i, s := range frame {
		a.fftBuf[i] = complex(s, 0)
	}

	if err := a.plan.Forward(a.fftBuf, a.fftBuf); err != nil {
		return 0
	}

	n := len(a.fftBuf)

	var sum float64

	for k, v := range a.fftBuf {
		bin := k
		if bin > n/2 {
			bin = n - bin
		}

		re, im := real(v), imag(v)
		sum += a.weights[bin] * (re*re + im*im)
	}

	// Parseval with an unnormalized forward transform, averaged over the
	// samples actually captured so warmup does not read low.
	return sum / (float64(n) * float64(filled))
}

// Snapshot assembles the current degraded reading.
func (a *Analyzer) Snapshot() loudness.Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	return loudness.Metrics{
		MomentaryLUFS:  a.momentary.LUFS(),
		ShortTermLUFS:  a.shortTerm.LUFS(),
		IntegratedLUFS: a.integratedLocked(),
		TruePeakDB:     peakDB(a.truePeak),
	}
}

func (a *Analyzer) integratedLocked() float64 {
	if a.gateSeconds > 0 {
		return a.gate.IntegratedWith(a.gateEnergy / a.gateSeconds)
	}

	return a.gate.Integrated()
}

// Run pumps the analyzer on its ~60Hz schedule and publishes each snapshot
// to the mailbox until ctx is canceled.
func (a *Analyzer) Run(ctx context.Context, mb *Mailbox) {
	ticker := time.NewTicker(time.Second / analyzerRateHz)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Pump()
			mb.Publish(a.Snapshot())
		}
	}
}

// Reset clears all windows, gating history, and the peak hold.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.ringL {
		a.ringL[i] = 0
		a.ringR[i] = 0
	}

	a.writeIdx = 0
	a.filled = 0
	a.momentary.Reset()
	a.shortTerm.Reset()
	a.gate.Reset()
	a.gateEnergy = 0
	a.gateSeconds = 0
	a.truePeak = 0
}

func peakDB(peak float64) float64 {
	if peak <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(peak)
}
