package output

import (
	"math"

	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/dsp/stage/dynamics"
)

const (
	// lookaheadMs is the delay the accelerated binding trades for
	// overshoot-free limiting.
	lookaheadMs = 2.5

	tpAttackMs  = 0.5
	tpReleaseMs = 50.0
)

// Brick-wall fallback: fast, hard-knee, high ratio. Overshoots by fractions
// of a dB on inter-sample peaks, which the compliance margin tolerates.
var brickwallParams = dynamics.Params{
	ThresholdDB: -1,
	Ratio:       20,
	AttackMs:    1,
	ReleaseMs:   50,
	KneeDB:      0,
}

// TruePeakLimiter enforces the delivery ceiling as a true-peak (inter-sample
// aware) level. The accelerated binding delays the program by a short
// lookahead and computes the required gain from oversampled peaks, so the
// ceiling holds even between samples; the node-graph fallback is a fast
// brick-wall compressor on sample peaks.
type TruePeakLimiter struct {
	ceiling *core.Smoothed

	// accelerated path
	delayL, delayR        []float64
	writeIdx              int
	gainEnv               float64
	attackCoeff, relCoeff float64
	prevL, prevR          float64

	// fallback path
	comp *dynamics.Comp

	binding stage.Binding
}

// NewTruePeakLimiter creates a limiter with the given initial ceiling in
// dBFS true peak.
func NewTruePeakLimiter(sampleRate, ceilingDB float64) (*TruePeakLimiter, error) {
	t := &TruePeakLimiter{
		ceiling: core.NewSmoothed(core.DBToLinear(ceilingDB), 2, sampleRate),
		gainEnv: 1,
	}

	if _, err := accel.Acquire(); err == nil {
		t.binding = stage.BindingAccelerated
		n := int(math.Round(lookaheadMs * 0.001 * sampleRate))
		if n < 1 {
			n = 1
		}
		t.delayL = make([]float64, n)
		t.delayR = make([]float64, n)
		t.attackCoeff = 1 - core.OnePoleCoeff(tpAttackMs, sampleRate)
		t.relCoeff = core.OnePoleCoeff(tpReleaseMs, sampleRate)
		return t, nil
	}

	p := brickwallParams
	p.ThresholdDB = ceilingDB
	comp, err := dynamics.NewComp(sampleRate, p)
	if err != nil {
		return nil, err
	}
	t.comp = comp
	t.binding = stage.BindingNodeGraph
	return t, nil
}

// SetCeilingDB ramps the ceiling toward the new dBFS target over ~2 ms. The
// fallback compressor threshold follows the ramp per block.
func (t *TruePeakLimiter) SetCeilingDB(db float64) {
	t.ceiling.SetTarget(core.DBToLinear(core.Clamp(db, -24, 0)))
}

// CeilingDB returns the current ceiling target in dBFS.
func (t *TruePeakLimiter) CeilingDB() float64 { return core.LinearToDB(t.ceiling.Target()) }

func (t *TruePeakLimiter) Binding() stage.Binding { return t.binding }

// Latency returns the stage delay in samples. The fallback path is zero
// latency.
func (t *TruePeakLimiter) Latency() int { return len(t.delayL) }

func (t *TruePeakLimiter) ProcessBlock(left, right []float64) {
	if t.binding == stage.BindingNodeGraph {
		t.processFallback(left, right)
		return
	}
	t.processLookahead(left, right)
}

func (t *TruePeakLimiter) processFallback(left, right []float64) {
	ceiling := t.ceiling.TickBlock(len(left))
	if db := core.LinearToDB(ceiling); math.Abs(db-t.comp.Params().ThresholdDB) > 1e-9 {
		// SetThreshold only fails on non-finite input, which the clamp in
		// SetCeilingDB rules out.
		_ = t.comp.SetThreshold(db)
	}
	for i := range left {
		gain := t.comp.Advance(math.Max(math.Abs(left[i]), math.Abs(right[i])))
		left[i] *= gain
		right[i] *= gain
	}
}

func (t *TruePeakLimiter) processLookahead(left, right []float64) {
	n := len(t.delayL)
	for i := range left {
		ceiling := t.ceiling.Next()

		inL, inR := left[i], right[i]

		// Inter-sample peak estimate between the previous and current
		// input sample, matching the meter's reconstruction.
		peak := interPeak(t.prevL, inL)
		if p := interPeak(t.prevR, inR); p > peak {
			peak = p
		}
		t.prevL, t.prevR = inL, inR

		target := 1.0
		if peak > ceiling {
			target = ceiling / peak
		}

		// Attack runs faster than the lookahead so the reduction is in
		// place when the peak leaves the delay line.
		if target < t.gainEnv {
			t.gainEnv += (target - t.gainEnv) * t.attackCoeff
		} else {
			t.gainEnv = target + (t.gainEnv-target)*t.relCoeff
		}

		outL := t.delayL[t.writeIdx]
		outR := t.delayR[t.writeIdx]
		t.delayL[t.writeIdx] = inL
		t.delayR[t.writeIdx] = inR
		t.writeIdx++
		if t.writeIdx >= n {
			t.writeIdx = 0
		}

		outL *= t.gainEnv
		outR *= t.gainEnv

		// Hard safety clip at the ceiling; the smoothed gain handles the
		// audible work, this only catches residual overshoot.
		left[i] = core.Clamp(outL, -ceiling, ceiling)
		right[i] = core.Clamp(outR, -ceiling, ceiling)
	}
}

// interPeak returns the largest absolute value among b and the linear
// interpolation points at {0.25, 0.5, 0.75} between a and b.
func interPeak(a, b float64) float64 {
	peak := math.Abs(b)
	for _, frac := range [3]float64{0.25, 0.5, 0.75} {
		if v := math.Abs(a + (b-a)*frac); v > peak {
			peak = v
		}
	}
	return peak
}

func (t *TruePeakLimiter) Reset() {
	t.ceiling.Jump(t.ceiling.Target())
	t.gainEnv = 1
	t.writeIdx = 0
	t.prevL, t.prevR = 0, 0
	for i := range t.delayL {
		t.delayL[i] = 0
		t.delayR[i] = 0
	}
	if t.comp != nil {
		t.comp.Reset()
	}
}
