// Package dynamics implements the level-dependent stages of the mastering
// chain: mid/side conditioning, multiband dynamics, the glue compressor and
// the saturator. All compressors share one soft-knee gain computer working in
// the log2 domain, so threshold, ratio and knee behave identically across
// stages.
package dynamics

import (
	"fmt"
	"math"
)

// log2Of10Div20 converts decibels to the log2 domain: log2(10)/20.
const log2Of10Div20 = 0.166096404744368

const (
	minRatio      = 1.0
	maxRatio      = 100.0
	minTimeMs     = 0.01
	maxTimeMs     = 5000.0
	maxKneeDB     = 24.0
	minSampleRate = 1.0
)

// Params configures a compressor core.
type Params struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	KneeDB      float64
}

// Comp is a feedforward peak-detecting compressor core. It maps a detector
// level to a gain through a quadratic soft knee computed in the log2 domain.
// Comp is not a Stage on its own; the stages in this package and the limiters
// feed it their own detector source.
type Comp struct {
	sampleRate float64
	p          Params

	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	compression      float64

	attackCoeff  float64
	releaseCoeff float64

	envelope float64
	lastGain float64
}

// NewComp creates a compressor core, validating every parameter.
func NewComp(sampleRate float64, p Params) (*Comp, error) {
	if sampleRate < minSampleRate || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("dynamics: invalid sample rate %f", sampleRate)
	}
	c := &Comp{sampleRate: sampleRate, lastGain: 1}
	if err := c.SetParams(p); err != nil {
		return nil, err
	}
	return c, nil
}

// SetParams replaces all parameters at once. On error the previous
// configuration is left untouched.
func (c *Comp) SetParams(p Params) error {
	switch {
	case p.Ratio < minRatio || p.Ratio > maxRatio:
		return fmt.Errorf("dynamics: ratio out of range: %f", p.Ratio)
	case p.AttackMs < minTimeMs || p.AttackMs > maxTimeMs:
		return fmt.Errorf("dynamics: attack out of range: %f", p.AttackMs)
	case p.ReleaseMs < minTimeMs || p.ReleaseMs > maxTimeMs:
		return fmt.Errorf("dynamics: release out of range: %f", p.ReleaseMs)
	case p.KneeDB < 0 || p.KneeDB > maxKneeDB:
		return fmt.Errorf("dynamics: knee out of range: %f", p.KneeDB)
	case math.IsNaN(p.ThresholdDB) || math.IsInf(p.ThresholdDB, 0):
		return fmt.Errorf("dynamics: threshold must be finite: %f", p.ThresholdDB)
	}

	c.p = p
	c.thresholdLog2 = p.ThresholdDB * log2Of10Div20
	c.kneeWidthLog2 = p.KneeDB * log2Of10Div20
	if p.KneeDB > 0 {
		c.invKneeWidthLog2 = 1.0 / c.kneeWidthLog2
	} else {
		c.invKneeWidthLog2 = 0
	}
	c.compression = 1.0 - 1.0/p.Ratio
	c.attackCoeff = 1.0 - math.Exp(-math.Ln2/(p.AttackMs*0.001*c.sampleRate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (p.ReleaseMs * 0.001 * c.sampleRate))

	return nil
}

// SetThreshold adjusts only the threshold.
func (c *Comp) SetThreshold(dB float64) error {
	p := c.p
	p.ThresholdDB = dB
	return c.SetParams(p)
}

// Params returns the current configuration.
func (c *Comp) Params() Params { return c.p }

// Advance feeds one detector sample through the envelope follower and returns
// the gain to apply. level is an absolute sample value (or any linear level).
func (c *Comp) Advance(level float64) float64 {
	if level > c.envelope {
		c.envelope += (level - c.envelope) * c.attackCoeff
	} else {
		c.envelope = level + (c.envelope-level)*c.releaseCoeff
	}
	c.lastGain = c.GainForLevel(c.envelope)
	return c.lastGain
}

// GainForLevel maps a detector level to a gain through the soft knee without
// touching the envelope.
func (c *Comp) GainForLevel(level float64) float64 {
	if level <= 0 {
		return 1.0
	}

	overshoot := mathLog2(level) - c.thresholdLog2

	if c.p.KneeDB <= 0 {
		if overshoot <= 0 {
			return 1.0
		}
		return mathPower2(-overshoot * c.compression)
	}

	halfWidth := c.kneeWidthLog2 * 0.5
	if overshoot < -halfWidth {
		return 1.0
	}

	effective := overshoot
	if overshoot <= halfWidth {
		scratch := overshoot + halfWidth
		effective = scratch * scratch * 0.5 * c.invKneeWidthLog2
	}

	return mathPower2(-effective * c.compression)
}

// GainReductionDB reports the reduction applied by the last Advance call, in
// positive decibels.
func (c *Comp) GainReductionDB() float64 {
	if c.lastGain >= 1 {
		return 0
	}
	return -20 * math.Log10(c.lastGain)
}

// Reset clears envelope state.
func (c *Comp) Reset() {
	c.envelope = 0
	c.lastGain = 1
}
