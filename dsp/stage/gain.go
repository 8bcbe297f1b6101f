package stage

import (
	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/core"
)

// MasterGain is the final make-up stage of the chain. It multiplies two
// smoothed gains: the profile-derived calibration gain and a user trim. Both
// are kept separate so a profile change never clobbers the user's trim.
type MasterGain struct {
	calib   *core.Smoothed
	trim    *core.Smoothed
	kernels *accel.Kernels
	binding Binding
}

// NewMasterGain creates a unity master gain stage.
func NewMasterGain(sampleRate float64) *MasterGain {
	g := &MasterGain{
		calib: core.NewSmoothed(1, 10, sampleRate),
		trim:  core.NewSmoothed(1, 10, sampleRate),
	}
	if k, err := accel.Acquire(); err == nil {
		g.kernels = k
		g.binding = BindingAccelerated
	}
	return g
}

// SetCalibration sets the profile-derived linear gain target.
func (g *MasterGain) SetCalibration(gain float64) { g.calib.SetTarget(gain) }

// SetTrimDB sets the user trim in decibels, clamped to [-24, +24].
func (g *MasterGain) SetTrimDB(db float64) {
	g.trim.SetTarget(core.DBToLinear(core.Clamp(db, -24, 24)))
}

// TrimDB returns the current trim target in decibels.
func (g *MasterGain) TrimDB() float64 { return core.LinearToDB(g.trim.Target()) }

func (g *MasterGain) Binding() Binding { return g.binding }

func (g *MasterGain) ProcessBlock(left, right []float64) {
	if g.binding == BindingAccelerated && g.calib.Settled(1e-9) && g.trim.Settled(1e-9) {
		gain := g.calib.Value() * g.trim.Value()
		g.kernels.Gain(left, gain)
		g.kernels.Gain(right, gain)
		return
	}
	for i := range left {
		gain := g.calib.Next() * g.trim.Next()
		left[i] *= gain
		right[i] *= gain
	}
}

func (g *MasterGain) Reset() {
	g.calib.Jump(g.calib.Target())
	g.trim.Jump(g.trim.Target())
}
