// Package chain assembles the fixed mastering topology and exposes its
// control surface. The stage order is DC-block, the four pillar stages,
// mid/side, multiband, glue, saturator, a compliance tap feeding the loudness
// meter, soft limiter, true-peak limiter, dither, panner, and master gain.
// The order is fixed at build time: each stage assumes the previous one has
// already conditioned the signal, and the limiting tail in particular must
// not be reordered.
package chain

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/stage"
	"github.com/cwbudde/algo-mastering/dsp/stage/dynamics"
	"github.com/cwbudde/algo-mastering/dsp/stage/output"
	"github.com/cwbudde/algo-mastering/dsp/stage/pillars"
	"github.com/cwbudde/algo-mastering/measure/loudness"
	"github.com/cwbudde/algo-mastering/metrics"
	"github.com/cwbudde/algo-mastering/profile"
)

// ErrInvalidSampleRate is the only error Build returns. Stage construction
// failures never propagate; the failing stage is replaced so the signal path
// stays connected.
var ErrInvalidSampleRate = errors.New("chain: sample rate must be positive and finite")

// metricsPublishRateHz bounds how often the render path pushes a meter
// snapshot into the mailbox.
const metricsPublishRateHz = 60

// BypassGroup selects one switchable section of the chain. The DC block,
// compliance tap, panner, and master gain are structural and cannot be
// bypassed.
type BypassGroup int

const (
	// GroupPillars covers Floor, Lattice, Weave, and Curve.
	GroupPillars BypassGroup = iota
	// GroupDynamics covers mid/side, multiband, and the glue compressor.
	GroupDynamics
	// GroupColor covers the saturator.
	GroupColor
	// GroupLimiting covers the soft limiter, true-peak limiter, and dither.
	GroupLimiting

	numGroups
)

func (g BypassGroup) String() string {
	switch g {
	case GroupPillars:
		return "pillars"
	case GroupDynamics:
		return "dynamics"
	case GroupColor:
		return "color"
	case GroupLimiting:
		return "limiting"
	default:
		return "unknown"
	}
}

const groupNone BypassGroup = -1

type element struct {
	name  string
	group BypassGroup
	st    stage.Stage
}

// StageBinding reports which execution path one stage resolved to.
type StageBinding struct {
	Name    string
	Binding stage.Binding
}

type config struct {
	logger  *slog.Logger
	mailbox *metrics.Mailbox
}

// Option configures Build.
type Option func(*config)

// WithLogger routes construction and fallback notices to the given logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMailbox wires a metrics mailbox; the render path publishes meter
// snapshots into it at a bounded rate.
func WithMailbox(mb *metrics.Mailbox) Option {
	return func(c *config) { c.mailbox = mb }
}

// MasterChain is one session's owned mastering topology. ProcessBlock runs on
// the render thread; every other method is a control-thread entry point and
// is safe to call while audio renders. Continuous parameters cross over
// through atomic smoother targets; profile changes and meter resets are
// handed to the render thread and applied at the next block boundary; meter
// readings come back as published snapshots, never by touching render-owned
// state.
type MasterChain struct {
	sampleRate float64
	logger     *slog.Logger

	order  []element
	bypass [numGroups]atomic.Bool

	floor     *pillars.Floor
	lattice   *pillars.Lattice
	weave     *pillars.Weave
	curve     *pillars.Curve
	glue      *dynamics.Glue
	saturator *dynamics.Saturator
	soft      *output.SoftLimiter
	truePeak  *output.TruePeakLimiter
	dither    *output.Dither
	panner    *stage.Panner
	gain      *stage.MasterGain

	meter   *loudness.Meter
	mailbox *metrics.Mailbox

	// Control to render handoff, consumed at block boundaries.
	pendingProfile atomic.Pointer[profile.Profile]
	stateReset     atomic.Bool
	meterReset     atomic.Bool

	// Render to control: the last snapshot the render path assembled.
	lastMetrics atomic.Pointer[loudness.Metrics]

	// Render-thread only.
	sincePublish int

	mu       sync.Mutex
	profile  profile.Profile
	disposed atomic.Bool
}

// Build constructs the chain for one session at the given sample rate and
// applies the starting profile. It fails only for an invalid sample rate: a
// stage whose constructor errors is replaced by a pass-through stand-in and
// the failure is logged, so the topology is always fully connected.
func Build(sampleRate float64, p profile.Profile, opts ...Option) (*MasterChain, error) {
	if sampleRate <= 0 || math.IsInf(sampleRate, 0) || math.IsNaN(sampleRate) {
		return nil, ErrInvalidSampleRate
	}

	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &MasterChain{
		sampleRate: sampleRate,
		logger:     cfg.logger,
		mailbox:    cfg.mailbox,
		meter:      loudness.NewMeter(loudness.WithSampleRate(sampleRate)),
	}

	c.floor = pillars.NewFloor(sampleRate, p.Floor)
	c.lattice = pillars.NewLattice(sampleRate, p.Lattice)
	c.weave = pillars.NewWeave(sampleRate, p.Weave)
	c.curve = pillars.NewCurve(sampleRate, p.Curve)
	c.saturator = dynamics.NewSaturator(sampleRate, p.Drive)
	c.dither = output.NewDither()
	c.panner = stage.NewPanner(sampleRate)
	c.gain = stage.NewMasterGain(sampleRate)

	midside := c.fallible("mid-side", func() (stage.Stage, error) {
		return dynamics.NewMidSide(sampleRate)
	})

	multiband := c.fallible("multiband", func() (stage.Stage, error) {
		return dynamics.NewMultiband(sampleRate)
	})

	glueStage := c.fallible("glue", func() (stage.Stage, error) {
		g, err := dynamics.NewGlue(sampleRate)
		if err != nil {
			return nil, err
		}
		c.glue = g

		return g, nil
	})

	softStage := c.fallible("soft-limiter", func() (stage.Stage, error) {
		s, err := output.NewSoftLimiter(sampleRate)
		if err != nil {
			return nil, err
		}
		c.soft = s

		return s, nil
	})

	tpStage := c.fallible("true-peak-limiter", func() (stage.Stage, error) {
		tp, err := output.NewTruePeakLimiter(sampleRate, p.TruePeakCeilingDB)
		if err != nil {
			return nil, err
		}
		c.truePeak = tp

		return tp, nil
	})

	tap := stage.NewTap(func(left, right []float64) {
		c.meter.ProcessBlock(left, right)
	})

	c.order = []element{
		{"dc-block", groupNone, stage.NewDCBlock(sampleRate)},
		{"floor", GroupPillars, c.floor},
		{"lattice", GroupPillars, c.lattice},
		{"weave", GroupPillars, c.weave},
		{"curve", GroupPillars, c.curve},
		{"mid-side", GroupDynamics, midside},
		{"multiband", GroupDynamics, multiband},
		{"glue", GroupDynamics, glueStage},
		{"saturator", GroupColor, c.saturator},
		{"compliance-tap", groupNone, tap},
		{"soft-limiter", GroupLimiting, softStage},
		{"true-peak-limiter", GroupLimiting, tpStage},
		{"dither", GroupLimiting, c.dither},
		{"panner", groupNone, c.panner},
		{"master-gain", groupNone, c.gain},
	}

	for _, el := range c.order {
		if stage.BindingOf(el.st) == stage.BindingNodeGraph {
			c.logger.Debug("stage using node-graph binding", "stage", el.name)
		}
	}

	// No render thread exists yet, so the starting profile applies in place.
	c.applyProfile(p)
	c.profile = p
	c.storeSilentMetrics()

	return c, nil
}

func (c *MasterChain) storeSilentMetrics() {
	inf := math.Inf(-1)
	c.lastMetrics.Store(&loudness.Metrics{
		MomentaryLUFS:  inf,
		ShortTermLUFS:  inf,
		IntegratedLUFS: inf,
		TruePeakDB:     inf,
	})
}

// fallible runs one stage constructor, substituting a pass-through on error.
func (c *MasterChain) fallible(name string, build func() (stage.Stage, error)) stage.Stage {
	st, err := build()
	if err != nil {
		c.logger.Debug("stage construction failed, using passthrough",
			"stage", name, "err", err)

		return stage.Passthrough{}
	}

	return st
}

// ProcessBlock runs one stereo block through the chain in place. It never
// blocks and never panics outward; bypassed groups are skipped, everything
// else processes in the fixed order. Pending control handoffs (profile
// change, resets) apply before the block is rendered.
func (c *MasterChain) ProcessBlock(left, right []float64) {
	if c.disposed.Load() || len(left) == 0 {
		return
	}

	c.applyPending()

	for i := range c.order {
		el := &c.order[i]
		if el.group != groupNone && c.bypass[el.group].Load() {
			continue
		}

		el.st.ProcessBlock(left, right)
	}

	c.publish(len(left))
}

// applyPending consumes control-thread handoffs on the render thread, where
// touching stage and meter state is safe.
func (c *MasterChain) applyPending() {
	if c.stateReset.CompareAndSwap(true, false) {
		for i := range c.order {
			c.order[i].st.Reset()
		}

		c.meter.Reset()
		c.meterReset.Store(false)
	} else if c.meterReset.CompareAndSwap(true, false) {
		c.meter.Reset()
	}

	if p := c.pendingProfile.Swap(nil); p != nil {
		c.applyProfile(*p)
	}
}

// publish assembles a meter snapshot at most at the publish rate, keeping
// the cost off most blocks, and hands it to the control side: the latest
// snapshot is always readable through Metrics, and a wired mailbox gets a
// copy for the subscription schedule.
func (c *MasterChain) publish(samples int) {
	c.sincePublish += samples
	if float64(c.sincePublish) < c.sampleRate/metricsPublishRateHz {
		return
	}

	c.sincePublish = 0

	snap := c.meter.Snapshot()
	c.lastMetrics.Store(&snap)

	if c.mailbox != nil {
		c.mailbox.Publish(snap)
	}
}

// SetProfile retargets every stage to the profile's settings, with no
// topology rebuild. The settings land at the next block boundary and ramp in
// from there. Applying the same profile twice leaves every parameter
// identical to applying it once.
func (c *MasterChain) SetProfile(p profile.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed.Load() {
		return
	}

	c.profile = p
	c.pendingProfile.Store(&p)
}

// applyProfile writes the profile into the stages. Render thread only, apart
// from the initial application inside Build.
func (c *MasterChain) applyProfile(p profile.Profile) {
	c.floor.Apply(p.Floor)
	c.lattice.Apply(p.Lattice)
	c.weave.Apply(p.Weave)
	c.curve.Apply(p.Curve)

	if c.glue != nil {
		threshold, ratio := -18.0, 2.2
		if p.TargetLUFS >= -10 {
			threshold, ratio = -14.0, 2.5
		}

		if err := c.glue.Calibrate(threshold, ratio, p.Glue.ReleaseMs, p.Glue.Mix); err != nil {
			c.logger.Debug("glue recalibration rejected", "err", err)
		}
	}

	c.saturator.Apply(p.Drive)
	c.saturator.SetDrive(1 + (-14-core.Clamp(p.TargetLUFS, -14, -8))/20)

	if c.soft != nil {
		c.soft.SetCeilingDB(p.SoftCeilingDB)
	}

	if c.truePeak != nil {
		c.truePeak.SetCeilingDB(p.TruePeakCeilingDB)
	}

	c.gain.SetCalibration(GainForLUFS(p.TargetLUFS))
}

// Profile returns the profile most recently applied.
func (c *MasterChain) Profile() profile.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.profile
}

// SetOutputCeiling moves the true-peak limiter ceiling; the change ramps in
// over about 2ms.
func (c *MasterChain) SetOutputCeiling(db float64) {
	if c.truePeak != nil {
		c.truePeak.SetCeilingDB(db)
	}
}

// SetMasterTrim applies a dB trim multiplicative over the calibrated master
// gain, ramping over about 10ms.
func (c *MasterChain) SetMasterTrim(db float64) {
	c.gain.SetTrimDB(db)
}

// SetPan moves the output panner position in [-1, 1].
func (c *MasterChain) SetPan(pos float64) {
	c.panner.SetPosition(pos)
}

// SetBypass switches one group in or out of the signal path, effective on the
// next block.
func (c *MasterChain) SetBypass(g BypassGroup, bypassed bool) {
	if g < 0 || g >= numGroups {
		return
	}

	c.bypass[g].Store(bypassed)
}

// Bypassed reports whether a group is currently out of the path.
func (c *MasterChain) Bypassed(g BypassGroup) bool {
	if g < 0 || g >= numGroups {
		return false
	}

	return c.bypass[g].Load()
}

// GlueGainReductionDB reports the bus compressor's current gain reduction,
// zero when the glue stage fell back to a pass-through.
func (c *MasterChain) GlueGainReductionDB() float64 {
	if c.glue == nil {
		return 0
	}

	return c.glue.GainReductionDB()
}

// Metrics returns the most recent snapshot the render path published, at
// most one publish interval old. The meter itself stays render-owned.
func (c *MasterChain) Metrics() loudness.Metrics {
	return *c.lastMetrics.Load()
}

// ResetMeter clears the meter's windows, gating history, and peak hold
// without touching audio state. The published snapshot drops to silence
// immediately; the meter itself clears at the next block boundary.
func (c *MasterChain) ResetMeter() {
	c.meterReset.Store(true)
	c.storeSilentMetrics()
}

// Latency reports the chain's total delay in samples, from the true-peak
// limiter's lookahead.
func (c *MasterChain) Latency() int {
	if c.truePeak == nil {
		return 0
	}

	return c.truePeak.Latency()
}

// Bindings reports each stage's resolved execution path in chain order.
func (c *MasterChain) Bindings() []StageBinding {
	out := make([]StageBinding, len(c.order))
	for i, el := range c.order {
		out[i] = StageBinding{Name: el.name, Binding: stage.BindingOf(el.st)}
	}

	return out
}

// Reset clears every stage's audio state and the meter at the next block
// boundary.
func (c *MasterChain) Reset() {
	c.stateReset.Store(true)
	c.storeSilentMetrics()
}

// Dispose detaches the chain: ProcessBlock becomes a no-op and every control
// call after it is inert. It is idempotent. Stage state is left in place for
// the collector rather than torn down, so a render call racing the disposal
// finishes its block on intact stages.
func (c *MasterChain) Dispose() {
	if !c.disposed.CompareAndSwap(false, true) {
		return
	}

	c.pendingProfile.Store(nil)
	c.storeSilentMetrics()
}

// Disposed reports whether Dispose has run.
func (c *MasterChain) Disposed() bool {
	return c.disposed.Load()
}

// GainForLUFS converts a target loudness to the calibrated master gain,
// unity at the -14 LUFS reference. Strictly increasing in the target.
func GainForLUFS(targetLUFS float64) float64 {
	return core.GainForLUFS(targetLUFS)
}

// EnsureCompliance measures a fully rendered buffer against a profile and
// returns the compliance report's reasons as an error. This is the only
// entry point that converts compliance issues into an error; the live path
// reports them as data.
func EnsureCompliance(left, right []float64, sampleRate float64, p profile.Profile) error {
	m, err := loudness.MeasureBuffer(left, right, sampleRate)
	if err != nil {
		return err
	}

	return loudness.Validate(m, p).Err()
}
