package output

import (
	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/core"
	"github.com/cwbudde/algo-mastering/dsp/stage"
)

// DefaultBitDepth is the delivery word length the dither targets.
const DefaultBitDepth = 16

// Dither applies TPDF dither with first-order error-feedback noise shaping
// at the target word length. The node-graph fallback is a unity
// pass-through: dithering is cosmetic, so losing it is an acceptable
// degradation rather than a failure.
type Dither struct {
	bitDepth int
	lsb      float64
	scale    float64

	rng        uint64
	errL, errR float64
	shaping    bool

	binding stage.Binding
}

// NewDither creates a dither stage at the default 16-bit depth with noise
// shaping enabled.
func NewDither() *Dither {
	d := &Dither{rng: 0x853c49e6748fea9b, shaping: true}
	d.SetBitDepth(DefaultBitDepth)
	if _, err := accel.Acquire(); err == nil {
		d.binding = stage.BindingAccelerated
	}
	return d
}

// SetBitDepth sets the target word length, clamped to [8, 32].
func (d *Dither) SetBitDepth(bits int) {
	if bits < 8 {
		bits = 8
	}
	if bits > 32 {
		bits = 32
	}
	d.bitDepth = bits
	d.scale = float64(uint64(1)<<(bits-1)) - 1
	d.lsb = 1.0 / float64(uint64(1)<<(bits-1))
}

// BitDepth returns the target word length.
func (d *Dither) BitDepth() int { return d.bitDepth }

// SetNoiseShaping toggles first-order error feedback.
func (d *Dither) SetNoiseShaping(enable bool) { d.shaping = enable }

func (d *Dither) Binding() stage.Binding { return d.binding }

// next returns a uniform value in [-1, 1] from an xorshift64 generator.
func (d *Dither) next() float64 {
	x := d.rng
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	d.rng = x
	return float64(int64(x)) / float64(int64(1<<63-1))
}

// tpdf returns triangular-PDF noise in [-1, 1].
func (d *Dither) tpdf() float64 {
	return (d.next() + d.next()) * 0.5
}

func (d *Dither) quantize(x float64) float64 {
	scaled := x * d.scale
	if scaled >= 0 {
		scaled += 0.5
	} else {
		scaled -= 0.5
	}
	return float64(int64(scaled)) / d.scale
}

func (d *Dither) ProcessBlock(left, right []float64) {
	if d.binding != stage.BindingAccelerated {
		return
	}
	for i := range left {
		feedL, feedR := 0.0, 0.0
		if d.shaping {
			feedL = d.errL * 0.5
			feedR = d.errR * 0.5
		}

		inL := left[i] + d.tpdf()*d.lsb - feedL
		inR := right[i] + d.tpdf()*d.lsb - feedR

		outL := d.quantize(inL)
		outR := d.quantize(inR)

		if d.shaping {
			d.errL = outL - inL
			d.errR = outR - inR
		}

		left[i] = core.Clamp(outL, -1, 1)
		right[i] = core.Clamp(outR, -1, 1)
	}
}

func (d *Dither) Reset() {
	d.errL, d.errR = 0, 0
}
