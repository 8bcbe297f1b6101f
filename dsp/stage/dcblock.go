package stage

import "github.com/cwbudde/algo-mastering/dsp/core"

// DCBlock removes the DC component with a first-order highpass,
// y[n] = x[n] - x[n-1] + r*y[n-1]. The pole radius is derived from the
// sample rate so the corner stays near 5 Hz regardless of rate.
type DCBlock struct {
	r        float64
	x1L, y1L float64
	x1R, y1R float64
}

// NewDCBlock creates a DC blocker for the given sample rate.
func NewDCBlock(sampleRate float64) *DCBlock {
	// Pole placement for a ~5 Hz corner: r = 1 - 2*pi*fc/fs.
	r := 1.0 - 2.0*3.141592653589793*5.0/sampleRate
	if r < 0.9 {
		r = 0.9
	}
	return &DCBlock{r: r}
}

func (d *DCBlock) ProcessBlock(left, right []float64) {
	r := d.r
	x1L, y1L := d.x1L, d.y1L
	x1R, y1R := d.x1R, d.y1R
	for i := range left {
		xl := left[i]
		yl := xl - x1L + r*y1L
		x1L, y1L = xl, core.FlushDenormals(yl)
		left[i] = y1L

		xr := right[i]
		yr := xr - x1R + r*y1R
		x1R, y1R = xr, core.FlushDenormals(yr)
		right[i] = y1R
	}
	d.x1L, d.y1L = x1L, y1L
	d.x1R, d.y1R = x1R, y1R
}

func (d *DCBlock) Reset() {
	d.x1L, d.y1L = 0, 0
	d.x1R, d.y1R = 0, 0
}
