package accel

import "github.com/cwbudde/algo-vecmath/cpu"

// Kernels is the block-operation contract shared by every accelerated stage
// binding. All functions are allocation-free and safe on the render thread.
type Kernels struct {
	// Gain multiplies buf in place.
	Gain func(buf []float64, gain float64)
	// MaxAbs returns the largest absolute sample value.
	MaxAbs func(buf []float64) float64
	// Mix adds gain*src into dst; slices must have equal length.
	Mix func(dst, src []float64, gain float64)
	// OversampledPeak returns the largest absolute value across samples and
	// piecewise-linear interpolation points at fractional offsets
	// {0.25, 0.5, 0.75} between consecutive samples, seeded with prev (the
	// last sample of the previous block) for the leading boundary.
	OversampledPeak func(buf []float64, prev float64) float64
}

func registerBuiltins(r *Registry) {
	r.Register(Entry{
		Name:      "unrolled",
		SIMDLevel: cpu.SIMDNone,
		Priority:  0,
		Kernels: &Kernels{
			Gain:            gainUnrolled,
			MaxAbs:          maxAbsUnrolled,
			Mix:             mixUnrolled,
			OversampledPeak: oversampledPeak,
		},
	})
}

func gainUnrolled(buf []float64, gain float64) {
	n := len(buf)

	i := 0
	for ; i+3 < n; i += 4 {
		buf[i] *= gain
		buf[i+1] *= gain
		buf[i+2] *= gain
		buf[i+3] *= gain
	}

	for ; i < n; i++ {
		buf[i] *= gain
	}
}

func maxAbsUnrolled(buf []float64) float64 {
	var p0, p1 float64

	n := len(buf)

	i := 0
	for ; i+1 < n; i += 2 {
		a := buf[i]
		if a < 0 {
			a = -a
		}

		if a > p0 {
			p0 = a
		}

		b := buf[i+1]
		if b < 0 {
			b = -b
		}

		if b > p1 {
			p1 = b
		}
	}

	if i < n {
		a := buf[i]
		if a < 0 {
			a = -a
		}

		if a > p0 {
			p0 = a
		}
	}

	if p1 > p0 {
		return p1
	}

	return p0
}

func mixUnrolled(dst, src []float64, gain float64) {
	_ = dst[len(src)-1]

	n := len(src)

	i := 0
	for ; i+3 < n; i += 4 {
		dst[i] += src[i] * gain
		dst[i+1] += src[i+1] * gain
		dst[i+2] += src[i+2] * gain
		dst[i+3] += src[i+3] * gain
	}

	for ; i < n; i++ {
		dst[i] += src[i] * gain
	}
}

// oversampledPeak approximates 4x-oversampled true peak with piecewise-linear
// reconstruction between neighbors. For a linear interpolant the interior
// points never exceed the segment endpoints, but the fixed offsets are
// evaluated anyway to reproduce the reference measurement exactly.
func oversampledPeak(buf []float64, prev float64) float64 {
	var peak float64

	last := prev

	for _, s := range buf {
		a := s
		if a < 0 {
			a = -a
		}

		if a > peak {
			peak = a
		}

		for _, frac := range [3]float64{0.25, 0.5, 0.75} {
			v := last + (s-last)*frac
			if v < 0 {
				v = -v
			}

			if v > peak {
				peak = v
			}
		}

		last = s
	}

	return peak
}
