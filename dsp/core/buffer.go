package core

// EnsureLen returns a slice with the requested length, reusing buf capacity
// if possible. Render-path callers size buffers up front so this never
// allocates per block.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Scale multiplies buf in place by gain.
func Scale(buf []float64, gain float64) {
	for i := range buf {
		buf[i] *= gain
	}
}

// MixInto adds gain*src into dst. Both slices must have the same length.
func MixInto(dst, src []float64, gain float64) {
	_ = dst[len(src)-1]
	for i, v := range src {
		dst[i] += v * gain
	}
}

// MaxAbs returns the largest absolute value in buf, 0 for an empty slice.
func MaxAbs(buf []float64) float64 {
	peak := 0.0

	for _, v := range buf {
		if v < 0 {
			v = -v
		}

		if v > peak {
			peak = v
		}
	}

	return peak
}
