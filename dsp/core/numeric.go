package core

import "math"

const defaultEpsilon = 1e-12

// ReferenceLUFS is the calibration anchor for output gain: a profile at
// -14 LUFS maps to unity master gain.
const ReferenceLUFS = -14.0

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// Keeps recursive filter and envelope state out of the denormal range.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// GainForLUFS returns the linear master gain that moves a signal calibrated
// at ReferenceLUFS to the given target loudness. Strictly increasing in
// targetLUFS: louder targets need more gain.
func GainForLUFS(targetLUFS float64) float64 {
	return DBToLinear(targetLUFS - ReferenceLUFS)
}

// OnePoleCoeff returns the feedback coefficient of a one-pole smoother with
// the given time constant. The smoother covers ~63% of a step after
// timeConstantMs milliseconds.
func OnePoleCoeff(timeConstantMs, sampleRate float64) float64 {
	if timeConstantMs <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1.0 / (timeConstantMs * 0.001 * sampleRate))
}
