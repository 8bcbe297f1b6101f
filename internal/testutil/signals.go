// Package testutil provides deterministic test signals and tolerance
// assertions shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine generates a deterministic sine wave.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// StereoSine generates an identical sine on both channels.
func StereoSine(freqHz, sampleRate, amplitude float64, length int) (left, right []float64) {
	left = Sine(freqHz, sampleRate, amplitude, length)
	right = append([]float64(nil), left...)
	return left, right
}

// AMSine generates a sine whose amplitude swells at modHz between depth and
// full scale, useful where momentary and short-term loudness must separate.
func AMSine(freqHz, modHz, sampleRate, amplitude, depth float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	modStep := 2 * math.Pi * modHz / sampleRate
	for i := range out {
		env := depth + (1-depth)*math.Abs(math.Sin(modStep*float64(i)))
		out[i] = amplitude * env * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates white noise with a fixed seed for reproducibility.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}
