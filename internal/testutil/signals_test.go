package testutil

import (
	"math"
	"testing"
)

func TestSinePeriodAndAmplitude(t *testing.T) {
	const (
		sr   = 48000.0
		freq = 1000.0
	)

	s := Sine(freq, sr, 0.5, 48000)

	var peak float64
	for _, v := range s {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if math.Abs(peak-0.5) > 1e-3 {
		t.Fatalf("peak = %v, want 0.5", peak)
	}

	// One full period later the waveform repeats.
	period := int(sr / freq)
	if d := math.Abs(s[0] - s[period]); d > 1e-9 {
		t.Fatalf("signal not periodic: diff %v", d)
	}
}

func TestSineReproducible(t *testing.T) {
	a := Sine(440, 48000, 1, 256)
	b := Sine(440, 48000, 1, 256)

	RequireSliceNearlyEqual(t, a, b, 0)
}

func TestStereoSineChannelsMatch(t *testing.T) {
	l, r := StereoSine(1000, 48000, 0.25, 128)

	RequireSliceNearlyEqual(t, l, r, 0)

	r[0] = 99
	if l[0] == 99 {
		t.Fatal("channels share backing storage")
	}
}

func TestAMSineEnvelopeBounds(t *testing.T) {
	s := AMSine(1000, 2, 48000, 0.8, 0.25, 48000)

	var peak float64
	for _, v := range s {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}

	if peak > 0.8+1e-9 {
		t.Fatalf("modulated peak %v exceeds amplitude", peak)
	}

	if peak < 0.7 {
		t.Fatalf("modulated peak %v never approaches full depth", peak)
	}
}

func TestNoiseSeeding(t *testing.T) {
	a := Noise(7, 1, 256)
	b := Noise(7, 1, 256)
	c := Noise(8, 1, 256)

	RequireSliceNearlyEqual(t, a, b, 0)

	diff, err := MaxAbsDiff(a, c)
	if err != nil {
		t.Fatal(err)
	}

	if diff == 0 {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestSilence(t *testing.T) {
	for _, v := range Silence(64) {
		if v != 0 {
			t.Fatal("Silence returned a non-zero sample")
		}
	}
}
