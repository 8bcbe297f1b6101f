package output

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-mastering/accel"
	"github.com/cwbudde/algo-mastering/dsp/stage"
)

const sampleRate = 48000.0

func sine(freq, amp float64, n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return buf
}

func TestSoftLimiterAbsorbsTransients(t *testing.T) {
	s, err := NewSoftLimiter(sampleRate)
	if err != nil {
		t.Fatalf("NewSoftLimiter: %v", err)
	}

	n := 48000
	left := sine(440, 0.9, n)
	right := sine(440, 0.9, n)
	s.ProcessBlock(left, right)

	var peak float64
	for i := n / 2; i < n; i++ {
		if a := math.Abs(left[i]); a > peak {
			peak = a
		}
	}
	// 0.9 is ~5 dB over the -6 dB threshold; ratio 6 keeps roughly 1 dB of
	// that, so the settled peak sits near -5 dBFS.
	if peak > 0.7 {
		t.Fatalf("soft limiter too weak: peak %g", peak)
	}
	if peak < 0.3 {
		t.Fatalf("soft limiter overreduced: peak %g", peak)
	}
}

func TestTruePeakLimiterHoldsCeiling(t *testing.T) {
	l, err := NewTruePeakLimiter(sampleRate, -1)
	if err != nil {
		t.Fatalf("NewTruePeakLimiter: %v", err)
	}
	if l.Binding() != stage.BindingAccelerated {
		t.Skip("accelerated binding unavailable")
	}

	n := 48000
	left := sine(997, 1.2, n)
	right := sine(997, 1.2, n)
	l.ProcessBlock(left, right)

	ceiling := math.Pow(10, -1.0/20)
	for i := n / 2; i < n; i++ {
		if math.Abs(left[i]) > ceiling+1e-9 {
			t.Fatalf("sample %d exceeds ceiling: %g", i, left[i])
		}
	}
}

func TestTruePeakLimiterFallbackStillBounds(t *testing.T) {
	accel.ForceFallback(true)
	defer accel.ForceFallback(false)

	l, err := NewTruePeakLimiter(sampleRate, -1)
	if err != nil {
		t.Fatalf("NewTruePeakLimiter: %v", err)
	}
	if l.Binding() != stage.BindingNodeGraph {
		t.Fatal("expected node-graph fallback")
	}
	if l.Latency() != 0 {
		t.Fatalf("fallback should be zero latency, got %d", l.Latency())
	}

	n := 48000
	left := sine(440, 1.2, n)
	right := sine(440, 1.2, n)
	l.ProcessBlock(left, right)

	// Ratio 20 is brick-wall-approximating, not exact; allow a small
	// settled overshoot.
	ceiling := math.Pow(10, -1.0/20)
	var peak float64
	for i := n / 2; i < n; i++ {
		if a := math.Abs(left[i]); a > peak {
			peak = a
		}
	}
	if peak > ceiling*math.Pow(10, 0.3/20) {
		t.Fatalf("fallback peak %g too far above ceiling %g", peak, ceiling)
	}
}

func TestTruePeakLimiterCeilingClamped(t *testing.T) {
	l, err := NewTruePeakLimiter(sampleRate, -1)
	if err != nil {
		t.Fatalf("NewTruePeakLimiter: %v", err)
	}
	l.SetCeilingDB(5)
	if db := l.CeilingDB(); db > 1e-9 {
		t.Fatalf("ceiling not clamped to 0 dBFS: %g", db)
	}
}

func TestDitherQuantizesToWordLength(t *testing.T) {
	d := NewDither()
	if d.Binding() != stage.BindingAccelerated {
		t.Skip("accelerated binding unavailable")
	}
	d.SetNoiseShaping(false)

	left := sine(440, 0.5, 512)
	right := sine(440, 0.5, 512)
	d.ProcessBlock(left, right)

	scale := float64(int64(1)<<15) - 1
	for i, v := range left {
		scaled := v * scale
		if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Fatalf("sample %d not on 16-bit grid: %g", i, v)
		}
	}
}

func TestDitherDecorrelatesChannels(t *testing.T) {
	d := NewDither()
	if d.Binding() != stage.BindingAccelerated {
		t.Skip("accelerated binding unavailable")
	}

	n := 4096
	left := make([]float64, n)
	right := make([]float64, n)
	d.ProcessBlock(left, right)

	same := true
	for i := range left {
		if left[i] != right[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("left and right dither identical")
	}
}

func TestDitherFallbackIsUnity(t *testing.T) {
	accel.ForceFallback(true)
	defer accel.ForceFallback(false)

	d := NewDither()
	if d.Binding() != stage.BindingNodeGraph {
		t.Fatal("expected node-graph fallback")
	}

	left := sine(440, 0.5, 256)
	want := append([]float64(nil), left...)
	right := sine(440, 0.5, 256)
	d.ProcessBlock(left, right)

	for i := range left {
		if left[i] != want[i] {
			t.Fatalf("fallback modified signal at %d", i)
		}
	}
}

func TestDitherBitDepthClamped(t *testing.T) {
	d := NewDither()
	d.SetBitDepth(4)
	if d.BitDepth() != 8 {
		t.Fatalf("bit depth = %d, want 8", d.BitDepth())
	}
	d.SetBitDepth(64)
	if d.BitDepth() != 32 {
		t.Fatalf("bit depth = %d, want 32", d.BitDepth())
	}
}
