package metrics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-mastering/internal/testutil"
	"github.com/cwbudde/algo-mastering/measure/loudness"
)

const testRate = 48000.0

// feedSine pushes seconds of a sine through the analyzer, pumping once per
// frame the way the live schedule would.
func feedSine(a *Analyzer, freq, amp, seconds float64) {
	total := int(seconds * testRate)
	block := analyzerFrameSize

	left := make([]float64, block)
	right := make([]float64, block)

	for start := 0; start < total; start += block {
		for i := 0; i < block; i++ {
			s := amp * math.Sin(2*math.Pi*freq*float64(start+i)/testRate)
			left[i] = s
			right[i] = s
		}

		a.Write(left, right)
		a.Pump()
	}
}

func TestAnalyzerRejectsBadSampleRate(t *testing.T) {
	if _, err := NewAnalyzer(0); err == nil {
		t.Fatal("NewAnalyzer accepted a zero sample rate")
	}
}

func TestAnalyzerConvergesWithMeter(t *testing.T) {
	a, err := NewAnalyzer(testRate)
	if err != nil {
		t.Fatal(err)
	}

	const (
		freq    = 997.0
		amp     = 0.5
		seconds = 5.0
	)

	feedSine(a, freq, amp, seconds)

	left, right := testutil.StereoSine(freq, testRate, amp, int(seconds*testRate))

	ref, err := loudness.MeasureBuffer(left, right, testRate)
	if err != nil {
		t.Fatal(err)
	}

	got := a.Snapshot()

	if d := math.Abs(got.MomentaryLUFS - ref.MomentaryLUFS); d > 1 {
		t.Fatalf("momentary: analyzer %.2f vs meter %.2f (diff %.2f)",
			got.MomentaryLUFS, ref.MomentaryLUFS, d)
	}

	if d := math.Abs(got.ShortTermLUFS - ref.ShortTermLUFS); d > 1 {
		t.Fatalf("short-term: analyzer %.2f vs meter %.2f (diff %.2f)",
			got.ShortTermLUFS, ref.ShortTermLUFS, d)
	}

	if d := math.Abs(got.IntegratedLUFS - ref.IntegratedLUFS); d > 1 {
		t.Fatalf("integrated: analyzer %.2f vs meter %.2f (diff %.2f)",
			got.IntegratedLUFS, ref.IntegratedLUFS, d)
	}

	if d := math.Abs(got.TruePeakDB - ref.TruePeakDB); d > 0.2 {
		t.Fatalf("true peak: analyzer %.2f vs meter %.2f dB", got.TruePeakDB, ref.TruePeakDB)
	}
}

func TestAnalyzerSteadyStateWindowsAgree(t *testing.T) {
	a, err := NewAnalyzer(testRate)
	if err != nil {
		t.Fatal(err)
	}

	feedSine(a, 1000, 0.25, 6)

	m := a.Snapshot()

	if d := math.Abs(m.MomentaryLUFS - m.ShortTermLUFS); d > 0.5 {
		t.Fatalf("steady tone: momentary %.2f and short-term %.2f diverge", m.MomentaryLUFS, m.ShortTermLUFS)
	}

	if d := math.Abs(m.MomentaryLUFS - m.IntegratedLUFS); d > 0.5 {
		t.Fatalf("steady tone: momentary %.2f and integrated %.2f diverge", m.MomentaryLUFS, m.IntegratedLUFS)
	}
}

func TestAnalyzerSilenceReadsNegativeInfinity(t *testing.T) {
	a, err := NewAnalyzer(testRate)
	if err != nil {
		t.Fatal(err)
	}

	feedSine(a, 1000, 0, 1)

	m := a.Snapshot()

	if !math.IsInf(m.MomentaryLUFS, -1) {
		t.Fatalf("silence momentary = %v, want -Inf", m.MomentaryLUFS)
	}

	if !math.IsInf(m.TruePeakDB, -1) {
		t.Fatalf("silence true peak = %v, want -Inf", m.TruePeakDB)
	}
}

func TestAnalyzerResetClearsState(t *testing.T) {
	a, err := NewAnalyzer(testRate)
	if err != nil {
		t.Fatal(err)
	}

	feedSine(a, 1000, 0.5, 1)
	a.Reset()

	m := a.Snapshot()

	if !math.IsInf(m.MomentaryLUFS, -1) || !math.IsInf(m.TruePeakDB, -1) {
		t.Fatalf("reset analyzer still reads %+v", m)
	}
}

func TestAnalyzerTruePeakTracksAmplitude(t *testing.T) {
	a, err := NewAnalyzer(testRate)
	if err != nil {
		t.Fatal(err)
	}

	feedSine(a, 100, 0.5, 1)

	want := 20 * math.Log10(0.5)

	if d := math.Abs(a.Snapshot().TruePeakDB - want); d > 0.05 {
		t.Fatalf("true peak = %.3f dB, want %.3f", a.Snapshot().TruePeakDB, want)
	}
}
