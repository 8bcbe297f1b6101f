package stage

import (
	"math"
	"testing"
)

func TestPassthroughLeavesSignalUntouched(t *testing.T) {
	left := []float64{1, -0.5, 0.25}
	right := []float64{-1, 0.5, -0.25}
	var p Passthrough
	p.ProcessBlock(left, right)
	want := []float64{1, -0.5, 0.25}
	for i := range want {
		if left[i] != want[i] || right[i] != -want[i] {
			t.Fatalf("sample %d modified: %g / %g", i, left[i], right[i])
		}
	}
}

func TestDCBlockRemovesOffset(t *testing.T) {
	d := NewDCBlock(48000)
	n := 48000
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		left[i] = 0.5
		right[i] = -0.25
	}
	d.ProcessBlock(left, right)

	// After a second of settling the tail should be essentially zero.
	for i := n - 100; i < n; i++ {
		if math.Abs(left[i]) > 1e-3 || math.Abs(right[i]) > 1e-3 {
			t.Fatalf("DC not removed at %d: %g / %g", i, left[i], right[i])
		}
	}
}

func TestDCBlockPassesAudioBand(t *testing.T) {
	d := NewDCBlock(48000)
	n := 4800
	left := make([]float64, n)
	right := make([]float64, n)
	for i := range left {
		s := math.Sin(2 * math.Pi * 1000 * float64(i) / 48000)
		left[i] = s
		right[i] = s
	}
	d.ProcessBlock(left, right)

	peak := 0.0
	for i := n / 2; i < n; i++ {
		if a := math.Abs(left[i]); a > peak {
			peak = a
		}
	}
	if peak < 0.99 {
		t.Fatalf("1 kHz attenuated to %g", peak)
	}
}

func TestPannerCenterIsPassthrough(t *testing.T) {
	p := NewPanner(48000)
	left := []float64{0.5, -0.5, 0.25, -0.25}
	right := []float64{0.1, -0.1, 0.2, -0.2}
	p.ProcessBlock(left, right)
	if math.Abs(left[0]-0.5) > 1e-12 || math.Abs(right[0]-0.1) > 1e-12 {
		t.Fatalf("center pan modified signal: %g / %g", left[0], right[0])
	}
}

func TestPannerHardRightFoldsLeftChannel(t *testing.T) {
	p := NewPanner(48000)
	p.SetPosition(1)
	p.Reset() // jump the smoother to the target

	left := make([]float64, 16)
	right := make([]float64, 16)
	for i := range left {
		left[i] = 0.5
		right[i] = 0.25
	}
	p.ProcessBlock(left, right)

	if math.Abs(left[0]) > 1e-12 {
		t.Fatalf("hard right left residual %g", left[0])
	}
	if math.Abs(right[0]-0.75) > 1e-12 {
		t.Fatalf("hard right fold = %g, want 0.75", right[0])
	}
}

func TestPannerClampsPosition(t *testing.T) {
	p := NewPanner(48000)
	p.SetPosition(4)
	if p.Position() != 1 {
		t.Fatalf("position not clamped: %g", p.Position())
	}
}

func TestMasterGainAppliesCalibrationAndTrim(t *testing.T) {
	g := NewMasterGain(48000)
	g.SetCalibration(0.5)
	g.SetTrimDB(6.0206) // ~x2
	g.Reset()

	left := []float64{1, 1, 1, 1}
	right := []float64{1, 1, 1, 1}
	g.ProcessBlock(left, right)

	if math.Abs(left[0]-1.0) > 1e-3 {
		t.Fatalf("combined gain = %g, want ~1", left[0])
	}
}

func TestMasterGainTrimClamped(t *testing.T) {
	g := NewMasterGain(48000)
	g.SetTrimDB(60)
	if db := g.TrimDB(); math.Abs(db-24) > 1e-9 {
		t.Fatalf("trim = %g dB, want 24", db)
	}
}

func TestTapObservesWithoutModifying(t *testing.T) {
	var seen int
	tap := NewTap(func(left, right []float64) { seen = len(left) })
	left := []float64{0.5, 0.5}
	right := []float64{0.5, 0.5}
	tap.ProcessBlock(left, right)
	if seen != 2 {
		t.Fatalf("observer saw %d samples", seen)
	}
	if left[0] != 0.5 {
		t.Fatal("tap modified signal")
	}
}

func TestBindingOfPlainStage(t *testing.T) {
	if BindingOf(Passthrough{}) != BindingNodeGraph {
		t.Fatal("plain stage should report node-graph binding")
	}
	if BindingNodeGraph.String() != "node-graph" || BindingAccelerated.String() != "accelerated" {
		t.Fatal("binding strings")
	}
}
