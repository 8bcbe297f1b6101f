package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name            string
		value, min, max float64
		want            float64
	}{
		{"below", -2, -1, 1, -1},
		{"above", 2, -1, 1, 1},
		{"inside", 0.5, -1, 1, 0.5},
		{"swapped bounds", 0.5, 1, -1, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.want {
				t.Fatalf("Clamp(%v, %v, %v) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestDBRoundTrip(t *testing.T) {
	for _, db := range []float64{-60, -14, -1, 0, 6} {
		lin := DBToLinear(db)
		if !NearlyEqual(LinearToDB(lin), db, 1e-9) {
			t.Fatalf("round trip failed for %v dB: got %v", db, LinearToDB(lin))
		}
	}

	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("LinearToDB(0) should be -Inf")
	}

	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("LinearToDB(-1) should be NaN")
	}
}

func TestGainForLUFSMonotonic(t *testing.T) {
	if GainForLUFS(-9) <= GainForLUFS(-18) {
		t.Fatalf("gain must grow with louder targets: g(-9)=%v g(-18)=%v",
			GainForLUFS(-9), GainForLUFS(-18))
	}

	if !NearlyEqual(GainForLUFS(ReferenceLUFS), 1.0, 1e-12) {
		t.Fatalf("reference target must map to unity, got %v", GainForLUFS(ReferenceLUFS))
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-40) != 0 {
		t.Fatal("tiny value should flush to zero")
	}

	if FlushDenormals(0.5) != 0.5 {
		t.Fatal("normal value should pass through")
	}
}

func TestOnePoleCoeff(t *testing.T) {
	c := OnePoleCoeff(10, 48000)
	if c <= 0 || c >= 1 {
		t.Fatalf("coefficient out of range: %v", c)
	}

	if OnePoleCoeff(0, 48000) != 0 {
		t.Fatal("zero time constant should disable smoothing")
	}
}
