package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2.5, 2}

	diff, err := MaxAbsDiff(a, b)
	if err != nil {
		t.Fatal(err)
	}

	if diff != 1 {
		t.Fatalf("MaxAbsDiff = %v, want 1", diff)
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	if _, err := MaxAbsDiff([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestRequireLUFSNearSilence(t *testing.T) {
	// Both silent: must not fail.
	RequireLUFSNear(t, math.Inf(-1), math.Inf(-1), 0.1)
}

func TestRequireFinite(t *testing.T) {
	RequireFinite(t, []float64{0, 1, -1, 0.5})
}
