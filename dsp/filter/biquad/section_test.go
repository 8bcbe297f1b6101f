package biquad

import (
	"math"
	"testing"
)

func TestIdentityPassesThrough(t *testing.T) {
	s := NewSection(Identity())

	for _, x := range []float64{0, 1, -0.5, 0.25} {
		if got := s.ProcessSample(x); got != x {
			t.Fatalf("identity section altered %v to %v", x, got)
		}
	}
}

func TestProcessBlockMatchesPerSample(t *testing.T) {
	c := Coefficients{B0: 0.2, B1: 0.3, B2: 0.1, A1: -0.4, A2: 0.05}

	a := NewSection(c)
	b := NewSection(c)

	input := make([]float64, 257) // odd length exercises the tail sample
	for i := range input {
		input[i] = math.Sin(0.1 * float64(i))
	}

	want := make([]float64, len(input))
	for i, x := range input {
		want[i] = a.ProcessSample(x)
	}

	got := make([]float64, len(input))
	copy(got, input)
	b.ProcessBlock(got)

	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("index %d: block %v vs per-sample %v", i, got[i], want[i])
		}
	}
}

func TestResetClearsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1, A1: -0.5})
	s.ProcessSample(1)
	s.Reset()

	if got := s.ProcessSample(0); got != 0 {
		t.Fatalf("state leaked through reset: %v", got)
	}
}

func TestChainCascadesInOrder(t *testing.T) {
	coeffs := []Coefficients{
		{B0: 0.5},
		{B0: 0.5},
	}

	c := NewChain(coeffs)
	if c.Order() != 4 {
		t.Fatalf("order = %d, want 4", c.Order())
	}

	if got := c.ProcessSample(1); got != 0.25 {
		t.Fatalf("cascade gain = %v, want 0.25", got)
	}

	buf := []float64{1, 1}

	c.Reset()
	c.ProcessBlock(buf)

	if buf[0] != 0.25 || buf[1] != 0.25 {
		t.Fatalf("block cascade = %v", buf)
	}
}
