package shape

import (
	"math"
	"testing"
)

func TestLookupReturnsCachedTable(t *testing.T) {
	a := Lookup(0.45, DefaultResolution)
	b := Lookup(0.45, DefaultResolution)

	if a != b {
		t.Fatal("equal (amount, resolution) must return the same table")
	}

	c := Lookup(0.45, 2048)
	if c == a {
		t.Fatal("different resolution must build a new table")
	}
}

func TestCurveIsOddSymmetric(t *testing.T) {
	tbl := Lookup(0.6, DefaultResolution)

	for _, x := range []float64{0.1, 0.33, 0.5, 0.9, 1.0} {
		pos := tbl.Shape(x)
		neg := tbl.Shape(-x)

		if math.Abs(pos+neg) > 1e-9 {
			t.Fatalf("curve not odd at %v: f(x)=%v f(-x)=%v", x, pos, neg)
		}
	}

	if math.Abs(tbl.Shape(0)) > 1e-9 {
		t.Fatalf("curve must pass through origin, got %v", tbl.Shape(0))
	}
}

func TestShapeMatchesClosedForm(t *testing.T) {
	const k = 0.45

	tbl := Lookup(k, 65536)

	for _, x := range []float64{-0.8, -0.25, 0.0, 0.4, 0.95} {
		want := ((3 + k) * x * curveScale) / (math.Pi + k*math.Abs(x))
		if got := tbl.Shape(x); math.Abs(got-want) > 1e-6 {
			t.Fatalf("x=%v: table %v vs closed form %v", x, got, want)
		}
	}
}

func TestShapeClampsOutOfRange(t *testing.T) {
	tbl := Lookup(0.3, DefaultResolution)

	if tbl.Shape(2) != tbl.Shape(1) {
		t.Fatal("input above 1 should clamp to the table edge")
	}

	if tbl.Shape(-2) != tbl.Shape(-1) {
		t.Fatal("input below -1 should clamp to the table edge")
	}
}

func TestAmountClamped(t *testing.T) {
	if got := Lookup(1.7, DefaultResolution).Amount(); got != 1 {
		t.Fatalf("amount should clamp to 1, got %v", got)
	}

	if got := Lookup(-0.2, DefaultResolution).Amount(); got != 0 {
		t.Fatalf("amount should clamp to 0, got %v", got)
	}
}
