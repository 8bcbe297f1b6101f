package profile

import "testing"

func TestLookupKnownKeys(t *testing.T) {
	for _, key := range Keys() {
		p, err := Lookup(key)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", key, err)
		}
		if p.Key != key {
			t.Fatalf("profile %q reports key %q", key, p.Key)
		}
		if p.Name == "" {
			t.Fatalf("profile %q has no name", key)
		}
	}
}

func TestLookupUnknownKey(t *testing.T) {
	if _, err := Lookup("cassette"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestTargetsBelowFullScale(t *testing.T) {
	for _, key := range Keys() {
		p := MustLookup(key)
		if p.TargetLUFS >= 0 {
			t.Errorf("%q: target %g LUFS not below 0", key, p.TargetLUFS)
		}
		if p.TruePeakCeilingDB >= 0 {
			t.Errorf("%q: true-peak ceiling %g dB not below 0", key, p.TruePeakCeilingDB)
		}
		if p.SoftCeilingDB > p.TruePeakCeilingDB+1e-9 && p.SoftCeilingDB >= 0 {
			t.Errorf("%q: soft ceiling %g dB not below 0", key, p.SoftCeilingDB)
		}
	}
}

func TestRangesSane(t *testing.T) {
	for _, key := range Keys() {
		p := MustLookup(key)
		if p.Floor.Warmth < 0 || p.Floor.Warmth > 100 || p.Floor.Depth < 0 || p.Floor.Depth > 100 {
			t.Errorf("%q: floor settings out of range: %+v", key, p.Floor)
		}
		if p.Weave.Width < 0 || p.Weave.Width > 150 {
			t.Errorf("%q: weave width out of range: %g", key, p.Weave.Width)
		}
		if p.Weave.MonoCompatibility < 0 || p.Weave.MonoCompatibility > 1 {
			t.Errorf("%q: mono compatibility out of range: %g", key, p.Weave.MonoCompatibility)
		}
		if p.Glue.Ratio < 1 {
			t.Errorf("%q: glue ratio %g below unity", key, p.Glue.Ratio)
		}
	}
}

func TestCharacterCurveAmounts(t *testing.T) {
	cases := map[Character]float64{
		CharacterNeutral:   0.1,
		CharacterWarm:      0.4,
		CharacterBright:    0.2,
		CharacterVintage:   0.6,
		Character("bogus"): 0.1,
	}
	for ch, want := range cases {
		if got := ch.CurveAmount(); got != want {
			t.Errorf("%q: curve amount %g, want %g", ch, got, want)
		}
	}
}

func TestDefaultIsRegistered(t *testing.T) {
	if _, err := Lookup(Default); err != nil {
		t.Fatalf("default profile missing: %v", err)
	}
}
