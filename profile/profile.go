// Package profile holds the closed registry of mastering profiles. Profiles
// are immutable constants selected by key; there is deliberately no way to
// register new ones at runtime, so every chain in a process agrees on what a
// given key means.
package profile

import (
	"fmt"
	"sort"
)

// Version identifies the preset tables. Bump it whenever a constant below
// changes so rendered output can be traced back to the presets that shaped it.
const Version = 1

// Key identifies a mastering profile.
type Key string

const (
	Streaming  Key = "streaming"
	Club       Key = "club"
	Broadcast  Key = "broadcast"
	Vinyl      Key = "vinyl"
	Audiophile Key = "audiophile"
)

// Default is the profile used when a caller does not pick one.
const Default = Streaming

// Character selects the saturation flavor of the lattice stage.
type Character string

const (
	CharacterNeutral Character = "neutral"
	CharacterWarm    Character = "warm"
	CharacterBright  Character = "bright"
	CharacterVintage Character = "vintage"
)

// CurveAmount maps a character to its saturation-curve amount.
func (c Character) CurveAmount() float64 {
	switch c {
	case CharacterWarm:
		return 0.4
	case CharacterBright:
		return 0.2
	case CharacterVintage:
		return 0.6
	default:
		return 0.1
	}
}

// FloorSettings drives the low-end foundation stage. Warmth selects the
// saturation amount, Depth the make-up gain; both range 0..100.
type FloorSettings struct {
	Warmth float64
	Depth  float64
}

// LatticeSettings drives the harmonic enhancement stage.
type LatticeSettings struct {
	Character Character
}

// WeaveSettings drives the stereo-field stage. Width deliberately spans
// 0..150, not just 0..100: it maps to side gain as width/100, capped at
// 1.5x, so 100 is unity, 0 collapses to mono, and values above 100 widen
// beyond the source image (the Streaming and Club presets use 110 and 130).
// MonoCompatibility (0..1) pulls the side level back by up to 30 % for
// mono-sensitive targets.
type WeaveSettings struct {
	Width             float64
	MonoCompatibility float64
}

// CurveSettings drives the final-polish warmth shelf. Warmth ranges 0..1.
type CurveSettings struct {
	Warmth float64
}

// GlueSettings parameterizes the bus compressor. Threshold and ratio are
// derived from the loudness target (see chain calibration); release and mix
// carry per-profile character.
type GlueSettings struct {
	ThresholdDB float64
	Ratio       float64
	ReleaseMs   float64
	Mix         float64
}

// DriveSettings parameterizes the saturator. Drive itself is recalibrated
// from the loudness target; Warmth and Mix are per-profile.
type DriveSettings struct {
	Warmth float64
	Mix    float64
}

// Profile is one immutable mastering preset.
type Profile struct {
	Key               Key
	Name              string
	TargetLUFS        float64
	TruePeakCeilingDB float64
	SoftCeilingDB     float64
	Floor             FloorSettings
	Lattice           LatticeSettings
	Weave             WeaveSettings
	Curve             CurveSettings
	Glue              GlueSettings
	Drive             DriveSettings
}

var registry = map[Key]Profile{
	Streaming: {
		Key:               Streaming,
		Name:              "Streaming",
		TargetLUFS:        -14.0,
		TruePeakCeilingDB: -1.0,
		SoftCeilingDB:     -1.5,
		Floor:             FloorSettings{Warmth: 20, Depth: 10},
		Lattice:           LatticeSettings{Character: CharacterNeutral},
		Weave:             WeaveSettings{Width: 110, MonoCompatibility: 0},
		Curve:             CurveSettings{Warmth: 0.15},
		Glue:              GlueSettings{ThresholdDB: -18, Ratio: 2.2, ReleaseMs: 100, Mix: 0.5},
		Drive:             DriveSettings{Warmth: 0.3, Mix: 0.2},
	},
	Club: {
		Key:               Club,
		Name:              "Club",
		TargetLUFS:        -8.0,
		TruePeakCeilingDB: -0.5,
		SoftCeilingDB:     -1.0,
		Floor:             FloorSettings{Warmth: 40, Depth: 30},
		Lattice:           LatticeSettings{Character: CharacterBright},
		Weave:             WeaveSettings{Width: 130, MonoCompatibility: 0},
		Curve:             CurveSettings{Warmth: 0.25},
		Glue:              GlueSettings{ThresholdDB: -14, Ratio: 2.5, ReleaseMs: 80, Mix: 0.7},
		Drive:             DriveSettings{Warmth: 0.4, Mix: 0.3},
	},
	Broadcast: {
		Key:               Broadcast,
		Name:              "Broadcast",
		TargetLUFS:        -24.0,
		TruePeakCeilingDB: -2.0,
		SoftCeilingDB:     -2.5,
		Floor:             FloorSettings{Warmth: 10, Depth: 5},
		Lattice:           LatticeSettings{Character: CharacterNeutral},
		Weave:             WeaveSettings{Width: 100, MonoCompatibility: 0.5},
		Curve:             CurveSettings{Warmth: 0.1},
		Glue:              GlueSettings{ThresholdDB: -18, Ratio: 2.2, ReleaseMs: 150, Mix: 0.4},
		Drive:             DriveSettings{Warmth: 0.1, Mix: 0.1},
	},
	Vinyl: {
		Key:               Vinyl,
		Name:              "Vinyl",
		TargetLUFS:        -12.0,
		TruePeakCeilingDB: -1.0,
		SoftCeilingDB:     -1.5,
		Floor:             FloorSettings{Warmth: 35, Depth: 15},
		Lattice:           LatticeSettings{Character: CharacterVintage},
		Weave:             WeaveSettings{Width: 100, MonoCompatibility: 0.2},
		Curve:             CurveSettings{Warmth: 0.2},
		Glue:              GlueSettings{ThresholdDB: -18, Ratio: 2.2, ReleaseMs: 120, Mix: 0.55},
		Drive:             DriveSettings{Warmth: 0.5, Mix: 0.25},
	},
	Audiophile: {
		Key:               Audiophile,
		Name:              "Audiophile",
		TargetLUFS:        -16.0,
		TruePeakCeilingDB: -1.0,
		SoftCeilingDB:     -1.5,
		Floor:             FloorSettings{Warmth: 10, Depth: 0},
		Lattice:           LatticeSettings{Character: CharacterNeutral},
		Weave:             WeaveSettings{Width: 100, MonoCompatibility: 0},
		Curve:             CurveSettings{Warmth: 0.1},
		Glue:              GlueSettings{ThresholdDB: -18, Ratio: 2.2, ReleaseMs: 200, Mix: 0.3},
		Drive:             DriveSettings{Warmth: 0.15, Mix: 0.1},
	},
}

// Lookup returns the profile registered under key.
func Lookup(key Key) (Profile, error) {
	p, ok := registry[key]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown key %q", key)
	}
	return p, nil
}

// MustLookup is Lookup for the built-in keys; it panics on an unknown key.
func MustLookup(key Key) Profile {
	p, err := Lookup(key)
	if err != nil {
		panic(err)
	}
	return p
}

// Keys lists every registered profile key in stable order.
func Keys() []Key {
	keys := make([]Key, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
