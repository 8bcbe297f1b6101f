// Package stage defines the processor contract shared by every block in a
// mastering chain, together with a handful of utility stages (pass-through,
// DC blocker, panner, master gain, measurement tap) that the chain wires
// around the heavier pillar and dynamics processors.
package stage

// Binding reports which execution strategy a stage resolved to when it was
// constructed. The decision is made exactly once; a stage never switches
// bindings mid-stream.
type Binding int

const (
	// BindingNodeGraph is the portable per-sample path. Always available.
	BindingNodeGraph Binding = iota

	// BindingAccelerated is the block-oriented kernel path, used when the
	// accel registry resolved a compatible kernel set at construction.
	BindingAccelerated
)

func (b Binding) String() string {
	if b == BindingAccelerated {
		return "accelerated"
	}
	return "node-graph"
}

// Stage is a stereo block processor. ProcessBlock mutates left and right in
// place; both slices have equal length. Reset clears internal state without
// touching configuration.
type Stage interface {
	ProcessBlock(left, right []float64)
	Reset()
}

// Bound is implemented by stages that resolve between an accelerated and a
// node-graph execution path at construction time.
type Bound interface {
	Binding() Binding
}

// Passthrough copies input to output unchanged. The chain substitutes it for
// any stage whose construction failed, so the remaining chain keeps running.
type Passthrough struct{}

func (Passthrough) ProcessBlock(left, right []float64) {}

func (Passthrough) Reset() {}

// BindingOf returns the stage's resolved binding, or BindingNodeGraph for
// stages that only have the portable path.
func BindingOf(s Stage) Binding {
	if b, ok := s.(Bound); ok {
		return b.Binding()
	}
	return BindingNodeGraph
}
