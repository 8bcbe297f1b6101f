package loudness

import "math"

// silenceLUFS is reported for windows that hold no energy.
var silenceLUFS = math.Inf(-1)

type blockEnergy struct {
	energy  float64 // mean square over the block, K-weighted
	seconds float64
}

// Window is a sliding sequence of block energies bounded by accumulated
// duration. Push evicts the oldest blocks until the bound holds, so the
// window never exceeds its duration after Push returns.
type Window struct {
	maxSeconds float64

	blocks []blockEnergy
	head   int

	sumWeighted  float64 // sum of energy*seconds over live blocks
	totalSeconds float64
}

// NewWindow creates a window bounded to maxSeconds of audio.
func NewWindow(maxSeconds float64) *Window {
	return &Window{maxSeconds: maxSeconds}
}

// Push appends one block of mean-square energy spanning seconds of audio.
func (w *Window) Push(energy, seconds float64) {
	if seconds <= 0 {
		return
	}
	w.blocks = append(w.blocks, blockEnergy{energy: energy, seconds: seconds})
	w.sumWeighted += energy * seconds
	w.totalSeconds += seconds

	for w.totalSeconds > w.maxSeconds && w.head < len(w.blocks) {
		old := w.blocks[w.head]
		w.sumWeighted -= old.energy * old.seconds
		w.totalSeconds -= old.seconds
		w.head++
	}

	// Compact once the dead prefix dominates, keeping Push amortized O(1)
	// without unbounded growth.
	if w.head > len(w.blocks)/2 && w.head > 64 {
		n := copy(w.blocks, w.blocks[w.head:])
		w.blocks = w.blocks[:n]
		w.head = 0
	}
}

// Seconds returns the audio duration currently held.
func (w *Window) Seconds() float64 { return w.totalSeconds }

// MeanSquare returns the duration-weighted mean-square energy.
func (w *Window) MeanSquare() float64 {
	if w.totalSeconds <= 0 {
		return 0
	}
	return w.sumWeighted / w.totalSeconds
}

// LUFS returns the loudness of the window contents.
func (w *Window) LUFS() float64 {
	return EnergyLUFS(w.MeanSquare())
}

// Reset drops all held blocks.
func (w *Window) Reset() {
	w.blocks = w.blocks[:0]
	w.head = 0
	w.sumWeighted = 0
	w.totalSeconds = 0
}

// EnergyLUFS converts a K-weighted mean-square energy to LUFS. Silence
// reports -Inf.
func EnergyLUFS(energy float64) float64 {
	if energy <= 0 {
		return silenceLUFS
	}
	return -0.691 + 10*math.Log10(energy)
}
