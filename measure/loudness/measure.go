package loudness

import "fmt"

// measureBlockSize is the feed quantum for offline measurement. Any size
// works; 100 ms keeps window granularity fine enough for the short windows.
const measureBlockSizeSeconds = 0.1

// MeasureBuffer measures a fully rendered stereo buffer offline. It feeds
// the buffer through a fresh meter block by block and returns the final
// snapshot; the integrated value uses the full two-pass gate over the whole
// buffer.
func MeasureBuffer(left, right []float64, sampleRate float64) (Metrics, error) {
	if len(left) != len(right) {
		return Metrics{}, fmt.Errorf("loudness: channel lengths differ: %d vs %d", len(left), len(right))
	}
	if sampleRate <= 0 {
		return Metrics{}, fmt.Errorf("loudness: invalid sample rate %f", sampleRate)
	}

	m := NewMeter(WithSampleRate(sampleRate))

	step := int(sampleRate * measureBlockSizeSeconds)
	if step < 1 {
		step = 1
	}
	for off := 0; off < len(left); off += step {
		end := off + step
		if end > len(left) {
			end = len(left)
		}
		m.ProcessBlock(left[off:end], right[off:end])
	}

	return m.Snapshot(), nil
}
