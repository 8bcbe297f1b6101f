package loudness

import "math"

const (
	gateHistogramFloorLUFS = absGateLUFS
	gateHistogramCeilLUFS  = 10.0
	gateHistogramStepLU    = 0.1

	// Bin 0 collects blocks below the absolute gate; they count toward the
	// ungated mean but can never pass the gate.
	gateHistogramBins = int((gateHistogramCeilLUFS-gateHistogramFloorLUFS)/gateHistogramStepLU) + 2
)

// GateHistogram accumulates gating blocks for the integrated measurement in
// fixed storage, so feeding it from the render path costs no allocation no
// matter how long the program runs. Blocks land in 0.1 LU bins with exact
// per-bin energy sums; only membership at the relative threshold is
// quantized to a bin edge, the loudness itself comes from the exact
// energies.
type GateHistogram struct {
	sum   float64
	count int

	binEnergy [gateHistogramBins]float64
	binCount  [gateHistogramBins]int
}

// Add folds one block mean-square energy into the histogram.
func (h *GateHistogram) Add(energy float64) {
	h.sum += energy
	h.count++

	i := gateBinIndex(EnergyLUFS(energy))
	h.binEnergy[i] += energy
	h.binCount[i]++
}

// Blocks returns the number of blocks added since the last Reset.
func (h *GateHistogram) Blocks() int { return h.count }

// Integrated runs the two-pass gate over everything added: ungated mean,
// relative threshold 10 LU below it floored at the -70 LUFS absolute gate,
// then the mean of passing blocks.
func (h *GateHistogram) Integrated() float64 {
	return h.integrate(0, false)
}

// IntegratedWith runs the gate as if one more block with the given energy
// had been added. The streaming paths use it to fold in the partially filled
// tail block without mutating the histogram.
func (h *GateHistogram) IntegratedWith(extra float64) float64 {
	return h.integrate(extra, true)
}

func (h *GateHistogram) integrate(extra float64, hasExtra bool) float64 {
	sum, count := h.sum, h.count
	if hasExtra {
		sum += extra
		count++
	}
	if count == 0 {
		return silenceLUFS
	}

	ungated := EnergyLUFS(sum / float64(count))
	gate := math.Max(ungated+relGateLU, absGateLUFS)

	var gatedSum float64
	var gatedCount int
	for i := gateFirstBin(gate); i < gateHistogramBins; i++ {
		gatedSum += h.binEnergy[i]
		gatedCount += h.binCount[i]
	}
	if hasExtra && EnergyLUFS(extra) > gate {
		gatedSum += extra
		gatedCount++
	}

	if gatedCount == 0 {
		return silenceLUFS
	}
	return EnergyLUFS(gatedSum / float64(gatedCount))
}

// Reset clears the histogram.
func (h *GateHistogram) Reset() {
	*h = GateHistogram{}
}

func gateBinIndex(lufs float64) int {
	if lufs < gateHistogramFloorLUFS {
		return 0
	}
	i := 1 + int((lufs-gateHistogramFloorLUFS)/gateHistogramStepLU)
	if i >= gateHistogramBins {
		i = gateHistogramBins - 1
	}
	return i
}

// gateFirstBin returns the lowest bin whose entire range lies above the
// gate, so sub-gate blocks sharing bin 0 with the floor are never included.
func gateFirstBin(gate float64) int {
	if gate <= gateHistogramFloorLUFS {
		return 1
	}
	return 1 + int(math.Ceil((gate-gateHistogramFloorLUFS)/gateHistogramStepLU))
}
