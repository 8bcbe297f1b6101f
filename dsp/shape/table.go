// Package shape provides the odd-symmetric saturation transfer curves used
// by the pillar stages and the saturator. Curves are tabulated once per
// (amount, resolution) pair and cached process-wide, since the chain requests
// the same few curves repeatedly.
package shape

import (
	"math"
	"sync"
)

// DefaultResolution is the table length used by the chain stages.
const DefaultResolution = 1024

// curveScale matches the waveshaper convention the chain was calibrated
// against (20 degrees expressed in radians).
const curveScale = 20 * math.Pi / 180

// Table is an immutable tabulated transfer function over x in [-1, 1].
type Table struct {
	amount     float64
	resolution int
	values     []float64
}

type tableKey struct {
	amount     float64
	resolution int
}

var (
	tableMu    sync.RWMutex
	tableCache = map[tableKey]*Table{}
)

// Lookup returns the tabulated curve for the given drive amount, clamped to
// [0, 1], at the given resolution. Repeated calls with equal parameters
// return the same cached table.
func Lookup(amount float64, resolution int) *Table {
	if amount < 0 {
		amount = 0
	} else if amount > 1 {
		amount = 1
	}

	if resolution < 2 {
		resolution = DefaultResolution
	}

	key := tableKey{amount: amount, resolution: resolution}

	tableMu.RLock()
	t := tableCache[key]
	tableMu.RUnlock()

	if t != nil {
		return t
	}

	tableMu.Lock()
	defer tableMu.Unlock()

	// Another goroutine may have built it while we waited for the lock.
	if t = tableCache[key]; t != nil {
		return t
	}

	t = synthesize(amount, resolution)
	tableCache[key] = t

	return t
}

// synthesize evaluates y = ((3+k)*x*c) / (pi + k*|x|) across the table span.
func synthesize(amount float64, resolution int) *Table {
	values := make([]float64, resolution)
	k := amount

	for i := range values {
		x := 2*float64(i)/float64(resolution-1) - 1
		values[i] = ((3 + k) * x * curveScale) / (math.Pi + k*math.Abs(x))
	}

	return &Table{amount: amount, resolution: resolution, values: values}
}

// Amount returns the drive amount the table was built for.
func (t *Table) Amount() float64 { return t.amount }

// Resolution returns the number of table entries.
func (t *Table) Resolution() int { return t.resolution }

// Shape maps one sample through the curve with linear interpolation between
// table entries. Inputs outside [-1, 1] are clamped to the table edge.
func (t *Table) Shape(x float64) float64 {
	pos := (x + 1) * 0.5 * float64(t.resolution-1)
	if pos <= 0 {
		return t.values[0]
	}

	last := float64(t.resolution - 1)
	if pos >= last {
		return t.values[t.resolution-1]
	}

	idx := int(pos)
	frac := pos - float64(idx)

	return t.values[idx] + (t.values[idx+1]-t.values[idx])*frac
}

// ShapeBlock maps a block through the curve in place.
func (t *Table) ShapeBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = t.Shape(x)
	}
}

// CacheSize reports the number of cached tables. Test hook.
func CacheSize() int {
	tableMu.RLock()
	defer tableMu.RUnlock()

	return len(tableCache)
}
