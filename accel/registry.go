// Package accel selects between accelerated and reference execution for the
// chain stages. Registration of accelerated kernels happens once per process;
// every stage constructor then makes an independent accelerated-or-fallback
// decision, so partial acceleration (some stages accelerated, others not) is
// a normal state.
package accel

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// ErrUnavailable is returned when no accelerated kernel set can serve the
// current process. Callers fall back to their node-graph implementation;
// the condition is log-only and never user-actionable.
var ErrUnavailable = errors.New("accel: accelerated kernels unavailable")

// Entry is one registered kernel set implementation.
type Entry struct {
	Name      string
	SIMDLevel cpu.SIMDLevel
	Priority  int
	Kernels   *Kernels
}

// Registry stores available kernel set implementations ordered by priority.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
}

// Register adds an implementation entry.
func (r *Registry) Register(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := len(r.entries)
	r.entries = append(r.entries, entry)

	for i > 0 && r.entries[i-1].Priority < entry.Priority {
		r.entries[i] = r.entries[i-1]
		i--
	}

	r.entries[i] = entry
}

// Lookup returns the highest-priority entry supported by features, or nil.
func (r *Registry) Lookup(features cpu.Features) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if cpu.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

// Global is the process-wide kernel registry.
var Global = &Registry{}

var (
	ensureOnce    sync.Once
	ensureErr     error
	selected      *Kernels
	selectedName  string
	forceFallback atomic.Bool
)

// Ensure performs process-wide kernel registration and selection. It is
// idempotent and memoized; concurrent callers await the single in-flight
// registration instead of duplicating it.
func Ensure() error {
	ensureOnce.Do(func() {
		registerBuiltins(Global)

		entry := Global.Lookup(cpu.DetectFeatures())
		if entry == nil || entry.Kernels == nil {
			ensureErr = ErrUnavailable

			slog.Debug("accel: no kernel set matches this CPU, stages will use node-graph bindings")

			return
		}

		selected = entry.Kernels
		selectedName = entry.Name
	})

	return ensureErr
}

// Acquire returns the selected kernel set, or ErrUnavailable when
// registration failed or fallback is forced. Each stage constructor calls
// Acquire independently.
func Acquire() (*Kernels, error) {
	if forceFallback.Load() {
		return nil, ErrUnavailable
	}

	if err := Ensure(); err != nil {
		return nil, err
	}

	return selected, nil
}

// SelectedName reports which kernel set registration picked, or "" when
// running without acceleration.
func SelectedName() string {
	if forceFallback.Load() {
		return ""
	}

	if Ensure() != nil {
		return ""
	}

	return selectedName
}

// ForceFallback makes every Acquire call fail until re-enabled. Test hook
// for verifying that a chain built without acceleration stays connected.
func ForceFallback(v bool) {
	forceFallback.Store(v)
}
