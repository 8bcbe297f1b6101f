// Package pool provides a bounded free list for analysis scratch buffers.
//
// Unlike sync.Pool it has a hard capacity, hands out buffers of one fixed
// size, and evicts entries that have sat idle past a timeout so a burst of
// analysis work does not pin memory forever. When the list is empty Get
// falls back to a fresh allocation, so exhaustion degrades to GC pressure
// rather than blocking the caller.
package pool

import (
	"sync"
	"time"
)

type entry struct {
	buf  []float64
	idle time.Time
}

// Pool is a bounded LIFO free list of equally sized float64 buffers.
// All methods are safe for concurrent use.
type Pool struct {
	mu   sync.Mutex
	free []entry

	size    int
	max     int
	idleTTL time.Duration

	now func() time.Time
}

// New returns a pool of buffers of length size, holding at most max idle
// buffers, evicting any that stay unused longer than idleTTL. A non-positive
// idleTTL disables eviction.
func New(size, max int, idleTTL time.Duration) *Pool {
	if size < 1 {
		size = 1
	}

	if max < 1 {
		max = 1
	}

	return &Pool{
		size:    size,
		max:     max,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Get returns a buffer of the pool's size, reusing the most recently
// returned one when available.
func (p *Pool) Get() []float64 {
	p.mu.Lock()
	p.evictLocked()

	if n := len(p.free); n > 0 {
		buf := p.free[n-1].buf
		p.free[n-1] = entry{}
		p.free = p.free[:n-1]
		p.mu.Unlock()

		return buf
	}
	p.mu.Unlock()

	return make([]float64, p.size)
}

// Put returns a buffer to the pool. Buffers of the wrong size, or arriving
// while the pool is full, are dropped for the GC to collect.
func (p *Pool) Put(buf []float64) {
	if len(buf) != p.size {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.evictLocked()

	if len(p.free) >= p.max {
		return
	}

	p.free = append(p.free, entry{buf: buf, idle: p.now()})
}

// Idle reports how many buffers are currently held, after evicting stale
// ones.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evictLocked()

	return len(p.free)
}

// Size returns the length of buffers this pool hands out.
func (p *Pool) Size() int { return p.size }

// evictLocked drops entries idle past the TTL. The list is ordered oldest
// first, so eviction stops at the first fresh entry.
func (p *Pool) evictLocked() {
	if p.idleTTL <= 0 || len(p.free) == 0 {
		return
	}

	cutoff := p.now().Add(-p.idleTTL)

	keep := 0
	for keep < len(p.free) && p.free[keep].idle.Before(cutoff) {
		keep++
	}

	if keep == 0 {
		return
	}

	n := copy(p.free, p.free[keep:])
	for i := n; i < len(p.free); i++ {
		p.free[i] = entry{}
	}
	p.free = p.free[:n]
}
