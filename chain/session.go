package chain

// Sessions is an explicit registry of per-session chains, keyed by session
// identity. There is no package-level singleton chain: each hosting session
// creates its chain on first use through its registry and disposes it on
// teardown, so concurrent sessions never share engine state.

import (
	"sync"

	"github.com/cwbudde/algo-mastering/profile"
)

// Sessions maps session IDs to their owned chains. The zero value is not
// usable; call NewSessions.
type Sessions struct {
	mu     sync.Mutex
	chains map[string]*MasterChain
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{chains: make(map[string]*MasterChain)}
}

// Acquire returns the session's chain, building it on first use with the
// given parameters. Later calls for the same ID return the existing chain
// regardless of arguments.
func (s *Sessions) Acquire(id string, sampleRate float64, p profile.Profile, opts ...Option) (*MasterChain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.chains[id]; ok {
		return c, nil
	}

	c, err := Build(sampleRate, p, opts...)
	if err != nil {
		return nil, err
	}

	s.chains[id] = c

	return c, nil
}

// Get returns the session's chain without creating one.
func (s *Sessions) Get(id string) (*MasterChain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chains[id]

	return c, ok
}

// Release disposes and removes the session's chain, reporting whether it
// existed. Releasing an unknown ID is a no-op.
func (s *Sessions) Release(id string) bool {
	s.mu.Lock()
	c, ok := s.chains[id]
	delete(s.chains, id)
	s.mu.Unlock()

	if ok {
		c.Dispose()
	}

	return ok
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.chains)
}

// Shutdown disposes every chain and empties the registry.
func (s *Sessions) Shutdown() {
	s.mu.Lock()
	chains := s.chains
	s.chains = make(map[string]*MasterChain)
	s.mu.Unlock()

	for _, c := range chains {
		c.Dispose()
	}
}
