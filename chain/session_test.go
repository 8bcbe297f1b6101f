package chain

import (
	"testing"

	"github.com/cwbudde/algo-mastering/profile"
)

func TestSessionsCreateOnFirstUse(t *testing.T) {
	s := NewSessions()

	p := profile.MustLookup(profile.Streaming)

	a, err := s.Acquire("session-a", testRate, p)
	if err != nil {
		t.Fatal(err)
	}

	again, err := s.Acquire("session-a", testRate, p)
	if err != nil {
		t.Fatal(err)
	}

	if a != again {
		t.Fatal("Acquire built a second chain for the same session")
	}

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewSessions()

	p := profile.MustLookup(profile.Streaming)

	a, _ := s.Acquire("a", testRate, p)
	b, _ := s.Acquire("b", testRate, p)

	if a == b {
		t.Fatal("distinct sessions share a chain")
	}

	a.SetProfile(profile.MustLookup(profile.Club))

	if b.Profile().Key != profile.Streaming {
		t.Fatal("profile change leaked across sessions")
	}
}

func TestSessionsReleaseDisposes(t *testing.T) {
	s := NewSessions()

	c, _ := s.Acquire("a", testRate, profile.MustLookup(profile.Streaming))

	if !s.Release("a") {
		t.Fatal("Release reported no session")
	}

	if !c.Disposed() {
		t.Fatal("released chain was not disposed")
	}

	if s.Release("a") {
		t.Fatal("second Release reported a session")
	}

	if _, ok := s.Get("a"); ok {
		t.Fatal("released session still registered")
	}
}

func TestSessionsAcquirePropagatesBuildError(t *testing.T) {
	s := NewSessions()

	if _, err := s.Acquire("bad", 0, profile.MustLookup(profile.Streaming)); err == nil {
		t.Fatal("Acquire accepted an invalid sample rate")
	}

	if s.Len() != 0 {
		t.Fatalf("failed Acquire left %d sessions registered", s.Len())
	}
}

func TestSessionsShutdown(t *testing.T) {
	s := NewSessions()

	a, _ := s.Acquire("a", testRate, profile.MustLookup(profile.Streaming))
	b, _ := s.Acquire("b", testRate, profile.MustLookup(profile.Vinyl))

	s.Shutdown()

	if !a.Disposed() || !b.Disposed() {
		t.Fatal("Shutdown left a chain undisposed")
	}

	if s.Len() != 0 {
		t.Fatalf("Len after Shutdown = %d, want 0", s.Len())
	}
}
