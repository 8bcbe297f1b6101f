package pool

import (
	"testing"
	"time"
)

func TestGetReturnsRequestedSize(t *testing.T) {
	p := New(512, 4, time.Minute)

	buf := p.Get()
	if len(buf) != 512 {
		t.Fatalf("Get returned len %d, want 512", len(buf))
	}
}

func TestPutThenGetReusesBuffer(t *testing.T) {
	p := New(64, 4, time.Minute)

	buf := p.Get()
	buf[0] = 42
	p.Put(buf)

	again := p.Get()
	if &again[0] != &buf[0] {
		t.Fatal("expected the pooled buffer back")
	}
}

func TestPutDropsWrongSize(t *testing.T) {
	p := New(64, 4, time.Minute)

	p.Put(make([]float64, 63))
	if p.Idle() != 0 {
		t.Fatalf("wrong-size buffer was pooled, idle=%d", p.Idle())
	}
}

func TestCapacityBound(t *testing.T) {
	p := New(16, 2, time.Minute)

	for i := 0; i < 5; i++ {
		p.Put(make([]float64, 16))
	}

	if got := p.Idle(); got != 2 {
		t.Fatalf("idle = %d, want 2", got)
	}
}

func TestExhaustionAllocates(t *testing.T) {
	p := New(16, 2, time.Minute)

	a := p.Get()
	b := p.Get()

	if a == nil || b == nil {
		t.Fatal("Get returned nil on empty pool")
	}

	if &a[0] == &b[0] {
		t.Fatal("empty pool handed the same buffer twice")
	}
}

func TestIdleEviction(t *testing.T) {
	p := New(16, 4, 10*time.Millisecond)

	base := time.Unix(1000, 0)
	now := base
	p.now = func() time.Time { return now }

	p.Put(make([]float64, 16))
	p.Put(make([]float64, 16))

	now = base.Add(5 * time.Millisecond)
	if got := p.Idle(); got != 2 {
		t.Fatalf("idle = %d before TTL, want 2", got)
	}

	now = base.Add(20 * time.Millisecond)
	if got := p.Idle(); got != 0 {
		t.Fatalf("idle = %d after TTL, want 0", got)
	}
}

func TestZeroTTLDisablesEviction(t *testing.T) {
	p := New(16, 4, 0)

	base := time.Unix(1000, 0)
	now := base
	p.now = func() time.Time { return now }

	p.Put(make([]float64, 16))

	now = base.Add(24 * time.Hour)
	if got := p.Idle(); got != 1 {
		t.Fatalf("idle = %d, want 1 with eviction disabled", got)
	}
}
