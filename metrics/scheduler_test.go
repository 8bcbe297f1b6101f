package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-mastering/measure/loudness"
)

func TestTickIntervalAdaptsToSubscriberCount(t *testing.T) {
	s := NewScheduler(NewMailbox())

	keep := func(loudness.Metrics) error { return nil }

	if got := s.TickInterval(); got != time.Second/60 {
		t.Fatalf("empty scheduler interval = %v, want %v", got, time.Second/60)
	}

	var ids []int64

	for i := 0; i < 8; i++ {
		ids = append(ids, s.Subscribe("test", keep, SubscriptionOptions{}))
	}

	if got := s.TickInterval(); got != time.Second/60 {
		t.Fatalf("8 subscribers interval = %v, want full rate", got)
	}

	ids = append(ids, s.Subscribe("test", keep, SubscriptionOptions{}))

	if got := s.TickInterval(); got != time.Second/45 {
		t.Fatalf("9 subscribers interval = %v, want %v", got, time.Second/45)
	}

	for len(ids) < 17 {
		ids = append(ids, s.Subscribe("test", keep, SubscriptionOptions{}))
	}

	if got := s.TickInterval(); got != time.Second/30 {
		t.Fatalf("17 subscribers interval = %v, want %v", got, time.Second/30)
	}

	for _, id := range ids[8:] {
		s.Unsubscribe(id)
	}

	if got := s.TickInterval(); got != time.Second/60 {
		t.Fatalf("interval after unsubscribe = %v, want full rate", got)
	}
}

func TestUnsubscribeUnknownID(t *testing.T) {
	s := NewScheduler(NewMailbox())

	if s.Unsubscribe(99) {
		t.Fatal("Unsubscribe reported success for an unknown ID")
	}
}

func TestDeliverFansOutToAllSubscribers(t *testing.T) {
	s := NewScheduler(NewMailbox())

	var (
		mu  sync.Mutex
		got []float64
	)

	for i := 0; i < 3; i++ {
		s.Subscribe("test", func(m loudness.Metrics) error {
			mu.Lock()
			got = append(got, m.MomentaryLUFS)
			mu.Unlock()

			return nil
		}, SubscriptionOptions{})
	}

	s.deliver(loudness.Metrics{MomentaryLUFS: -14}, time.Now())

	mu.Lock()
	defer mu.Unlock()

	if len(got) != 3 {
		t.Fatalf("delivered to %d subscribers, want 3", len(got))
	}

	for _, v := range got {
		if v != -14 {
			t.Fatalf("subscriber saw %v, want -14", v)
		}
	}
}

func TestFailingCallbackIsDroppedOthersSurvive(t *testing.T) {
	s := NewScheduler(NewMailbox())

	var healthy int

	s.Subscribe("bad", func(loudness.Metrics) error {
		return errors.New("read failed")
	}, SubscriptionOptions{})

	s.Subscribe("good", func(loudness.Metrics) error {
		healthy++

		return nil
	}, SubscriptionOptions{})

	s.deliver(loudness.Metrics{}, time.Now())

	if s.Subscribers() != 1 {
		t.Fatalf("subscribers after failure = %d, want 1", s.Subscribers())
	}

	s.deliver(loudness.Metrics{}, time.Now())

	if healthy != 2 {
		t.Fatalf("healthy subscriber ran %d times, want 2", healthy)
	}
}

func TestPanickingCallbackIsDropped(t *testing.T) {
	s := NewScheduler(NewMailbox())

	s.Subscribe("panicky", func(loudness.Metrics) error {
		panic("boom")
	}, SubscriptionOptions{})

	var survived int

	s.Subscribe("good", func(loudness.Metrics) error {
		survived++

		return nil
	}, SubscriptionOptions{})

	s.deliver(loudness.Metrics{}, time.Now())

	if s.Subscribers() != 1 {
		t.Fatalf("subscribers after panic = %d, want 1", s.Subscribers())
	}

	if survived != 1 {
		t.Fatalf("healthy subscriber ran %d times, want 1", survived)
	}
}

func TestMinIntervalThrottlesSubscriber(t *testing.T) {
	s := NewScheduler(NewMailbox())

	var calls int

	s.Subscribe("slow", func(loudness.Metrics) error {
		calls++

		return nil
	}, SubscriptionOptions{MinInterval: 100 * time.Millisecond})

	base := time.Unix(1000, 0)

	s.deliver(loudness.Metrics{}, base)
	s.deliver(loudness.Metrics{}, base.Add(16*time.Millisecond))
	s.deliver(loudness.Metrics{}, base.Add(120*time.Millisecond))

	if calls != 2 {
		t.Fatalf("throttled subscriber ran %d times, want 2", calls)
	}
}

func TestRunDrainsMailbox(t *testing.T) {
	mb := NewMailbox()
	s := NewScheduler(mb)

	received := make(chan float64, 16)

	s.Subscribe("test", func(m loudness.Metrics) error {
		select {
		case received <- m.MomentaryLUFS:
		default:
		}

		return nil
	}, SubscriptionOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.Run(ctx)
		close(done)
	}()

	mb.Publish(loudness.Metrics{MomentaryLUFS: -14})

	select {
	case v := <-received:
		if v != -14 {
			t.Fatalf("received %v, want -14", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received a reading")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
