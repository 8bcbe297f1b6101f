package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-mastering/measure/loudness"
)

// Tick rates by subscriber count. All subscribers share one periodic tick;
// as more attach, the shared rate steps down so total callback cost stays
// bounded instead of growing per listener.
const (
	fullRateHz      = 60
	fullRateMaxSubs = 8

	midRateHz      = 45
	midRateMaxSubs = 16

	lowRateHz = 30
)

// Callback receives one metrics snapshot per scheduler tick. Returning an
// error drops the subscription; other subscribers are unaffected.
type Callback func(loudness.Metrics) error

// SubscriptionOptions tune delivery for a single subscriber.
type SubscriptionOptions struct {
	// MinInterval throttles this subscriber below the shared tick rate.
	// Zero delivers on every tick.
	MinInterval time.Duration
}

type subscription struct {
	id       int64
	source   string
	callback Callback
	opts     SubscriptionOptions
	last     time.Time
}

// Scheduler drains a mailbox on a periodic tick and fans the latest reading
// out to all subscribers. Subscribe and Unsubscribe are safe to call from
// any goroutine while Run is active.
type Scheduler struct {
	mailbox *Mailbox
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[int64]*subscription
	nextID int64

	retick chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger routes drop notices to the given logger instead of slog.Default.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler returns a scheduler draining mb.
func NewScheduler(mb *Mailbox, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		mailbox: mb,
		logger:  slog.Default(),
		subs:    make(map[int64]*subscription),
		retick:  make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Subscribe registers a callback and returns its subscription ID. The source
// label identifies the consumer in logs when its subscription is dropped.
func (s *Scheduler) Subscribe(source string, cb Callback, opts SubscriptionOptions) int64 {
	s.mu.Lock()

	s.nextID++
	id := s.nextID
	s.subs[id] = &subscription{id: id, source: source, callback: cb, opts: opts}

	s.mu.Unlock()

	s.signalRetick()

	return id
}

// Unsubscribe removes a subscription, reporting whether it existed.
func (s *Scheduler) Unsubscribe(id int64) bool {
	s.mu.Lock()
	_, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()

	if ok {
		s.signalRetick()
	}

	return ok
}

// Subscribers returns the number of active subscriptions.
func (s *Scheduler) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

// TickInterval returns the shared tick period for the current subscriber
// count.
func (s *Scheduler) TickInterval() time.Duration {
	n := s.Subscribers()

	switch {
	case n <= fullRateMaxSubs:
		return time.Second / fullRateHz
	case n <= midRateMaxSubs:
		return time.Second / midRateHz
	default:
		return time.Second / lowRateHz
	}
}

// Run drains the mailbox until ctx is canceled. It blocks; callers start it
// on a dedicated goroutine. The tick rate is re-evaluated whenever the
// subscriber count changes.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.retick:
			ticker.Reset(s.TickInterval())
		case now := <-ticker.C:
			if v, ok := s.mailbox.Take(); ok {
				s.deliver(v, now)
			}
		}
	}
}

// deliver fans one reading out to every due subscriber, dropping any whose
// callback fails.
func (s *Scheduler) deliver(v loudness.Metrics, now time.Time) {
	s.mu.Lock()
	due := make([]*subscription, 0, len(s.subs))

	for _, sub := range s.subs {
		if sub.opts.MinInterval > 0 && now.Sub(sub.last) < sub.opts.MinInterval {
			continue
		}

		sub.last = now
		due = append(due, sub)
	}
	s.mu.Unlock()

	type failure struct {
		sub *subscription
		err error
	}

	var failed []failure

	for _, sub := range due {
		if err := invoke(sub.callback, v); err != nil {
			failed = append(failed, failure{sub: sub, err: err})
		}
	}

	if len(failed) == 0 {
		return
	}

	s.mu.Lock()
	for _, f := range failed {
		delete(s.subs, f.sub.id)
	}
	s.mu.Unlock()

	for _, f := range failed {
		s.logger.Warn("metrics subscription dropped after callback error",
			"id", f.sub.id, "source", f.sub.source, "err", f.err)
	}

	s.signalRetick()
}

// invoke runs one callback, converting a panic into an error so a misbehaving
// subscriber takes down its own subscription and nothing else.
func invoke(cb Callback, v loudness.Metrics) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metrics: callback panic: %v", r)
		}
	}()

	return cb(v)
}

func (s *Scheduler) signalRetick() {
	select {
	case s.retick <- struct{}{}:
	default:
	}
}
