// Package metrics delivers meter readings from the audio render path to
// observers without ever blocking it. Readings travel through a single-slot
// mailbox where the latest value wins, a scheduler fans them out to
// subscribers on a tick whose rate adapts to the subscriber count, and an
// analyzer provides a degraded reading sampled from the time domain when the
// accelerated meter is unavailable.
package metrics

import "github.com/cwbudde/algo-mastering/measure/loudness"

// Mailbox is a single-slot handoff between the render path and the metrics
// scheduler. Publish never blocks: if the consumer has not taken the previous
// reading it is overwritten. There is no backpressure by construction, so a
// stalled observer can never stall audio.
type Mailbox struct {
	slot chan loudness.Metrics
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan loudness.Metrics, 1)}
}

// Publish stores a reading, replacing any unread one.
func (m *Mailbox) Publish(v loudness.Metrics) {
	for {
		select {
		case m.slot <- v:
			return
		default:
		}

		// Slot full: discard the stale reading and retry.
		select {
		case <-m.slot:
		default:
		}
	}
}

// Take removes and returns the latest reading, reporting false when none has
// arrived since the last call.
func (m *Mailbox) Take() (loudness.Metrics, bool) {
	select {
	case v := <-m.slot:
		return v, true
	default:
		return loudness.Metrics{}, false
	}
}
