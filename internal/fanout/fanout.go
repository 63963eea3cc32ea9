// Package fanout is the Live-Event bus (spec §4.4): an in-process
// pub/sub topic used to stream run.* events to WebSocket clients. It
// generalizes the teacher's statusCallback broadcast pattern
// (peace/internal/task_executor/scheduler/scheduler.go pushes status
// updates through a callback into whatever's listening) into a proper
// multi-subscriber bus with bounded, drop-oldest mailboxes.
package fanout

import (
	"sync"
	"time"
)

// EventType names the kinds of events the bus carries (spec §4.4).
type EventType string

const (
	EventRunStarted     EventType = "run.started"
	EventRunStdout      EventType = "run.stdout"
	EventRunStderr      EventType = "run.stderr"
	EventRunFinished    EventType = "run.finished"
	EventTriggerOverrun EventType = "trigger.overrun"
	EventEnvReady       EventType = "env.ready"
	EventEnvFailed      EventType = "env.failed"
)

// Event is one message published on the bus. Timestamp is stamped by
// Publish, not by the caller, so every subscriber sees the same wall
// clock for a given Seq regardless of when it was handed the event.
type Event struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	ScriptID      uint      `json:"script_id,omitempty"`
	RunID         uint      `json:"run_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Seq           uint64    `json:"seq,omitempty"`
	Data          any       `json:"data,omitempty"`
}

// Filter restricts which events a Subscription receives. A nil/empty
// field means "no restriction" on that dimension.
type Filter struct {
	ScriptID *uint
	Types    map[EventType]bool
}

func (f Filter) matches(e Event) bool {
	if f.ScriptID != nil && e.ScriptID != *f.ScriptID {
		return false
	}
	if len(f.Types) > 0 && !f.Types[e.Type] {
		return false
	}
	return true
}

// Subscription is a bounded mailbox fed by the bus. When the mailbox
// fills, the oldest queued event is dropped to make room and Lag is
// incremented — publishers never block on a slow subscriber.
type Subscription struct {
	C      <-chan Event
	lag    *uint64
	mu     *sync.Mutex
	c      chan Event
	closed bool
	filt   Filter
}

// Lag reports how many events have been dropped for this subscriber
// since it connected. It only increases.
func (s *Subscription) Lag() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.lag
}

// Bus is the shared pub/sub hub. Zero value is not usable; use New.
type Bus struct {
	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
	mailbox     int
	seq         uint64
}

// New creates a Bus whose subscriber mailboxes hold up to mailbox
// events before the bus starts dropping the oldest queued one.
func New(mailbox int) *Bus {
	if mailbox <= 0 {
		mailbox = 256
	}
	return &Bus{subscribers: make(map[*Subscription]struct{}), mailbox: mailbox}
}

// Subscribe registers a new mailbox filtered by f. Call Unsubscribe
// when the consumer (typically a WebSocket connection) goes away.
func (b *Bus) Subscribe(f Filter) *Subscription {
	ch := make(chan Event, b.mailbox)
	var lag uint64
	sub := &Subscription{C: ch, c: ch, lag: &lag, mu: &sync.Mutex{}, filt: f}

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub from the bus and closes its mailbox. Closing
// happens under sub.mu, the same lock deliver holds for the duration
// of a send attempt, so a Publish already in deliver for this sub
// either finishes before the close or never starts once closed is
// set — either way nothing ever sends on a closed channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subscribers[sub]
	delete(b.subscribers, sub)
	b.mu.Unlock()
	if !ok {
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.closed = true
	close(sub.c)
}

// Publish delivers e to every subscriber whose filter matches,
// assigning it the bus's next sequence number so per-run ordering is
// always recoverable even if a subscriber's mailbox overflows.
func (b *Bus) Publish(e Event) {
	e.Timestamp = time.Now().UTC()

	b.mu.Lock()
	b.seq++
	e.Seq = b.seq
	subs := make([]*Subscription, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		if !sub.filt.matches(e) {
			continue
		}
		deliver(sub, e)
	}
}

// deliver is non-blocking: if the mailbox is full, the oldest queued
// event is discarded to make room for e, and Lag is bumped. It is a
// no-op once the subscriber has unsubscribed — sub.closed is only ever
// set under sub.mu, the same lock held here.
func deliver(sub *Subscription, e Event) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.c <- e:
			return
		default:
		}
		select {
		case <-sub.c:
			*sub.lag++
		default:
			// Mailbox drained concurrently by its reader; retry the send.
		}
	}
}
