// Package telemetry carries decoded events from the capture path to the
// configured sinks.
package telemetry

import (
	"sync"

	"firestige.xyz/ringsniff/internal/core"
)

// compactThreshold is the number of consumed slots after which the backing
// slice is shifted down.
const compactThreshold = 1024

// Queue is an unbounded FIFO of core.LogEvent. Any number of goroutines may
// Push; a single consumer Pops. Events are delivered in the order their Push
// calls acquired the lock.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []core.LogEvent
	head   int
	closed bool
}

// NewQueue creates a queue whose backing slice starts with capacity hint.
// The hint never limits how many events the queue holds.
func NewQueue(hint int) *Queue {
	if hint < 0 {
		hint = 0
	}
	q := &Queue{items: make([]core.LogEvent, 0, hint)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends ev and wakes the consumer. It never waits on I/O.
func (q *Queue) Push(ev core.LogEvent) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return core.ErrQueueClosed
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.cond.Signal()
	return nil
}

// Pop blocks until an event is available or the queue is closed. After Close
// it keeps returning queued events; ok is false once none remain.
func (q *Queue) Pop() (ev core.LogEvent, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}
	if q.head == len(q.items) {
		return nil, false
	}

	ev = q.items[q.head]
	q.items[q.head] = nil
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return ev, true
}

// Close stops accepting events and wakes the consumer. Safe to call twice.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
