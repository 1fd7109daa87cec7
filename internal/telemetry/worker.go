package telemetry

import (
	"errors"
	"fmt"
	"sync/atomic"

	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/log"
)

// Observer is told the outcome of every delivery attempt.
type Observer func(sink string, ev core.LogEvent, err error)

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithObserver registers a delivery observer.
func WithObserver(o Observer) WorkerOption {
	return func(w *Worker) { w.observe = o }
}

// WithLogger sets the logger used for send failures.
func WithLogger(l log.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

// WorkerStats counts what the worker did.
type WorkerStats struct {
	Events  uint64
	Packets uint64
	Texts   uint64
	Sent    uint64
	Failed  uint64
}

// Worker is the single consumer of a Queue.
type Worker struct {
	queue   *Queue
	sinks   []Sink
	observe Observer
	logger  log.Logger

	events  atomic.Uint64
	packets atomic.Uint64
	texts   atomic.Uint64
	sent    atomic.Uint64
	failed  atomic.Uint64
}

// NewWorker creates a worker draining q into sinks.
func NewWorker(q *Queue, sinks []Sink, opts ...WorkerOption) *Worker {
	w := &Worker{queue: q, sinks: sinks}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.GetLogger()
	}
	return w
}

// Run delivers events in queue order until the queue is closed and empty,
// then closes every sink. Send failures are counted and otherwise ignored.
func (w *Worker) Run() error {
	for {
		ev, ok := w.queue.Pop()
		if !ok {
			break
		}
		w.deliver(ev)
	}

	var errs []error
	for _, s := range w.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (w *Worker) deliver(ev core.LogEvent) {
	w.events.Add(1)
	switch ev.(type) {
	case core.PacketEvent:
		w.packets.Add(1)
	case core.TextEvent:
		w.texts.Add(1)
	}

	for _, s := range w.sinks {
		if !s.Accepts(ev) {
			continue
		}
		err := s.Send(ev)
		if err != nil {
			w.failed.Add(1)
			if w.logger.IsDebugEnabled() {
				w.logger.WithError(err).WithField("sink", s.Name()).Debug("telemetry send failed")
			}
		} else {
			w.sent.Add(1)
		}
		if w.observe != nil {
			w.observe(s.Name(), ev, err)
		}
	}
}

// Stats returns a snapshot of the counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Events:  w.events.Load(),
		Packets: w.packets.Load(),
		Texts:   w.texts.Load(),
		Sent:    w.sent.Load(),
		Failed:  w.failed.Load(),
	}
}
