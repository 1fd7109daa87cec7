// Package pipeline runs the capture supervisor: source → dispatcher →
// telemetry queue, with a single telemetry worker draining the queue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/core/decoder"
	"firestige.xyz/ringsniff/internal/log"
	"firestige.xyz/ringsniff/internal/metrics"
	"firestige.xyz/ringsniff/internal/source"
	"firestige.xyz/ringsniff/internal/telemetry"
)

// LossMessage is the text event raised when the kernel reports ring overrun.
const LossMessage = "ring buffer full - packets dropped by kernel"

// depthEvery is how many frames pass between queue depth gauge updates.
const depthEvery = 64

// Config contains pipeline configuration.
type Config struct {
	// Interface and Engine label metrics and logs.
	Interface string
	Engine    string

	Source     source.Source
	Dispatcher *decoder.Dispatcher
	Queue      *telemetry.Queue
	Worker     *telemetry.Worker
	Logger     log.Logger
}

// Pipeline owns one capture run. Capture and decode happen on the goroutine
// calling Run; the telemetry worker runs on its own goroutine.
type Pipeline struct {
	iface      string
	engine     string
	source     source.Source
	dispatcher *decoder.Dispatcher
	queue      *telemetry.Queue
	worker     *telemetry.Worker
	logger     log.Logger
	stats      *Stats
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = decoder.NewDispatcher(core.ModeManaged, false, nil, nil)
	}
	return &Pipeline{
		iface:      cfg.Interface,
		engine:     cfg.Engine,
		source:     cfg.Source,
		dispatcher: cfg.Dispatcher,
		queue:      cfg.Queue,
		worker:     cfg.Worker,
		logger:     cfg.Logger,
		stats:      &Stats{},
	}
}

// Run captures until ctx is done or the source is exhausted, then closes the
// queue and waits for the worker to drain it. The shutdown summary is logged
// in every case.
func (p *Pipeline) Run(ctx context.Context) error {
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- p.worker.Run()
	}()

	mode, probed := p.dispatcher.Mode()
	p.logger.WithFields(map[string]any{
		"interface": p.iface,
		"engine":    p.engine,
		"mode":      mode.String(),
		"probed":    probed,
	}).Info("capture started")

	captureErr := p.captureLoop(ctx)

	p.queue.Close()
	workerErr := <-workerDone
	metrics.TelemetryQueueDepth.Set(0)

	p.logSummary()
	return errors.Join(captureErr, workerErr)
}

func (p *Pipeline) captureLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := p.source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				p.logger.Info("end of capture source")
				return nil
			case ctx.Err() != nil, errors.Is(err, core.ErrRingClosed):
				return nil
			}
			return fmt.Errorf("capture on %s: %w", p.iface, err)
		}

		p.process(frame)
	}
}

// process decodes one frame and hands it back to the source before the
// metadata is queued. Metadata never aliases frame memory.
func (p *Pipeline) process(frame *source.Frame) {
	frames := p.stats.Frames.Add(1)
	metrics.CaptureFramesTotal.WithLabelValues(p.iface, p.engine).Inc()

	if frame.Lost {
		p.stats.Lost.Add(1)
		metrics.CaptureLossTotal.WithLabelValues(p.iface, p.engine).Inc()
		p.push(core.Warn(LossMessage, map[string]any{"interface": p.iface}))
	}

	meta, mode, emit := p.dispatcher.Dispatch(frame.Data)
	if err := frame.Release(); err != nil {
		p.logger.WithError(err).Warn("frame released twice")
	}

	p.stats.countMode(mode)
	if !emit {
		p.stats.Filtered.Add(1)
		metrics.DecodedFramesTotal.WithLabelValues(mode.String(), metrics.OutcomeFiltered).Inc()
	} else {
		p.stats.Emitted.Add(1)
		metrics.DecodedFramesTotal.WithLabelValues(mode.String(), metrics.OutcomeEmitted).Inc()
		if meta.FrameKind == core.FrameKindEAPOL {
			p.stats.Handshakes.Add(1)
			metrics.HandshakesTotal.Inc()
		}
		p.push(core.PacketEvent{Meta: meta})
	}

	if frames%depthEvery == 0 {
		metrics.TelemetryQueueDepth.Set(float64(p.queue.Len()))
	}
}

func (p *Pipeline) push(ev core.LogEvent) {
	if err := p.queue.Push(ev); err != nil {
		p.stats.Rejected.Add(1)
	}
}

func (p *Pipeline) logSummary() {
	s := p.Stats()
	fields := map[string]any{
		"frames":     s.Frames,
		"lost":       s.Lost,
		"managed":    s.Managed,
		"monitor":    s.Monitor,
		"emitted":    s.Emitted,
		"filtered":   s.Filtered,
		"handshakes": s.Handshakes,
	}
	if p.worker != nil {
		w := p.worker.Stats()
		fields["telemetry_sent"] = w.Sent
		fields["telemetry_failed"] = w.Failed
	}
	p.logger.WithFields(fields).Info("capture stopped")
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Snapshot {
	return p.stats.Snapshot()
}
