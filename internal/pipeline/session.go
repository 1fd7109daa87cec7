package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/core/decoder"
	"firestige.xyz/ringsniff/internal/log"
	"firestige.xyz/ringsniff/internal/metrics"
	"firestige.xyz/ringsniff/internal/sink/capfile"
	"firestige.xyz/ringsniff/internal/source"
	"firestige.xyz/ringsniff/internal/source/file"
	"firestige.xyz/ringsniff/internal/telemetry"
)

// Session assembles everything one run needs around an already opened
// source: queue, sinks, worker, handshake file, dispatcher and the optional
// metrics server.
type Session struct {
	cfg      *config.Config
	label    string
	engine   string
	source   source.Source
	mode     core.Mode
	probed   bool
	logger   log.Logger
	sinks    []telemetry.Sink
	recorder *capfile.Writer
	pipeline *Pipeline
}

// NewSession builds a session. It takes ownership of src and closes it when
// the session ends, including when NewSession fails.
func NewSession(cfg *config.Config, label, engine string, src source.Source, mode core.Mode, probed bool, logger log.Logger) (*Session, error) {
	return newSession(cfg, label, engine, src, mode, probed, true, logger)
}

// newSession builds a session; without record, handshake frames are detected
// and reported but not appended to the handshake file.
func newSession(cfg *config.Config, label, engine string, src source.Source, mode core.Mode, probed, record bool, logger log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	s := &Session{
		cfg:    cfg,
		label:  label,
		engine: engine,
		source: src,
		mode:   mode,
		probed: probed,
		logger: logger,
	}

	var recorder decoder.HandshakeRecorder
	if record {
		w, err := capfile.Open(cfg.Wireless.HandshakeFile)
		if err != nil {
			return nil, errors.Join(err, src.Close())
		}
		s.recorder = w
		recorder = w
	}

	sinks, err := telemetry.NewSinks(cfg.Telemetry, logger)
	if err != nil {
		return nil, errors.Join(err, src.Close())
	}
	s.sinks = sinks

	queue := telemetry.NewQueue(cfg.Telemetry.QueueCapacityHint)
	worker := telemetry.NewWorker(queue, sinks,
		telemetry.WithLogger(logger),
		telemetry.WithObserver(func(sink string, _ core.LogEvent, err error) {
			metrics.ObserveTelemetry(sink, err)
		}),
	)
	wireless := decoder.NewWireless(queue, recorder)
	dispatcher := decoder.NewDispatcher(mode, probed, decoder.Wired{}, wireless)

	s.pipeline = New(Config{
		Interface:  label,
		Engine:     engine,
		Source:     src,
		Dispatcher: dispatcher,
		Queue:      queue,
		Worker:     worker,
		Logger:     logger,
	})
	return s, nil
}

// Pipeline returns the session's pipeline.
func (s *Session) Pipeline() *Pipeline {
	return s.pipeline
}

// Run starts the metrics server if enabled, runs the pipeline and releases
// every resource on the way out.
func (s *Session) Run(ctx context.Context) error {
	var server *metrics.Server
	if s.cfg.Metrics.Enabled {
		server = metrics.NewServer(s.cfg.Metrics.Listen, s.cfg.Metrics.Path)
		if err := server.Start(ctx); err != nil {
			// The worker never ran, so the sinks are still open.
			for _, sink := range s.sinks {
				_ = sink.Close()
			}
			return errors.Join(err, s.source.Close())
		}
	}

	runErr := s.pipeline.Run(ctx)

	errs := []error{runErr}
	if err := s.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close handshake file: %w", err))
		}
	}
	if server != nil {
		if err := server.Stop(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if s.recorder == nil {
		return errors.Join(errs...)
	}
	if n := s.recorder.Frames(); n > 0 {
		s.logger.WithFields(map[string]any{"path": s.recorder.Path(), "frames": n}).Info("handshake frames saved")
	}
	return errors.Join(errs...)
}

// RunLive captures on cfg.Capture.Interface until ctx is done.
func RunLive(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	mode, probed, err := ResolveMode(cfg.Capture.Mode, cfg.Capture.Interface, nil, logger)
	if err != nil {
		return err
	}
	src, err := OpenLive(cfg.Capture)
	if err != nil {
		return err
	}
	s, err := NewSession(cfg, cfg.Capture.Interface, cfg.Capture.Engine, src, mode, probed, logger)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// RunReplay decodes a pcap file through the same pipeline. modeOverride may
// be empty, in which case the file's link type decides.
func RunReplay(ctx context.Context, cfg *config.Config, path, modeOverride string, logger log.Logger) error {
	if logger == nil {
		logger = log.GetLogger()
	}
	src, err := file.Open(path)
	if err != nil {
		return err
	}
	mode := src.Mode()
	if modeOverride != "" && modeOverride != config.ModeAuto {
		if mode, err = core.ParseMode(modeOverride); err != nil {
			return errors.Join(err, src.Close())
		}
	}
	// Appending to the file being read would feed every handshake back
	// into the replay.
	record := !sameFile(path, cfg.Wireless.HandshakeFile)
	if !record {
		logger.WithFields(map[string]any{"path": path}).Warn("replaying the handshake file, saving disabled")
	}
	s, err := newSession(cfg, path, "file", src, mode, true, record, logger)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// sameFile reports whether a and b name the same existing file.
func sameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
