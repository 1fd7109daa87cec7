// Package log provides the process-wide Logger backed by logrus.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"firestige.xyz/ringsniff/internal/config"
)

type Logger interface {
	Print(args ...any)
	Printf(format string, args ...any)

	Trace(args ...any)
	Tracef(format string, args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)

	Info(args ...any)
	Infof(format string, args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)

	WithField(field string, value any) Logger
	WithFields(fields map[string]any) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

const (
	DefaultPattern = "%time [%level] %msg %field\n"
	DefaultTime    = "2006-01-02 15:04:05.000"
)

var (
	once   sync.Once
	mu     sync.RWMutex
	logger *logrusAdapter
)

// GetLogger returns the global logger. Before Init it is a stdout logger at
// info level.
func GetLogger() Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = newAdapter(logrus.InfoLevel, DefaultPattern, DefaultTime, false, os.Stdout)
	}
	return logger
}

// Init configures the global logger once. Later calls are no-ops.
func Init(cfg config.LogConfig) error {
	var err error
	once.Do(func() {
		var l *logrusAdapter
		l, err = build(cfg, os.Stdout)
		if err != nil {
			return
		}
		mu.Lock()
		logger = l
		mu.Unlock()
	})
	return err
}

// New builds a standalone logger writing to out plus any configured file.
func New(cfg config.LogConfig, out io.Writer) (Logger, error) {
	return build(cfg, out)
}

func build(cfg config.LogConfig, out io.Writer) (*logrusAdapter, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := NewMultiWriter().Add(out)
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file output requires 'path' field")
		}
		w.AddFileAppender(FileAppenderOpt{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	timeLayout := cfg.Time
	if timeLayout == "" {
		timeLayout = DefaultTime
	}
	return newAdapter(level, pattern, timeLayout, cfg.Caller, w), nil
}

// SetLevel changes the global logger level at runtime.
func SetLevel(level string) error {
	lv, err := parseLevel(level)
	if err != nil {
		return err
	}
	GetLogger()
	mu.RLock()
	defer mu.RUnlock()
	logger.entry.Logger.SetLevel(lv)
	return nil
}

func parseLevel(level string) (logrus.Level, error) {
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level: %w", err)
	}
	return lv, nil
}
