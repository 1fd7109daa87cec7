package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

type logrusAdapter struct {
	entry *logrus.Entry
}

func newAdapter(level logrus.Level, pattern, timeLayout string, caller bool, out io.Writer) *logrusAdapter {
	l := logrus.New()
	l.SetFormatter(&formatter{
		pattern: pattern,
		time:    timeLayout,
	})
	l.SetLevel(level)
	l.SetReportCaller(caller)
	l.SetOutput(out)
	return &logrusAdapter{entry: logrus.NewEntry(l)}
}

func (l *logrusAdapter) Print(args ...any)                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...any) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...any)                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...any) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...any)                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...any)                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...any) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...any)                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...any)                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...any)                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...any) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) WithField(field string, value any) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}

func (l *logrusAdapter) WithFields(fields map[string]any) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}

func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool { return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel) }
func (l *logrusAdapter) IsDebugEnabled() bool { return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) }
func (l *logrusAdapter) IsInfoEnabled() bool  { return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel) }
