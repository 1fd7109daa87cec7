// Package core defines core data structures with zero external dependencies.
package core

// Severity grades a TextEvent.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// LogEvent is the unit carried by the telemetry queue. It is a closed sum
// type: the only implementations are TextEvent and PacketEvent.
type LogEvent interface {
	logEvent()
}

// TextEvent is a formatted, human-readable line.
type TextEvent struct {
	Severity Severity
	Message  string
	Fields   map[string]any
}

// PacketEvent carries the finished metadata of one frame. The value is
// copied on enqueue and never mutated afterwards.
type PacketEvent struct {
	Meta PacketMetadata
}

func (TextEvent) logEvent()   {}
func (PacketEvent) logEvent() {}

// Text builds an informational TextEvent.
func Text(msg string, fields map[string]any) TextEvent {
	return TextEvent{Severity: SeverityInfo, Message: msg, Fields: fields}
}

// Warn builds a warning TextEvent.
func Warn(msg string, fields map[string]any) TextEvent {
	return TextEvent{Severity: SeverityWarn, Message: msg, Fields: fields}
}

// Error builds an error TextEvent.
func Error(msg string, fields map[string]any) TextEvent {
	return TextEvent{Severity: SeverityError, Message: msg, Fields: fields}
}
