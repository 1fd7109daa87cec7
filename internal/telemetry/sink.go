package telemetry

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/log"
)

// Sink delivers events popped from the Queue. Send is only called for events
// the sink Accepts, always from the worker goroutine.
type Sink interface {
	Name() string
	Accepts(ev core.LogEvent) bool
	Send(ev core.LogEvent) error
	Close() error
}

// Env carries the shared collaborators a sink factory may need.
type Env struct {
	Encoder Encoder
	Logger  log.Logger
}

// Factory builds a sink from its decoded options map.
type Factory func(options map[string]any, env Env) (Sink, error)

var factories = map[string]Factory{
	config.SinkUDP:   newUDPSinkFromOptions,
	config.SinkText:  newTextSinkFromOptions,
	config.SinkKafka: newKafkaSinkFromOptions,
}

// Types lists the registered sink types.
func Types() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSinks builds every sink listed in cfg. On failure the sinks already
// built are closed.
func NewSinks(cfg config.TelemetryConfig, logger log.Logger) ([]Sink, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	env := Env{Encoder: NewEncoder(cfg.MACCase), Logger: logger}

	sinks := make([]Sink, 0, len(cfg.Sinks))
	for i, sc := range cfg.Sinks {
		factory, ok := factories[sc.Type]
		if !ok {
			closeAll(sinks)
			return nil, fmt.Errorf("%w: telemetry.sinks[%d]: unknown type %q", core.ErrConfigInvalid, i, sc.Type)
		}
		s, err := factory(sc.Options, env)
		if err != nil {
			closeAll(sinks)
			return nil, fmt.Errorf("telemetry.sinks[%d] (%s): %w", i, sc.Type, err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func closeAll(sinks []Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// decodeOptions maps a loosely typed options map onto out. Durations may be
// given as strings such as "200ms".
func decodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}
