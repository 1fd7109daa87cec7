// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"firestige.xyz/ringsniff/internal/core"
)

// Config is the full runtime configuration.
type Config struct {
	Capture   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	Wireless  WirelessConfig  `mapstructure:"wireless" yaml:"wireless"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// ─── Capture ───

// CaptureConfig selects the capture engine and sizes its ring.
type CaptureConfig struct {
	Interface   string        `mapstructure:"interface" yaml:"interface"`
	Engine      string        `mapstructure:"engine" yaml:"engine"` // ring | afpacket
	FrameSize   int           `mapstructure:"frame_size" yaml:"frame_size"`
	BlockCount  int           `mapstructure:"block_count" yaml:"block_count"`
	BufferMB    int           `mapstructure:"buffer_mb" yaml:"buffer_mb"` // afpacket only; 0 = use ring geometry
	PollTimeout time.Duration `mapstructure:"poll_timeout" yaml:"poll_timeout"`
	Promiscuous bool          `mapstructure:"promiscuous" yaml:"promiscuous"`
	Mode        string        `mapstructure:"mode" yaml:"mode"` // auto | monitor | managed
}

const (
	EngineRing     = "ring"
	EngineAFPacket = "afpacket"

	ModeAuto = "auto"
)

// ─── Wireless ───

// WirelessConfig configures monitor-mode extras.
type WirelessConfig struct {
	HandshakeFile string `mapstructure:"handshake_file" yaml:"handshake_file"`
}

// ─── Telemetry ───

// TelemetryConfig configures the event queue and its sinks.
type TelemetryConfig struct {
	QueueCapacityHint int          `mapstructure:"queue_capacity_hint" yaml:"queue_capacity_hint"`
	MACCase           string       `mapstructure:"mac_case" yaml:"mac_case"` // upper | lower
	Sinks             []SinkConfig `mapstructure:"sinks" yaml:"sinks"`
}

// SinkConfig names a sink type and its type-specific options.
type SinkConfig struct {
	Type    string         `mapstructure:"type" yaml:"type"` // udp | text | kafka
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty"`
}

const (
	SinkUDP   = "udp"
	SinkText  = "text"
	SinkKafka = "kafka"

	DefaultUDPAddress = "127.0.0.1:5005"
)

// OverrideUDP points every udp sink at addr, adding one if none exists.
func (t *TelemetryConfig) OverrideUDP(addr string) {
	found := false
	for i := range t.Sinks {
		if t.Sinks[i].Type != SinkUDP {
			continue
		}
		opts := make(map[string]any, len(t.Sinks[i].Options)+1)
		for k, v := range t.Sinks[i].Options {
			opts[k] = v
		}
		opts["address"] = addr
		t.Sinks[i].Options = opts
		found = true
	}
	if !found {
		t.Sinks = append(t.Sinks, SinkConfig{Type: SinkUDP, Options: map[string]any{"address": addr}})
	}
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"` // trace / debug / info / warn / error
	Pattern string           `mapstructure:"pattern" yaml:"pattern"`
	Time    string           `mapstructure:"time" yaml:"time"`
	Caller  bool             `mapstructure:"caller" yaml:"caller"`
	File    FileOutputConfig `mapstructure:"file" yaml:"file"`
}

// FileOutputConfig configures the rotating log file.
type FileOutputConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ─── Validation ───

var validLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}

// ValidateAndApplyDefaults checks enumerations and fills values that have no
// sensible viper default.
func (cfg *Config) ValidateAndApplyDefaults() error {
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return invalid("log.level %q (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return invalid("log.file.path is required when log.file.enabled=true")
	}

	switch cfg.Capture.Engine {
	case EngineRing, EngineAFPacket:
	default:
		return invalid("capture.engine %q (must be ring/afpacket)", cfg.Capture.Engine)
	}
	if cfg.Capture.FrameSize <= 0 || cfg.Capture.BlockCount <= 0 {
		return invalid("capture.frame_size and capture.block_count must be positive")
	}
	if cfg.Capture.PollTimeout <= 0 {
		return invalid("capture.poll_timeout must be positive, got %s", cfg.Capture.PollTimeout)
	}
	if cfg.Capture.Mode != ModeAuto {
		if _, err := core.ParseMode(cfg.Capture.Mode); err != nil {
			return err
		}
	}

	if cfg.Wireless.HandshakeFile == "" {
		return invalid("wireless.handshake_file must not be empty")
	}

	switch cfg.Telemetry.MACCase {
	case "upper", "lower":
	default:
		return invalid("telemetry.mac_case %q (must be upper/lower)", cfg.Telemetry.MACCase)
	}
	if cfg.Telemetry.QueueCapacityHint < 0 {
		cfg.Telemetry.QueueCapacityHint = 0
	}
	for i, s := range cfg.Telemetry.Sinks {
		switch s.Type {
		case SinkUDP, SinkText, SinkKafka:
		default:
			return invalid("telemetry.sinks[%d].type %q (must be udp/text/kafka)", i, s.Type)
		}
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return invalid("metrics.listen %q: %v", cfg.Metrics.Listen, err)
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return invalid("metrics.path %q must start with /", cfg.Metrics.Path)
		}
	}
	return nil
}

// YAML renders the effective configuration.
func (cfg *Config) YAML() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", core.ErrConfigInvalid, fmt.Sprintf(format, args...))
}
