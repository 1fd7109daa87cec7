package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"firestige.xyz/ringsniff/internal/sink/capfile"
)

// EnvPrefix prefixes environment overrides, e.g. RINGSNIFF_CAPTURE_ENGINE.
const EnvPrefix = "RINGSNIFF"

// Loader wraps a viper instance so that the instance that loaded the file
// can later watch it.
type Loader struct {
	v *viper.Viper

	mu      sync.Mutex
	current *Config
}

// NewLoader creates a loader with defaults and environment overrides set up.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Loader{v: v}
}

// Load reads path (optional) and returns the validated configuration.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Watch re-reads the config file on change and hands valid results to
// onChange. Invalid edits are reported through onError and otherwise
// ignored. Only meaningful after Load with a non-empty path.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.unmarshal()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load is a convenience for callers that need neither flags nor watching.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

func setDefaults(v *viper.Viper) {
	// Capture defaults
	v.SetDefault("capture.interface", "")
	v.SetDefault("capture.engine", EngineRing)
	v.SetDefault("capture.frame_size", 2048)
	v.SetDefault("capture.block_count", 64)
	v.SetDefault("capture.buffer_mb", 0)
	v.SetDefault("capture.poll_timeout", "100ms")
	v.SetDefault("capture.promiscuous", true)
	v.SetDefault("capture.mode", ModeAuto)

	// Wireless defaults
	v.SetDefault("wireless.handshake_file", capfile.DefaultPath)

	// Telemetry defaults
	v.SetDefault("telemetry.queue_capacity_hint", 1024)
	v.SetDefault("telemetry.mac_case", "upper")
	v.SetDefault("telemetry.sinks", []map[string]any{
		{"type": SinkUDP, "options": map[string]any{"address": DefaultUDPAddress}},
		{"type": SinkText},
	})

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9091")
	v.SetDefault("metrics.path", "/metrics")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pattern", "%time [%level] %msg %field\n")
	v.SetDefault("log.time", "2006-01-02 15:04:05.000")
	v.SetDefault("log.caller", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "ringsniff.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)
}
