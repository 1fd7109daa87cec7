package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/log"
)

type textOptions struct {
	// DedupWindow suppresses identical text events seen within the window.
	// Zero disables suppression.
	DedupWindow time.Duration `mapstructure:"dedup_window"`
	// Packets also logs every packet record at debug level.
	Packets bool `mapstructure:"packets"`
}

// TextSink writes text events through the logger.
type TextSink struct {
	logger     log.Logger
	encoder    Encoder
	packets    bool
	seen       *cache.Cache
	suppressed atomic.Uint64
}

// NewTextSink creates a text sink. A positive window enables duplicate
// suppression.
func NewTextSink(logger log.Logger, window time.Duration, packets bool, encoder Encoder) *TextSink {
	if logger == nil {
		logger = log.GetLogger()
	}
	s := &TextSink{logger: logger, encoder: encoder, packets: packets}
	if window > 0 {
		s.seen = cache.New(window, 2*window)
	}
	return s
}

func newTextSinkFromOptions(options map[string]any, env Env) (Sink, error) {
	var opts textOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if opts.DedupWindow < 0 {
		return nil, fmt.Errorf("%w: dedup_window must not be negative", core.ErrConfigInvalid)
	}
	return NewTextSink(env.Logger, opts.DedupWindow, opts.Packets, env.Encoder), nil
}

func (s *TextSink) Name() string { return config.SinkText }

func (s *TextSink) Accepts(ev core.LogEvent) bool {
	switch ev.(type) {
	case core.TextEvent:
		return true
	case core.PacketEvent:
		return s.packets
	}
	return false
}

func (s *TextSink) Send(ev core.LogEvent) error {
	switch e := ev.(type) {
	case core.TextEvent:
		s.sendText(e)
	case core.PacketEvent:
		if !s.packets || !s.logger.IsDebugEnabled() {
			return nil
		}
		r := s.encoder.Record(&e.Meta)
		s.logger.WithFields(map[string]any{
			"type":    r.Type,
			"src":     endpoint(r.SrcIP, r.SrcMAC, r.SrcPort),
			"dst":     endpoint(r.DestIP, r.DestMAC, r.DestPort),
			"size":    r.Size,
			"subtype": r.Subtype,
		}).Debug("packet")
	}
	return nil
}

func (s *TextSink) sendText(e core.TextEvent) {
	if s.seen != nil {
		key := dedupKey(e)
		if _, found := s.seen.Get(key); found {
			s.suppressed.Add(1)
			return
		}
		s.seen.SetDefault(key, struct{}{})
	}

	l := s.logger
	if len(e.Fields) > 0 {
		l = l.WithFields(e.Fields)
	}
	switch e.Severity {
	case core.SeverityWarn:
		l.Warn(e.Message)
	case core.SeverityError:
		l.Error(e.Message)
	default:
		l.Info(e.Message)
	}
}

// Suppressed returns how many duplicate text events were dropped.
func (s *TextSink) Suppressed() uint64 {
	return s.suppressed.Load()
}

func (s *TextSink) Close() error {
	if s.seen != nil {
		s.seen.Flush()
	}
	return nil
}

func dedupKey(e core.TextEvent) string {
	var b strings.Builder
	b.WriteString(e.Severity.String())
	b.WriteByte('|')
	b.WriteString(e.Message)
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, e.Fields[k])
	}
	return b.String()
}

func endpoint(ip, mac string, port uint16) string {
	host := ip
	if host == "" {
		host = mac
	}
	if port == 0 {
		return host
	}
	if strings.Contains(host, ":") && ip != "" {
		return fmt.Sprintf("[%s]:%d", host, port)
	}
	return fmt.Sprintf("%s:%d", host, port)
}
