package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/core"
)

const (
	defaultKafkaBatchSize    = 100
	defaultKafkaBatchTimeout = 100 * time.Millisecond
	defaultKafkaCompression  = "snappy"
	defaultKafkaMaxAttempts  = 3
)

// KafkaConfig configures the Kafka mirror sink.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`       // required
	Topic        string        `mapstructure:"topic"`         // required
	BatchSize    int           `mapstructure:"batch_size"`    // default 100
	BatchTimeout time.Duration `mapstructure:"batch_timeout"` // default 100ms
	Compression  string        `mapstructure:"compression"`   // none|gzip|snappy|lz4
	MaxAttempts  int           `mapstructure:"max_attempts"`  // default 3
	// Async hands messages to the writer's batcher without waiting for
	// broker acknowledgement, so a slow cluster cannot stall the worker.
	Async bool `mapstructure:"async"`
}

func (c *KafkaConfig) applyDefaults() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: kafka brokers is required", core.ErrConfigInvalid)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: kafka topic is required", core.ErrConfigInvalid)
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultKafkaBatchSize
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = defaultKafkaBatchTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultKafkaMaxAttempts
	}
	if c.Compression == "" {
		c.Compression = defaultKafkaCompression
	}
	return nil
}

func compressionCodec(name string) (kafka.CompressionCodec, error) {
	switch strings.ToLower(name) {
	case "none":
		return nil, nil
	case "gzip":
		return compress.Gzip.Codec(), nil
	case "snappy":
		return compress.Snappy.Codec(), nil
	case "lz4":
		return compress.Lz4.Codec(), nil
	default:
		return nil, fmt.Errorf("%w: invalid compression type: %s", core.ErrConfigInvalid, name)
	}
}

// KafkaSink mirrors packet records to a Kafka topic, keyed by source MAC.
type KafkaSink struct {
	writer  *kafka.Writer
	encoder Encoder
	config  KafkaConfig
}

// NewKafkaSink validates cfg and creates the writer. No broker connection is
// made until the first message.
func NewKafkaSink(cfg KafkaConfig, encoder Encoder) (*KafkaSink, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	codec, err := compressionCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		Balancer:         &kafka.Hash{},
		BatchSize:        cfg.BatchSize,
		BatchTimeout:     cfg.BatchTimeout,
		MaxAttempts:      cfg.MaxAttempts,
		Async:            cfg.Async,
		CompressionCodec: codec,
	})
	return &KafkaSink{writer: writer, encoder: encoder, config: cfg}, nil
}

func newKafkaSinkFromOptions(options map[string]any, env Env) (Sink, error) {
	cfg := KafkaConfig{Async: true}
	if err := decodeOptions(options, &cfg); err != nil {
		return nil, err
	}
	return NewKafkaSink(cfg, env.Encoder)
}

func (s *KafkaSink) Name() string { return config.SinkKafka }

// Config returns the effective configuration after defaults.
func (s *KafkaSink) Config() KafkaConfig { return s.config }

func (s *KafkaSink) Accepts(ev core.LogEvent) bool {
	_, ok := ev.(core.PacketEvent)
	return ok
}

func (s *KafkaSink) Send(ev core.LogEvent) error {
	pe, ok := ev.(core.PacketEvent)
	if !ok {
		return nil
	}
	msg, err := s.message(&pe.Meta)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(context.Background(), msg); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

func (s *KafkaSink) message(meta *core.PacketMetadata) (kafka.Message, error) {
	r := s.encoder.Record(meta)
	value, err := s.encoder.Marshal(meta)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serialize packet failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(r.SrcMAC),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(r.Type)},
		},
	}, nil
}

// Close flushes pending messages.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
