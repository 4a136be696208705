package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	applogger "TrendPulse/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

type ProducerOption func(*ProducerConfig)

type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int    // -1 waits for all in-sync replicas
	Compression  string // none, gzip, snappy, lz4, zstd
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	BatchTimeout time.Duration // linger before a partial batch is sent
	// Async returns from writes immediately; failures are only logged and
	// counted.
	Async     bool
	HashByKey bool
	Logger    *applogger.Logger
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
		c.BatchBytes = bytes
		c.BatchTimeout = linger
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

// WithHashByKey routes equal keys to the same partition, which keeps each
// indicator's observations in order.
func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}

func WithProducerLogger(l *applogger.Logger) ProducerOption {
	return func(c *ProducerConfig) { c.Logger = l }
}

// Message is an outgoing record. Value is sent verbatim when it is []byte
// or string and JSON encoded otherwise.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

// Producer publishes to any topic over one kafka.Writer.
type Producer struct {
	writer *kafka.Writer
	comp   string
	async  bool
	log    *applogger.Logger
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  5,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1 << 20,
		BatchTimeout: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: brokers are required")
	}
	comp, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}

	var bal kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	p := &Producer{comp: strings.ToLower(cfg.Compression), async: cfg.Async, log: l}
	if p.comp == "" {
		p.comp = "none"
	}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               bal,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            comp,
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		ReadTimeout:            cfg.ReadTimeout,
		BatchSize:              cfg.BatchSize,
		BatchBytes:             int64(cfg.BatchBytes),
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: true,
	}
	if cfg.Async {
		p.writer.Completion = p.completed
	}

	initProducerMetrics()
	return p, nil
}

// completed reports the outcome of async writes, grouped by topic.
func (p *Producer) completed(msgs []kafka.Message, err error) {
	perTopic := map[string]int{}
	for _, m := range msgs {
		perTopic[m.Topic]++
	}
	for topic, n := range perTopic {
		producerMetrics.observe(topic, p.comp, n, err)
		if err != nil {
			p.log.Warn("kafka async write failed",
				applogger.String("topic", topic),
				applogger.Int("messages", n),
				applogger.Error(err))
		}
	}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishBatch encodes every message before writing any, so an encoding
// error sends nothing.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	now := time.Now()
	msgs := make([]kafka.Message, len(messages))
	var size int64
	for i, m := range messages {
		km, err := m.toKafka(topic, now)
		if err != nil {
			return err
		}
		msgs[i] = km
		size += int64(len(km.Value))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	producerMetrics.latency.WithLabelValues(topic).Observe(time.Since(now).Seconds())
	producerMetrics.bytes.WithLabelValues(topic, p.comp).Add(float64(size))
	if !p.async {
		producerMetrics.observe(topic, p.comp, len(msgs), err)
	}
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered messages and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (m Message) toKafka(topic string, now time.Time) (kafka.Message, error) {
	v, err := EncodeValue(m.Value)
	if err != nil {
		return kafka.Message{}, err
	}
	km := kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: now}
	for k, hv := range m.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(hv)})
	}
	return km, nil
}

// EncodeValue turns a message value into wire bytes.
func EncodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode kafka value: %w", err)
	}
	return b, nil
}

func parseCompression(s string) (kafka.Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	}
	return 0, fmt.Errorf("kafka producer: unknown compression %q", s)
}

type producerVecs struct {
	messages *prometheus.CounterVec
	errors   *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func (v *producerVecs) observe(topic, comp string, n int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		v.errors.WithLabelValues(topic).Inc()
	}
	v.messages.WithLabelValues(topic, comp, result).Add(float64(n))
}

var (
	producerMetrics *producerVecs
	producerOnce    sync.Once
)

func initProducerMetrics() {
	producerOnce.Do(func() {
		f := promauto.With(metricsRegisterer)
		producerMetrics = &producerVecs{
			messages: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trendpulse", Subsystem: "kafka_producer",
				Name: "messages_total", Help: "Messages written, by outcome.",
			}, []string{"topic", "compression", "result"}),
			errors: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trendpulse", Subsystem: "kafka_producer",
				Name: "errors_total", Help: "Failed writes.",
			}, []string{"topic"}),
			bytes: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "trendpulse", Subsystem: "kafka_producer",
				Name: "bytes_total", Help: "Encoded payload bytes handed to the writer.",
			}, []string{"topic", "compression"}),
			latency: f.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "trendpulse", Subsystem: "kafka_producer",
				Name: "write_seconds", Help: "WriteMessages latency.",
				Buckets: prometheus.DefBuckets,
			}, []string{"topic"}),
		}
	})
}
