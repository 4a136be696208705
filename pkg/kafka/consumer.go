package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	applogger "TrendPulse/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer reads registered topics and dispatches messages to a worker pool.
// At most one message per (topic, partition) is in flight at a time.
type Consumer struct {
	cfg       *ConsumerConfig
	l         *applogger.Logger
	readers   map[string]*kafka.Reader
	handlers  map[string]MessageHandler
	stopChan  chan struct{}
	readWG    sync.WaitGroup
	workWG    sync.WaitGroup
	stopOnce  sync.Once
	msgChan   chan *message
	dlq       *kafka.Writer
	plMu      sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
	hook      ConsumerHook
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "trendpulse",
		StartOffset: "earliest",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}

	c := &Consumer{
		cfg:       cfg,
		l:         l.With(applogger.String("component", "kafka_consumer")),
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan *message, cfg.BufferSize),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
	}

	initConsumerMetrics()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for its topic. Must be called
// before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.l.Warn("handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start creates one reader per registered topic and launches the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	start := kafka.FirstOffset
	if c.cfg.StartOffset == "latest" {
		start = kafka.LastOffset
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
			StartOffset: start,
		})
		c.l.Info("topic registered", applogger.String("topic", topic), applogger.String("group", c.cfg.GroupID))
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWG.Add(1)
		go c.messageWorker()
	}
	for topic, reader := range c.readers {
		c.readWG.Add(1)
		go c.consumeMessages(topic, reader)
	}

	c.l.Info("consumer started", applogger.Int("workers", c.cfg.WorkerCount))
	return nil
}

// Stop stops readers first, then drains the workers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		c.l.Info("consumer stopping")
		close(c.stopChan)

		// readers are the only senders on msgChan
		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.l.Warn("close reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if stopErr = waitGroup(ctx, &c.readWG); stopErr != nil {
			return
		}
		close(c.msgChan)
		stopErr = waitGroup(ctx, &c.workWG)

		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.l.Warn("close dlq writer", applogger.Error(err))
			}
		}
		if stopErr == nil {
			c.l.Info("consumer stopped")
		}
	})

	return stopErr
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	defer c.readWG.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				c.l.Warn("fetch message", applogger.String("topic", topic), applogger.Error(err))
			}
			continue
		}

		// blocking send gives backpressure to the reader
		select {
		case c.msgChan <- &message{topic: topic, km: msg}:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
			consumerQueueFullness.WithLabelValues(topic).Set(float64(len(c.msgChan)) / float64(cap(c.msgChan)))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) messageWorker() {
	defer c.workWG.Done()

	for msg := range c.msgChan {
		handler, ok := c.handlers[msg.topic]
		if !ok {
			continue
		}
		c.process(handler, msg)
	}
}

func (c *Consumer) process(handler MessageHandler, msg *message) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.l.Error("panic in message handler",
				applogger.String("topic", msg.topic),
				applogger.Any("panic", r))
		}
	}()

	pl := c.partitionLock(msg.topic, msg.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	var err error
	attempts := 0
	for {
		attempts++
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), msg.topic, msg.km, msg.km.Value)
		if berr != nil {
			err = berr
			break
		}

		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, msg.topic, hmsg, hdata, err)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			// uncommitted, redelivered after restart
			return
		}
	}

	if err != nil {
		c.hook.OnError(context.Background(), msg.topic, msg.km, msg.km.Value, err)
		c.l.Error("message handling failed",
			applogger.String("topic", msg.topic),
			applogger.Int("attempts", attempts),
			applogger.Error(err))
		c.toDLQ(msg)
	}

	// commit on success or after DLQ to avoid poison loops
	if err == nil || c.dlq != nil {
		if reader := c.readers[msg.topic]; reader != nil {
			_ = c.commitWithRetry(reader, msg.km, 3)
		}
	}
	consumerHandleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
}

func (c *Consumer) toDLQ(msg *message) {
	if c.dlq == nil {
		return
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     msg.km.Key,
		Value:   msg.km.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.topic)}},
	})
	if err != nil {
		c.l.Error("write dlq", applogger.String("dlq_topic", c.cfg.DLQTopic), applogger.Error(err))
	}
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.l.Error("commit offset", applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.plMu.Lock()
	defer c.plMu.Unlock()

	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := min << uint(attempt-1)
	if exp > max || exp <= 0 {
		exp = max
	}
	// jitter up to 50%
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerQueueFullness *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerOnce          sync.Once
	metricsRegisterer     prometheus.Registerer = prometheus.DefaultRegisterer
)

// SetMetricsRegisterer sets where producer and consumer metrics register.
// It only has effect before the first producer or consumer is created.
func SetMetricsRegisterer(reg prometheus.Registerer) { metricsRegisterer = reg }

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		f := promauto.With(metricsRegisterer)
		consumerQueueDepth = f.NewGaugeVec(
			prometheus.GaugeOpts{Name: "trendpulse_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		)
		consumerQueueFullness = f.NewGaugeVec(
			prometheus.GaugeOpts{Name: "trendpulse_kafka_consumer_queue_fullness", Help: "Queue utilization ratio (len/cap)"},
			[]string{"topic"},
		)
		consumerHandleLatency = f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "trendpulse_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
