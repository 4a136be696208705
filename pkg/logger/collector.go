package logger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// Publisher ships a batch of aggregated entries, e.g. a queue producer.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval, default 30s
	CountThreshold int           // distinct entries that force a flush, default 100
	Topic          string
	Publisher      Publisher
	Source         string        // instance name stamped on batches
	MinLevel       string        // lowest collected level, default "error"
	PublishTimeout time.Duration // default 10s
}

// AggregatedLogEntry is one distinct (level, message, fields, caller) tuple
// with the number of times it was logged since the last flush.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogBatch is the payload handed to the Publisher.
type LogBatch struct {
	Source    string               `json:"source,omitempty"`
	FlushedAt time.Time            `json:"flushed_at"`
	Entries   []AggregatedLogEntry `json:"entries"`
}

// LogCollector deduplicates entries in memory and publishes them as one
// batch per interval, or earlier once CountThreshold distinct entries pile up.
type LogCollector struct {
	config   CollectionConfig
	minLevel zerolog.Level
	entries  map[uint64]*AggregatedLogEntry
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	onError  func(error)
	now      func() time.Time
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	minLevel, err := zerolog.ParseLevel(cfg.MinLevel)
	if err != nil || cfg.MinLevel == "" {
		minLevel = zerolog.ErrorLevel
	}

	c := &LogCollector{
		config:   cfg,
		minLevel: minLevel,
		entries:  make(map[uint64]*AggregatedLogEntry),
		done:     make(chan struct{}),
		onError:  func(error) {},
		now:      time.Now,
	}
	c.wg.Add(1)
	go c.loop()
	return c
}

func (c *LogCollector) accepts(level zerolog.Level) bool {
	return level >= c.minLevel
}

// AddLog records one occurrence of an entry.
func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	key := entryKey(level, message, fields, caller)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	c.entries[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if len(c.entries) >= c.config.CountThreshold {
		c.flushLocked()
	}
}

// Pending returns the number of distinct entries waiting for a flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// entryKey hashes the identifying parts of an entry. Field keys are sorted
// so the same fields in a different order aggregate together.
func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := xxhash.New()
	write := func(s string) {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(s)))
		_, _ = h.Write(n[:])
		_, _ = h.WriteString(s)
	}
	write(level)
	write(message)
	write(caller)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write(k)
		write(fmt.Sprint(fields[k]))
	}
	return h.Sum64()
}

func (c *LogCollector) loop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

func (c *LogCollector) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// flushLocked swaps the pending map out and publishes it in the background.
func (c *LogCollector) flushLocked() {
	if len(c.entries) == 0 {
		return
	}
	batch := LogBatch{
		Source:    c.config.Source,
		FlushedAt: c.now().UTC(),
		Entries:   make([]AggregatedLogEntry, 0, len(c.entries)),
	}
	for _, e := range c.entries {
		batch.Entries = append(batch.Entries, *e)
	}
	sort.Slice(batch.Entries, func(i, j int) bool {
		return batch.Entries[i].FirstSeen.Before(batch.Entries[j].FirstSeen)
	})
	c.entries = make(map[uint64]*AggregatedLogEntry)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.config.PublishTimeout)
		defer cancel()
		if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
			c.onError(err)
		}
	}()
}

// Close flushes what is pending and waits for in-flight publishes.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}
