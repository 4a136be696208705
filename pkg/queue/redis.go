package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"TrendPulse/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QueueMode selects whether a RedisQueue runs workers.
type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	// ModeProducerOnly pushes messages for other processes to consume; any
	// message type is accepted.
	ModeProducerOnly
)

func (m QueueMode) String() string {
	if m == ModeProducerOnly {
		return "producer-only"
	}
	return "producer-consumer"
}

const defaultKeyPrefix = "trendpulse:queue"

// Stats reports a queue's backlog.
type Stats struct {
	Pending int64 `json:"pending"`
	Retry   int64 `json:"retry"`
	Dead    int64 `json:"dead"`
}

// promoteScript moves up to ARGV[2] retries due at or before ARGV[1] (unix
// ms) back onto the pending list. Running it as one script keeps two
// replicas from promoting the same message twice.
var promoteScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
for _, m in ipairs(due) do
	redis.call("ZREM", KEYS[1], m)
	redis.call("LPUSH", KEYS[2], m)
end
return #due`)

type redisKeys struct {
	pending string // list, LPUSH in / BRPOP out
	retry   string // sorted set scored by due time in unix ms
	dead    string // list of messages that ran out of attempts
}

func newRedisKeys(prefix string) redisKeys {
	return redisKeys{
		pending: prefix + ":messages",
		retry:   prefix + ":retry",
		dead:    prefix + ":dlq",
	}
}

// RedisQueue is a list-backed job queue shared by every replica that
// points at the same key prefix. Failed messages wait in a sorted set until
// their retry is due and land in a dead-letter list after RetryLimit.
type RedisQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	client    *redis.Client
	mode      QueueMode
	keys      redisKeys
	pollEvery time.Duration
	popWait   time.Duration

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

type RedisQueueOption func(*RedisQueue)

func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		if prefix != "" {
			r.keys = newRedisKeys(prefix)
		}
	}
}

// WithRetryPoll sets how often due retries are promoted.
func WithRetryPoll(d time.Duration) RedisQueueOption {
	return func(r *RedisQueue) {
		if d > 0 {
			r.pollEvery = d
		}
	}
}

func NewRedisQueue(lgr *logger.Logger, config *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if lgr == nil {
		lgr = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &RedisQueue{
		logger:    lgr,
		config:    config.withDefaults(),
		client:    client,
		mode:      mode,
		keys:      newRedisKeys(defaultKeyPrefix),
		pollEvery: 5 * time.Second,
		popWait:   time.Second,
		jobs:      make(map[string]Job),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisPublisher returns a started producer-only queue. A failed start
// is logged and PublishMessage reports it until Redis is reachable.
func NewRedisPublisher(lgr *logger.Logger, client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	q := NewRedisQueue(lgr, nil, client, ModeProducerOnly, opts...)
	if err := q.Start(); err != nil {
		q.logger.Error("redis publisher start failed", logger.Error(err))
	}
	return q
}

// RegisterJob binds job to its message type. Producer-only queues ignore
// registrations.
func (r *RedisQueue) RegisterJob(job Job) {
	if r.mode == ModeProducerOnly {
		r.logger.Warn("job registration ignored in producer-only mode", logger.String("job", job.Name()))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.jobs[job.Type()]; dup {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
	r.logger.Info("job registered", logger.String("job", job.Name()), logger.String("type", job.Type()))
}

func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("queue already running")
	}

	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	r.running = true

	fields := []logger.Field{
		logger.String("addr", r.client.Options().Addr),
		logger.String("key", r.keys.pending),
		logger.String("mode", r.mode.String()),
	}
	if r.mode == ModeProducerOnly {
		r.logger.Info("redis queue started", fields...)
		return nil
	}

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	r.wg.Add(1)
	go r.promoteLoop()
	r.logger.Info("redis queue started", append(fields, logger.Int("workers", r.config.Workers))...)
	return nil
}

// Stop cancels the workers and waits for in-flight jobs until ctx ends.
// A job cut short by the shutdown is put back for another replica.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		r.logger.Warn("redis queue stop timed out", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// PublishMessage pushes payload as a message of msgType. Consuming queues
// reject types no job handles.
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	r.mu.RLock()
	running := r.running
	_, known := r.jobs[msgType]
	r.mu.RUnlock()
	if !running {
		return errors.New("queue not running")
	}
	if r.mode == ModeProducerConsumer && !known {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	msg, err := newMessage(uuid.NewString(), msgType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.client.LPush(ctx, r.keys.pending, data).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", msgType, err)
	}
	return nil
}

func (r *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	pipe := r.client.Pipeline()
	pending := pipe.LLen(ctx, r.keys.pending)
	retry := pipe.ZCard(ctx, r.keys.retry)
	dead := pipe.LLen(ctx, r.keys.dead)
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	return Stats{Pending: pending.Val(), Retry: retry.Val(), Dead: dead.Val()}, nil
}

func (r *RedisQueue) worker() {
	defer r.wg.Done()
	for r.ctx.Err() == nil {
		msg, ok := r.pop()
		if ok {
			r.process(msg)
		}
	}
}

// pop blocks up to popWait for the next message. Redis errors back off
// for a second so a lost connection does not spin.
func (r *RedisQueue) pop() (Message, bool) {
	res, err := r.client.BRPop(r.ctx, r.popWait, r.keys.pending).Result()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil), errors.Is(err, context.Canceled):
		return Message{}, false
	default:
		r.logger.Error("redis queue pop failed", logger.Error(err))
		select {
		case <-r.ctx.Done():
		case <-time.After(time.Second):
		}
		return Message{}, false
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		r.logger.Error("redis queue message undecodable", logger.Error(err))
		r.bury(res[1])
		return Message{}, false
	}
	return msg, true
}

func (r *RedisQueue) process(msg Message) {
	r.mu.RLock()
	job, ok := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !ok {
		r.logger.Error("no job for message type", logger.String("type", msg.Type), logger.String("id", msg.ID))
		r.bury(msg)
		return
	}

	err := runJob(r.ctx, r.config, r.logger, job, msg)
	switch {
	case err == nil:
		return
	case isCancelled(err) && r.ctx.Err() != nil:
		r.schedule(msg, time.Now())
		return
	}

	r.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))
	if msg.Attempts >= r.config.RetryLimit {
		r.logger.Error("message dead-lettered", logger.String("id", msg.ID), logger.String("job", job.Name()))
		r.bury(msg)
		return
	}
	msg.Attempts++
	r.schedule(msg, time.Now().Add(r.config.RetryDelay))
}

// schedule parks msg in the retry set until at. It uses its own context
// because it also runs while the queue shuts down.
func (r *RedisQueue) schedule(msg Message, at time.Time) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal retry", logger.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	z := redis.Z{Score: float64(at.UnixMilli()), Member: data}
	if err := r.client.ZAdd(ctx, r.keys.retry, z).Err(); err != nil {
		r.logger.Error("schedule retry failed", logger.String("id", msg.ID), logger.Error(err))
	}
}

func (r *RedisQueue) bury(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Error("marshal dead letter", logger.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.LPush(ctx, r.keys.dead, data).Err(); err != nil {
		r.logger.Error("dead-letter push failed", logger.Error(err))
	}
}

func (r *RedisQueue) promoteLoop() {
	defer r.wg.Done()
	t := time.NewTicker(r.pollEvery)
	defer t.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case now := <-t.C:
			n, err := promoteScript.Run(r.ctx, r.client,
				[]string{r.keys.retry, r.keys.pending},
				now.UnixMilli(), 500).Int()
			if err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("promote retries failed", logger.Error(err))
			} else if n > 0 {
				r.logger.Debug("retries promoted", logger.Int("count", n))
			}
		}
	}
}
