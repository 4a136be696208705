package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TrendPulse/pkg/logger"

	"github.com/google/uuid"
)

// ErrQueueFull is returned by LocalQueue.Enqueue when the buffer is full.
var ErrQueueFull = errors.New("queue full")

// LocalQueue runs jobs in-process. It serves single-node deployments without
// Redis and keeps the same retry and dead-letter accounting.
type LocalQueue struct {
	logger  *logger.Logger
	config  *QueueConfig
	jobs    map[string]Job
	msgs    chan Message
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	retry   atomic.Int64
	dead    atomic.Int64
}

func NewLocalQueue(lgr *logger.Logger, config *QueueConfig, jobs ...Job) *LocalQueue {
	if lgr == nil {
		lgr = logger.Nop()
	}
	cfg := config.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	q := &LocalQueue{
		logger: lgr,
		config: cfg,
		jobs:   make(map[string]Job),
		msgs:   make(chan Message, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, j := range jobs {
		q.RegisterJob(j)
	}
	return q
}

func (q *LocalQueue) RegisterJob(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Type()]; exists {
		q.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	q.jobs[job.Type()] = job
}

func (q *LocalQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return fmt.Errorf("queue already running")
	}
	q.running = true
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Info("local queue started", logger.Int("workers", q.config.Workers))
	return nil
}

// Stop stops accepting messages and waits for in-flight jobs. Buffered
// messages that were not picked up are dropped.
func (q *LocalQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.mu.Unlock()
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (q *LocalQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.mu.RLock()
	running := q.running
	_, known := q.jobs[msgType]
	q.mu.RUnlock()
	if !running {
		return fmt.Errorf("queue not running")
	}
	if !known {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	msg, err := newMessage(uuid.NewString(), msgType, payload)
	if err != nil {
		return err
	}
	return q.push(msg)
}

func (q *LocalQueue) Stats(context.Context) (Stats, error) {
	return Stats{Pending: int64(len(q.msgs)), Retry: q.retry.Load(), Dead: q.dead.Load()}, nil
}

func (q *LocalQueue) push(msg Message) error {
	select {
	case q.msgs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *LocalQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-q.msgs:
			q.process(msg)
		}
	}
}

func (q *LocalQueue) process(msg Message) {
	q.mu.RLock()
	job := q.jobs[msg.Type]
	q.mu.RUnlock()

	err := runJob(q.ctx, q.config, q.logger, job, msg)
	if err == nil || (isCancelled(err) && q.ctx.Err() != nil) {
		return
	}

	q.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))
	if msg.Attempts >= q.config.RetryLimit {
		q.dead.Add(1)
		return
	}

	msg.Attempts++
	q.retry.Add(1)
	time.AfterFunc(q.config.RetryDelay, func() {
		q.retry.Add(-1)
		if q.ctx.Err() != nil {
			return
		}
		if err := q.push(msg); err != nil {
			q.dead.Add(1)
			q.logger.Warn("retry dropped", logger.String("id", msg.ID), logger.Error(err))
		}
	})
}

var (
	_ Runner = (*LocalQueue)(nil)
	_ Runner = (*RedisQueue)(nil)
)
