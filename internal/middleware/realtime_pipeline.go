package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, o *models.Observation) error
}

// RealtimePipeline sits between the feed and the processor. It validates,
// throttles per indicator, and buffers observations the downstream rejected
// for a later retry.
type RealtimePipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	window    time.Duration
	bufSize   int
	bufCh     chan *models.Observation
	stopCh    chan struct{}
	wg        sync.WaitGroup
	started   bool
	mu        sync.Mutex
	lastSeen  map[string]time.Time // per-indicator last accepted time
	transform func(*models.Observation) *models.Observation
	now       func() time.Time
}

type PipelineOption func(*RealtimePipeline)

// WithThrottleWindow accepts at most one observation per indicator per
// window. Zero disables throttling.
func WithThrottleWindow(d time.Duration) PipelineOption {
	return func(p *RealtimePipeline) {
		if d >= 0 {
			p.window = d
		}
	}
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform rewrites observations before throttling, e.g. to rename
// indicators or attach units.
func WithTransform(fn func(*models.Observation) *models.Observation) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		window:   time.Second,
		bufSize:  1000,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Observation, p.bufSize)
	return p
}

// Start launches the retry loop for buffered observations.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	stop := make(chan struct{})
	p.stopCh = stop
	p.mu.Unlock()

	p.wg.Add(1)
	go p.flush(ctx, stop)
}

func (p *RealtimePipeline) flush(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case o := <-p.bufCh:
			if err := p.proc.Process(ctx, o); err != nil {
				p.metrics.RecordError("pipeline_flush")
				if backoff < 2*time.Second {
					backoff *= 2
				}
				select {
				case <-time.After(backoff):
				case <-stop:
					return
				}
				p.enqueue(o)
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

// Stop ends the retry loop. Buffered observations are kept for the next
// Start. Stop without a running loop is a no-op.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	stop := p.stopCh
	p.stopCh = nil
	p.mu.Unlock()
	close(stop)
	p.wg.Wait()
}

// Buffered returns the number of observations waiting for retry.
func (p *RealtimePipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards o. A downstream failure buffers
// o for retry and is returned wrapped.
func (p *RealtimePipeline) Process(ctx context.Context, o *models.Observation) error {
	start := time.Now()
	if o == nil {
		p.metrics.RecordError("pipeline_validate")
		return fmt.Errorf("%w: nil", models.ErrInvalidObservation)
	}
	if p.transform != nil {
		o = p.transform(o)
	}
	if err := o.Validate(); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(o.Indicator) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, o); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.enqueue(o)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func (p *RealtimePipeline) enqueue(o *models.Observation) {
	select {
	case p.bufCh <- o:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

func (p *RealtimePipeline) allow(indicator string) bool {
	if p.window <= 0 {
		return true
	}
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastSeen[indicator]; ok && now.Sub(last) < p.window {
		return false
	}
	p.lastSeen[indicator] = now
	return true
}
