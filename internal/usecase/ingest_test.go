package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	mid "TrendPulse/internal/middleware"
)

type recPublisher struct {
	batches [][]*models.Observation
	closed  bool
}

func (p *recPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.PublishBatch(ctx, []*models.Observation{o})
}
func (p *recPublisher) PublishBatch(_ context.Context, obs []*models.Observation) error {
	p.batches = append(p.batches, obs)
	return nil
}
func (p *recPublisher) Close() error { p.closed = true; return nil }

func sampleObs(ind string, v float64) *models.Observation {
	return &models.Observation{Indicator: ind, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: v}
}

func TestObservationProcessorRouting(t *testing.T) {
	ctx := context.Background()
	pub := &recPublisher{}
	store := newMemStore()
	m := &recMetrics{}

	kp := NewObservationProcessor(pub, store, m, BackendKafka)
	require.NoError(t, kp.Process(ctx, sampleObs("ipca", 1)))
	assert.Len(t, pub.batches, 1)
	assert.Empty(t, store.data)

	sp := NewObservationProcessor(pub, store, m, BackendStore)
	require.NoError(t, sp.ProcessBatch(ctx, []*models.Observation{sampleObs("ipca", 1), sampleObs("selic", 2)}))
	assert.Len(t, store.data, 2)
	assert.Equal(t, 3, m.sent)

	bad := NewObservationProcessor(pub, store, m, "s3")
	assert.Error(t, bad.Process(ctx, sampleObs("ipca", 1)))
	assert.Contains(t, m.errors, "process")

	require.NoError(t, kp.Close())
	assert.True(t, pub.closed)
}

func TestKafkaObservationsHandler(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	cache := newMemBytes()
	q := &recQueue{}
	h := NewKafkaObservationsHandler("observations", store, &recMetrics{}).
		WithCache(cache).
		WithRecompute(q, &onceLocker{}, time.Minute)
	assert.Equal(t, "observations", h.Topic())

	require.NoError(t, cache.SetBytes(TrendCacheKey("ipca", "sts", "", 120), []byte("{}"), 0))
	require.NoError(t, cache.SetBytes(TrendCacheKey("ipca-15", "sts", "", 120), []byte("{}"), 0))

	b, _ := json.Marshal(sampleObs("ipca", 0.42))
	require.NoError(t, h.Handle(ctx, b))
	require.NoError(t, h.Handle(ctx, b))

	assert.Len(t, store.data["ipca"], 2)
	_, ok, _ := cache.GetBytes(TrendCacheKey("ipca", "sts", "", 120))
	assert.False(t, ok)
	_, ok, _ = cache.GetBytes(TrendCacheKey("ipca-15", "sts", "", 120))
	assert.True(t, ok)
	// debounced to one job
	require.Len(t, q.msgs, 1)
	assert.Equal(t, RecomputePayload{Indicator: "ipca"}, q.msgs[0])

	assert.Error(t, h.Handle(ctx, []byte("not json")))
	assert.ErrorIs(t, h.Handle(ctx, []byte(`{"indicator":"","value":1}`)), models.ErrInvalidObservation)
}

func TestRecomputeJobWarmsCache(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 100, 105, 110, 115, 120)
	a, _ := newAnalyzer(store, nil)
	cache := newMemBytes()
	job := NewRecomputeJob(a, cache, time.Minute, nil)

	assert.Equal(t, RecomputeJobType, job.Type())
	require.NoError(t, job.Handle(context.Background(), json.RawMessage(`{"indicator":"ipca"}`)))

	b, ok, _ := cache.GetBytes(TrendCacheKey("ipca", "sts", "", 120))
	require.True(t, ok)
	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal(b, &res))
	assert.Equal(t, "ipca", res.Indicator)
	assert.Equal(t, models.DirectionUp, res.Estimate.Direction)

	assert.Error(t, job.Handle(context.Background(), RecomputePayload{Indicator: "missing"}))
	assert.Error(t, job.Handle(context.Background(), 42))
}

func TestTrendCacheKey(t *testing.T) {
	assert.Equal(t, "trend:ipca:sts::120", TrendCacheKey("ipca", "STS", "", 120))
	assert.Equal(t, "trend:ipca:", TrendCachePrefix("ipca"))
	assert.Equal(t, TrendCacheKey("ipca", "sts", "monthly", 60), TrendCacheKey(" ipca ", " sts", "Mensal", 60))
	assert.Equal(t, TrendCachePrefix("ipca"), TrendCachePrefix(" ipca"))
}

func TestRecomputeJobUsesAnalyzerDefaults(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 100, 105, 110, 115, 120)
	a, _ := newAnalyzer(store, nil, WithDefaultMethod("SIMPLE"), WithLookback(48))
	cache := newMemBytes()

	require.NoError(t, NewRecomputeJob(a, cache, time.Minute, nil).
		Handle(context.Background(), RecomputePayload{Indicator: "ipca"}))

	method, n := a.Defaults("", 0)
	assert.Equal(t, "simple", method)
	assert.Equal(t, 48, n)
	_, ok, _ := cache.GetBytes(TrendCacheKey("ipca", "simple", "", 48))
	assert.True(t, ok)
}

// flakyStream fails its first read, then serves queued observations on the
// next connection.
type flakyStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	next       []*models.Observation
}

func (s *flakyStream) Connect(context.Context) error   { return nil }
func (s *flakyStream) Subscribe(context.Context) error { return nil }
func (s *flakyStream) Close() error                    { return nil }
func (s *flakyStream) IsConnected() bool               { return true }

func (s *flakyStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *flakyStream) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	obsCh := make(chan *models.Observation, len(s.next))
	errCh := make(chan error, 1)
	if first {
		errCh <- errors.New("connection reset")
		close(obsCh)
		close(errCh)
		return obsCh, errCh
	}
	for _, o := range s.next {
		obsCh <- o
	}
	go func() {
		<-ctx.Done()
		close(obsCh)
		close(errCh)
	}()
	return obsCh, errCh
}

func TestObservationCollectorResumesAfterReconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newMemStore()
	m := &recMetrics{}
	proc := NewObservationProcessor(&recPublisher{}, store, m, BackendStore)
	pipe := mid.NewRealtimePipeline(proc, m, mid.WithThrottleWindow(0))
	stream := &flakyStream{next: []*models.Observation{sampleObs("ipca", 0.42)}}
	c := NewObservationCollector(stream, pipe, m, nil, time.Millisecond)

	require.NoError(t, c.Start(ctx))
	require.Eventually(t, func() bool {
		return store.count("ipca") == 1
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case <-c.Done():
		t.Fatal("collector stopped with a live context")
	default:
	}
	stream.mu.Lock()
	assert.Equal(t, 2, stream.reads)
	assert.Equal(t, 1, stream.reconnects)
	stream.mu.Unlock()

	cancel()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop after cancel")
	}
	require.NoError(t, c.Shutdown(context.Background()))
}
