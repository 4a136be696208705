package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/pkg/config"
	"TrendPulse/pkg/queue"
)

type fakeJobs struct {
	started, stopped atomic.Bool
}

func (f *fakeJobs) PublishMessage(context.Context, string, interface{}) error { return nil }
func (f *fakeJobs) Start() error                                              { f.started.Store(true); return nil }
func (f *fakeJobs) Stop(context.Context) error                                { f.stopped.Store(true); return nil }
func (f *fakeJobs) Stats(context.Context) (queue.Stats, error)                { return queue.Stats{}, nil }

func TestAppLifecycle(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second

	var (
		mu     sync.Mutex
		closed []string
		ticks  atomic.Int32
	)
	closeFn := func(name string) func() error {
		return func() error {
			mu.Lock()
			defer mu.Unlock()
			closed = append(closed, name)
			return nil
		}
	}
	jobs := &fakeJobs{}

	app := New(cfg, nil, nil,
		WithJobs(jobs),
		WithCloser("store", closeFn("store")),
		WithCloser("redis", closeFn("redis")),
		WithPeriodic("tick", 5*time.Millisecond, func(context.Context) { ticks.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool { return ticks.Load() > 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, jobs.started.Load())
	assert.True(t, jobs.stopped.Load())
	assert.Equal(t, []string{"redis", "store"}, closed)
}
