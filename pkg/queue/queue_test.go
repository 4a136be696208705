package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Indicator string `json:"indicator"`
	N         int    `json:"n"`
}

func TestParsePayload(t *testing.T) {
	want := payload{Indicator: "ipca", N: 12}

	for name, in := range map[string]interface{}{
		"value":   want,
		"pointer": &want,
		"raw":     json.RawMessage(`{"indicator":"ipca","n":12}`),
		"bytes":   []byte(`{"indicator":"ipca","n":12}`),
		"map":     map[string]interface{}{"indicator": "ipca", "n": 12},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePayload[payload](in)
			require.NoError(t, err)
			assert.Equal(t, want, *got)
		})
	}

	_, err := ParsePayload[payload](42)
	assert.Error(t, err)
	_, err = ParsePayload[payload](json.RawMessage(`{`))
	assert.Error(t, err)
}

type recordingJob struct {
	mu    sync.Mutex
	calls int
	fail  int
	got   []payload
	done  chan struct{}
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "test.record" }
func (j *recordingJob) Handle(_ context.Context, p interface{}) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if j.calls <= j.fail {
		return errors.New("boom")
	}
	v, err := ParsePayload[payload](p)
	if err != nil {
		return err
	}
	j.got = append(j.got, *v)
	close(j.done)
	return nil
}

func TestLocalQueueRetriesUntilSuccess(t *testing.T) {
	job := &recordingJob{fail: 2, done: make(chan struct{})}
	q := NewLocalQueue(nil, &QueueConfig{RetryLimit: 3, RetryDelay: 5 * time.Millisecond}, job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	require.NoError(t, q.PublishMessage(context.Background(), "test.record", payload{Indicator: "selic"}))

	select {
	case <-job.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job not completed")
	}
	job.mu.Lock()
	defer job.mu.Unlock()
	assert.Equal(t, 3, job.calls)
	assert.Equal(t, []payload{{Indicator: "selic"}}, job.got)
}

func TestLocalQueueDeadLetter(t *testing.T) {
	job := &recordingJob{fail: 100, done: make(chan struct{})}
	q := NewLocalQueue(nil, &QueueConfig{RetryLimit: 1, RetryDelay: time.Millisecond}, job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	require.NoError(t, q.PublishMessage(context.Background(), "test.record", payload{}))
	assert.Eventually(t, func() bool {
		s, _ := q.Stats(context.Background())
		return s.Dead == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLocalQueueRejects(t *testing.T) {
	q := NewLocalQueue(nil, nil, &recordingJob{done: make(chan struct{})})
	assert.Error(t, q.PublishMessage(context.Background(), "test.record", payload{}))

	require.NoError(t, q.Start())
	assert.Error(t, q.Start())
	assert.Error(t, q.PublishMessage(context.Background(), "unknown", payload{}))
	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Stop(context.Background()))
}

func TestQueueModeString(t *testing.T) {
	assert.Equal(t, "producer-only", ModeProducerOnly.String())
	assert.Equal(t, "producer-consumer", ModeProducerConsumer.String())
}

func TestRedisKeys(t *testing.T) {
	k := newRedisKeys("trendpulse:queue:recompute")
	assert.Equal(t, "trendpulse:queue:recompute:messages", k.pending)
	assert.Equal(t, "trendpulse:queue:recompute:retry", k.retry)
	assert.Equal(t, "trendpulse:queue:recompute:dlq", k.dead)

	q := NewRedisQueue(nil, nil, nil, ModeProducerConsumer, WithKeyPrefix("x"))
	assert.Equal(t, "x:messages", q.keys.pending)
	assert.Error(t, q.PublishMessage(context.Background(), "t", nil), "not started")
}
