package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]models.Observation
	err  error
}

func newMemStore() *memStore { return &memStore{data: map[string][]models.Observation{}} }

func (s *memStore) put(ind string, vals ...float64) {
	for i, v := range vals {
		s.data[ind] = append(s.data[ind], models.Observation{
			Indicator: ind,
			Date:      time.Date(2020, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC),
			Value:     v,
		})
	}
}

func (s *memStore) count(ind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[ind])
}

func (s *memStore) Init(context.Context) error { return nil }
func (s *memStore) Store(ctx context.Context, o *models.Observation) error {
	return s.StoreBatch(ctx, []*models.Observation{o})
}
func (s *memStore) StoreBatch(_ context.Context, obs []*models.Observation) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range obs {
		s.data[o.Indicator] = append(s.data[o.Indicator], *o)
	}
	return nil
}
func (s *memStore) Query(_ context.Context, q domrepo.ObservationQuery) ([]models.Observation, error) {
	if s.err != nil {
		return nil, s.err
	}
	q = q.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Observation
	for _, o := range s.data[q.Indicator] {
		if q.Contains(o.Date) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}
func (s *memStore) Latest(ctx context.Context, ind string, n int) ([]models.Observation, error) {
	return s.Query(ctx, domrepo.ObservationQuery{Indicator: ind, Limit: n})
}
func (s *memStore) Indicators(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
func (s *memStore) Health(context.Context) error { return s.err }
func (s *memStore) Close() error                 { return nil }

type recMetrics struct {
	mu       sync.Mutex
	errors   []string
	analyses int
	sent     int
}

func (m *recMetrics) RecordObservationSent(string, string) { m.mu.Lock(); m.sent++; m.mu.Unlock() }
func (m *recMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors = append(m.errors, kind)
	m.mu.Unlock()
}
func (m *recMetrics) RecordLastValue(string, float64) {}
func (m *recMetrics) RecordLatency(string, float64)   {}
func (m *recMetrics) RecordAnalysis(string, string)   { m.mu.Lock(); m.analyses++; m.mu.Unlock() }
func (m *recMetrics) RecordAnomalies(string, int)     {}

type eventSink struct {
	mu     sync.Mutex
	events []models.TrendEvent
	err    error
}

func (e *eventSink) PublishEvent(_ context.Context, ev *models.TrendEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *ev)
	return e.err
}
func (e *eventSink) Close() error { return nil }

func (e *eventSink) kinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.Kind
	}
	return out
}

type stubNarrator struct {
	text string
	err  error
}

func (n stubNarrator) Narrate(context.Context, models.NarrationInput) (string, error) {
	return n.text, n.err
}

type memBytes struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBytes() *memBytes { return &memBytes{data: map[string][]byte{}} }

func (c *memBytes) GetBytes(key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}
func (c *memBytes) SetBytes(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
func (c *memBytes) Invalidate(prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type recQueue struct {
	msgs []interface{}
}

func (q *recQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if msgType != RecomputeJobType {
		return errors.New("unexpected type " + msgType)
	}
	q.msgs = append(q.msgs, payload)
	return nil
}

type onceLocker struct{ held map[string]bool }

func (l *onceLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}
