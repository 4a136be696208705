package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	icache "TrendPulse/internal/service/cache"
	pkgkafka "TrendPulse/pkg/kafka"
	"TrendPulse/pkg/queue"
)

// Locker debounces recompute jobs per indicator.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// KafkaObservationsHandler stores observations consumed from Kafka, drops
// cached analyses of the indicator and schedules a recompute.
type KafkaObservationsHandler struct {
	topic    string
	store    domrepo.ObservationStore
	metrics  domrepo.Metrics
	cache    icache.BytesCache
	jobs     queue.QueueService
	locker   Locker
	debounce time.Duration
}

func NewKafkaObservationsHandler(topic string, store domrepo.ObservationStore, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, store: store, metrics: metrics, debounce: 30 * time.Second}
}

// WithCache sets the result cache invalidated on new data.
func (h *KafkaObservationsHandler) WithCache(c icache.BytesCache) *KafkaObservationsHandler {
	h.cache = c
	return h
}

// WithRecompute enqueues RecomputeJob messages, at most one per indicator per
// debounce window when locker is set.
func (h *KafkaObservationsHandler) WithRecompute(jobs queue.QueueService, locker Locker, debounce time.Duration) *KafkaObservationsHandler {
	h.jobs = jobs
	h.locker = locker
	if debounce > 0 {
		h.debounce = debounce
	}
	return h
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// Handle decodes one observation. Invalid payloads fail without retry value,
// so they end in the DLQ.
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var o models.Observation
	if err := json.Unmarshal(b, &o); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode observation: %w", err)
	}
	if err := o.Validate(); err != nil {
		h.metrics.RecordError("consumer_validate")
		return err
	}

	start := time.Now()
	err := h.store.Store(ctx, &o)
	h.metrics.RecordLatency("store_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservationSent(BackendStore, o.Indicator)
	h.metrics.RecordLastValue(o.Indicator, o.Value)

	if h.cache != nil {
		if err := h.cache.Invalidate(TrendCachePrefix(o.Indicator)); err != nil {
			h.metrics.RecordError("cache_invalidate")
		}
	}
	h.scheduleRecompute(ctx, o.Indicator)
	return nil
}

func (h *KafkaObservationsHandler) scheduleRecompute(ctx context.Context, indicator string) {
	if h.jobs == nil {
		return
	}
	if h.locker != nil {
		ok, err := h.locker.TryLock(ctx, "recompute:"+indicator, h.debounce)
		if err != nil {
			h.metrics.RecordError("recompute_lock")
			return
		}
		if !ok {
			return
		}
	}
	if err := h.jobs.PublishMessage(ctx, RecomputeJobType, RecomputePayload{Indicator: indicator}); err != nil {
		h.metrics.RecordError("recompute_enqueue")
	}
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
