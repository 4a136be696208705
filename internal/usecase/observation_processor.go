package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
)

const (
	BackendKafka = "kafka"
	BackendStore = "store"
)

// ObservationProcessor routes observations to the configured backend.
type ObservationProcessor struct {
	pub     drepo.Publisher
	store   drepo.ObservationStore
	metrics drepo.Metrics
	backend string
}

func NewObservationProcessor(pub drepo.Publisher, store drepo.ObservationStore, metrics drepo.Metrics, backend string) *ObservationProcessor {
	return &ObservationProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single observation.
func (p *ObservationProcessor) Process(ctx context.Context, o *models.Observation) error {
	if o == nil {
		return fmt.Errorf("%w: nil", models.ErrInvalidObservation)
	}
	return p.ProcessBatch(ctx, []*models.Observation{o})
}

// ProcessBatch routes observations in one backend call.
func (p *ObservationProcessor) ProcessBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			return fmt.Errorf("kafka backend has no publisher")
		}
		err = p.pub.PublishBatch(ctx, obs)
	case BackendStore:
		if p.store == nil {
			return fmt.Errorf("store backend has no store")
		}
		err = p.store.StoreBatch(ctx, obs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process observations: %w", err)
	}

	for _, o := range obs {
		if o != nil {
			p.metrics.RecordObservationSent(p.backend, o.Indicator)
		}
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// Close closes the publisher. The store is owned by the caller.
func (p *ObservationProcessor) Close() error {
	if p.pub != nil {
		return p.pub.Close()
	}
	return nil
}
