package repository

import (
	"context"

	"TrendPulse/internal/domain/models"
)

// ObservationStream delivers observations from an upstream feed.
type ObservationStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher hands observations to a downstream backend (Kafka topic or store).
type Publisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

// EventPublisher emits trend events after an analysis completes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *models.TrendEvent) error
	Close() error
}

// ObservationStore persists indicator observations.
type ObservationStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []*models.Observation) error
	// Query returns observations for q.Indicator in ascending date order.
	Query(ctx context.Context, q ObservationQuery) ([]models.Observation, error)
	// Latest returns the last n observations in ascending date order.
	Latest(ctx context.Context, indicator string, n int) ([]models.Observation, error)
	Indicators(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordObservationSent(backend, indicator string)
	RecordError(kind string)
	RecordLastValue(indicator string, value float64)
	RecordLatency(op string, seconds float64)
	RecordAnalysis(method, direction string)
	RecordAnomalies(indicator string, n int)
}
