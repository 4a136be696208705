package repository

import (
	"context"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	pkgkafka "TrendPulse/pkg/kafka"
)

// KafkaPublisher publishes observations keyed by indicator, so one
// indicator stays on one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.topic, []byte(o.Indicator), o)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	msgs := make([]pkgkafka.Message, 0, len(obs))
	for _, o := range obs {
		if o == nil {
			continue
		}
		if err := o.Validate(); err != nil {
			return err
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(o.Indicator), Value: o})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaEventPublisher publishes trend events keyed by indicator with the
// event kind and id as headers.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, ev *models.TrendEvent) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:     []byte(ev.Indicator),
		Value:   ev,
		Headers: map[string]string{"kind": ev.Kind, "trace_id": ev.ID},
	}})
}

// Close is a no-op; the producer is shared with KafkaPublisher.
func (p *KafkaEventPublisher) Close() error { return nil }

var (
	_ domrepo.Publisher      = (*KafkaPublisher)(nil)
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
)
