package repository

import (
	"context"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	applogger "TrendPulse/pkg/logger"
)

// LogEventPublisher writes trend events to the log. Used when no Kafka
// brokers are configured.
type LogEventPublisher struct {
	l *applogger.Logger
}

func NewLogEventPublisher(l *applogger.Logger) *LogEventPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &LogEventPublisher{l: l}
}

func (p *LogEventPublisher) PublishEvent(_ context.Context, ev *models.TrendEvent) error {
	p.l.Info(ev.Kind,
		applogger.String("event_id", ev.ID),
		applogger.String("indicator", ev.Indicator),
		applogger.String("method", ev.Method),
		applogger.String("direction", string(ev.Direction)),
		applogger.String("strength", string(ev.Strength)),
		applogger.Float64("level", ev.Level),
		applogger.Float64("forecast", ev.Forecast),
		applogger.Any("anomalies", ev.Anomalies),
	)
	return nil
}

func (p *LogEventPublisher) Close() error { return nil }

var _ domrepo.EventPublisher = (*LogEventPublisher)(nil)
