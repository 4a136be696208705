package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/services/period"
)

// SeriesUseCase serves raw observations for charting.
type SeriesUseCase struct {
	store domrepo.ObservationStore
}

func NewSeriesUseCase(store domrepo.ObservationStore) *SeriesUseCase {
	return &SeriesUseCase{store: store}
}

type GetSeriesParams struct {
	Indicator string
	From      time.Time
	To        time.Time
	Limit     int
}

type GetSeriesResult struct {
	Indicator    string               `json:"indicator"`
	Frequency    models.Frequency     `json:"frequency"`
	From         time.Time            `json:"from,omitempty"`
	To           time.Time            `json:"to,omitempty"`
	Count        int                  `json:"count"`
	Observations []models.Observation `json:"observations"`
}

func (uc *SeriesUseCase) GetSeries(ctx context.Context, p GetSeriesParams) (*GetSeriesResult, error) {
	p.Indicator = strings.TrimSpace(p.Indicator)
	if p.Indicator == "" {
		return nil, ErrIndicatorRequired
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, ErrInvalidRange
	}

	obs, err := uc.store.Query(ctx, domrepo.ObservationQuery{Indicator: p.Indicator, From: p.From, To: p.To, Limit: p.Limit})
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return &GetSeriesResult{
		Indicator:    p.Indicator,
		Frequency:    period.DetectFromSeries(obs),
		From:         p.From,
		To:           p.To,
		Count:        len(obs),
		Observations: obs,
	}, nil
}

// Indicators lists the indicators with stored observations.
func (uc *SeriesUseCase) Indicators(ctx context.Context) ([]string, error) {
	return uc.store.Indicators(ctx)
}
