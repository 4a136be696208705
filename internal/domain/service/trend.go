package service

import (
	"context"

	"TrendPulse/internal/domain/models"
)

// TrendEstimator estimates level, slope, forecast and classification of a
// series. Implementations are pure and safe for concurrent use.
type TrendEstimator interface {
	Method() string
	Estimate(series []models.Observation, freq models.Frequency) models.TrendEstimate
}

// Narrator turns an analysis into prose for the chat layer.
type Narrator interface {
	Narrate(ctx context.Context, in models.NarrationInput) (string, error)
}
