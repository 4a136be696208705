package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"TrendPulse/internal/domain/models"
)

func obs(day int, v float64) models.Observation {
	return models.Observation{Indicator: "ipca", Date: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC), Value: v}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.Observation{obs(1, 4), obs(2, 10), obs(3, 8)})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 8.0, s.LastValue)
	assert.Equal(t, 10.0, s.PrevValue)
	assert.Equal(t, -2.0, s.Change)
	assert.InDelta(t, -20, s.ChangePct, 1e-12)
	assert.Equal(t, 4.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
	assert.InDelta(t, 22.0/3, s.Mean, 1e-12)
	assert.Equal(t, 3, s.Last.Day())
}

func TestSummarizeEdgeCases(t *testing.T) {
	assert.Equal(t, models.SeriesStats{}, Summarize(nil))

	one := Summarize([]models.Observation{obs(1, 5)})
	assert.Equal(t, 5.0, one.PrevValue)
	assert.Zero(t, one.Change)

	zero := Summarize([]models.Observation{obs(1, 0), obs(2, 3)})
	assert.Zero(t, zero.ChangePct)
}

func TestWindowAndTail(t *testing.T) {
	series := []models.Observation{obs(1, 1), obs(2, 2), obs(3, 3), obs(4, 4)}
	w := Window(series, series[1].Date, series[2].Date)
	assert.Len(t, w, 2)
	assert.Len(t, Window(series, time.Time{}, time.Time{}), 4)
	assert.Equal(t, []models.Observation{obs(3, 3), obs(4, 4)}, Tail(series, 2))
	assert.Len(t, Tail(series, 0), 4)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(obs(1, 1)))
	assert.False(t, Valid(models.Observation{Date: time.Now(), Value: 1}))
	assert.False(t, Valid(models.Observation{Indicator: "x", Value: 1}))
	assert.False(t, Valid(models.Observation{Indicator: "x", Date: time.Now(), Value: math.NaN()}))
	assert.False(t, Valid(models.Observation{Indicator: "x", Date: time.Now(), Value: math.Inf(1)}))
}
