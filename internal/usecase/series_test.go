package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func TestGetSeries(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 1, 2, 3, 4, 5)
	uc := NewSeriesUseCase(store)

	res, err := uc.GetSeries(context.Background(), GetSeriesParams{
		Indicator: "ipca",
		From:      time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 4.0, res.Observations[0].Value)
	assert.Equal(t, models.FrequencyMonthly, res.Frequency)

	_, err = uc.GetSeries(context.Background(), GetSeriesParams{})
	assert.ErrorIs(t, err, ErrIndicatorRequired)

	_, err = uc.GetSeries(context.Background(), GetSeriesParams{
		Indicator: "ipca",
		From:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	inds, err := uc.Indicators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ipca"}, inds)
}
