package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
)

func newTestBadger(t *testing.T) *BadgerObservationStore {
	t.Helper()
	s, err := NewBadgerObservationStore(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func TestBadgerStoreAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestBadger(t)
	require.NoError(t, s.Init(ctx))

	// written out of order, across indicators
	batch := []*models.Observation{
		{Indicator: "ipca", Date: month(2024, 3), Value: 0.16, Unit: "percent"},
		{Indicator: "ipca", Date: month(2024, 1), Value: 0.42, Unit: "percent"},
		{Indicator: "selic", Date: month(2024, 1), Value: 11.75},
		{Indicator: "ipca", Date: month(2024, 2), Value: 0.83, Unit: "percent"},
		nil,
	}
	require.NoError(t, s.StoreBatch(ctx, batch))

	got, err := s.Query(ctx, domrepo.ObservationQuery{Indicator: "ipca"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{0.42, 0.83, 0.16}, []float64{got[0].Value, got[1].Value, got[2].Value})
	assert.Equal(t, "percent", got[0].Unit)
	assert.True(t, got[0].Date.Equal(month(2024, 1)))

	// range is inclusive on both ends
	got, err = s.Query(ctx, domrepo.ObservationQuery{Indicator: "ipca", From: month(2024, 2), To: month(2024, 3)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	latest, err := s.Latest(ctx, "ipca", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 0.83, latest[0].Value)
	assert.Equal(t, 0.16, latest[1].Value)
}

func TestBadgerOverwriteSameDate(t *testing.T) {
	ctx := context.Background()
	s := newTestBadger(t)

	require.NoError(t, s.Store(ctx, &models.Observation{Indicator: "x", Date: month(2020, 1), Value: 1}))
	require.NoError(t, s.Store(ctx, &models.Observation{Indicator: "x", Date: month(2020, 1), Value: 2}))

	got, err := s.Latest(ctx, "x", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Value)
}

func TestBadgerPre1970Ordering(t *testing.T) {
	ctx := context.Background()
	s := newTestBadger(t)

	require.NoError(t, s.StoreBatch(ctx, []*models.Observation{
		{Indicator: "gdp", Date: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), Value: 3},
		{Indicator: "gdp", Date: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1},
		{Indicator: "gdp", Date: time.Date(1969, 1, 1, 0, 0, 0, 0, time.UTC), Value: 2},
	}))
	got, err := s.Latest(ctx, "gdp", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1950, got[0].Date.Year())
	assert.Equal(t, 1980, got[2].Date.Year())
}

func TestBadgerIndicators(t *testing.T) {
	ctx := context.Background()
	s := newTestBadger(t)

	for i, ind := range []string{"selic", "ipca", "ipca-15", "ipca"} {
		require.NoError(t, s.Store(ctx, &models.Observation{Indicator: ind, Date: month(2024, time.Month(i+1)), Value: 1}))
	}
	inds, err := s.Indicators(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ipca", "ipca-15", "selic"}, inds)
}

func TestBadgerRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestBadger(t)

	err := s.Store(ctx, &models.Observation{Indicator: "a/b", Date: month(2024, 1), Value: 1})
	assert.ErrorIs(t, err, models.ErrInvalidObservation)
	err = s.Store(ctx, &models.Observation{Indicator: "a", Date: month(2024, 1), Value: math.NaN()})
	assert.ErrorIs(t, err, models.ErrInvalidObservation)
	_, err = s.Query(ctx, domrepo.ObservationQuery{})
	assert.Error(t, err)
}

func TestBadgerClosed(t *testing.T) {
	s := newTestBadger(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Health(context.Background()), ErrStoreClosed)
	_, err := s.Latest(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrStoreClosed)
}
