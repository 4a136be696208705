package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/services/trend"
)

func newAnalyzer(store *memStore, sink *eventSink, opts ...AnalyzerOption) (*TrendAnalyzer, *recMetrics) {
	m := &recMetrics{}
	if sink == nil {
		return NewTrendAnalyzer(store, trend.NewDefaultRegistry(), nil, m, opts...), m
	}
	return NewTrendAnalyzer(store, trend.NewDefaultRegistry(), sink, m, opts...), m
}

func TestAnalyzeSTS(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 100, 105, 110, 115, 120)
	sink := &eventSink{}
	a, m := newAnalyzer(store, sink)

	res, err := a.Analyze(context.Background(), AnalyzeParams{Indicator: "ipca", Method: "sts"})
	require.NoError(t, err)

	assert.Equal(t, trend.MethodSTS, res.Method)
	assert.Equal(t, models.FrequencyMonthly, res.Frequency)
	require.NotNil(t, res.STS)
	assert.Len(t, res.STS.Trend, 5)
	assert.Equal(t, models.DirectionUp, res.Estimate.Direction)
	assert.Equal(t, models.StrengthStrong, res.Estimate.Strength)
	require.NotNil(t, res.Estimate.Forecast)
	assert.InDelta(t, 125, res.Estimate.Forecast.Mean, 3)
	assert.Equal(t, "Jun/2020", res.Estimate.NextPeriodLabel)
	assert.Equal(t, 120.0, res.Stats.LastValue)
	require.NotNil(t, res.Display)
	assert.Equal(t, "120,00", res.Display.Last)
	assert.Equal(t, "+5,00", res.Display.Change)

	// the ramp's innovations are one-signed, so the latest point is flagged too
	assert.Contains(t, res.Estimate.AnomalyIndices, 4)
	assert.Equal(t, []string{models.EventTrendAnalyzed, models.EventTrendAnomaly}, sink.kinds())
	assert.NotEmpty(t, sink.events[0].ID)
	assert.Equal(t, "ipca", sink.events[0].Indicator)
	assert.Equal(t, 1, m.analyses)
}

func TestAnalyzeSimpleDefaultsAndLookback(t *testing.T) {
	store := newMemStore()
	store.put("selic", 1, 2, 3, 4, 100, 105, 110, 115, 120)
	a, _ := newAnalyzer(store, &eventSink{}, WithLookback(5))

	res, err := a.Analyze(context.Background(), AnalyzeParams{Indicator: " selic ", Method: "SIMPLE"})
	require.NoError(t, err)
	assert.Equal(t, trend.MethodSimple, res.Method)
	assert.Nil(t, res.STS)
	assert.Equal(t, 5, res.Estimate.Observations)
	require.NotNil(t, res.Estimate.Forecast)
	assert.InDelta(t, 122.6872, res.Estimate.Forecast.Mean, 1e-3)
	assert.Equal(t, 0.95, res.Estimate.Forecast.Coverage)
}

func TestAnalyzeLatestAnomalyPublishesAnomalyEvent(t *testing.T) {
	store := newMemStore()
	store.put("fx", 100, 100, 100, 100, 100, 100, 100, 100, 100, 200)
	sink := &eventSink{}
	a, _ := newAnalyzer(store, sink)

	res, err := a.Analyze(context.Background(), AnalyzeParams{Indicator: "fx"})
	require.NoError(t, err)
	assert.Equal(t, []int{9}, res.Estimate.AnomalyIndices)
	assert.Equal(t, []string{models.EventTrendAnalyzed, models.EventTrendAnomaly}, sink.kinds())
	assert.NotEqual(t, sink.events[0].ID, sink.events[1].ID)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	store := newMemStore()
	store.put("short", 1, 2)
	sink := &eventSink{}
	a, _ := newAnalyzer(store, sink)

	res, err := a.Analyze(context.Background(), AnalyzeParams{Indicator: "short"})
	require.NoError(t, err)
	assert.False(t, res.Estimate.Sufficient)
	assert.Nil(t, res.Estimate.Forecast)
	assert.Equal(t, models.DirectionStable, res.Estimate.Direction)
	assert.Empty(t, sink.events)
}

func TestAnalyzeErrors(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 1, 2, 3)
	a, m := newAnalyzer(store, &eventSink{})
	ctx := context.Background()

	_, err := a.Analyze(ctx, AnalyzeParams{})
	assert.ErrorIs(t, err, ErrIndicatorRequired)

	_, err = a.Analyze(ctx, AnalyzeParams{Indicator: "missing"})
	assert.ErrorIs(t, err, ErrNoObservations)

	_, err = a.Analyze(ctx, AnalyzeParams{Indicator: "ipca", Method: "arima"})
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = a.Analyze(ctx, AnalyzeParams{
		Indicator: "ipca",
		From:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidRange)

	store.err = errors.New("down")
	_, err = a.Analyze(ctx, AnalyzeParams{Indicator: "ipca"})
	assert.Error(t, err)
	assert.Contains(t, m.errors, "store_fetch")
}

func TestAnalyzeRange(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 1, 2, 3, 4, 5, 6)
	a, _ := newAnalyzer(store, nil)

	res, err := a.Analyze(context.Background(), AnalyzeParams{
		Indicator: "ipca",
		From:      time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.Count)
	assert.Equal(t, 4.0, res.Stats.LastValue)
}

func TestAnalyzeSeriesInline(t *testing.T) {
	a, _ := newAnalyzer(newMemStore(), &eventSink{}, WithNarrator(stubNarrator{text: "subindo"}))
	series := []models.Observation{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 110},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: 105},
		{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Value: 115},
		{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Value: 120},
	}
	res, err := a.AnalyzeSeries(context.Background(), SeriesParams{
		Indicator: "inline",
		Unit:      "brl",
		Frequency: "mensal",
		Series:    series,
		Narrate:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyMonthly, res.Frequency)
	assert.Equal(t, models.DirectionUp, res.Estimate.Direction)
	assert.Equal(t, "Jun/2024", res.Estimate.NextPeriodLabel)
	assert.Equal(t, "R$ 120,00", res.Display.Last)
	assert.Equal(t, "subindo", res.Narrative)
	assert.Equal(t, "Jan/2024", res.STS.Trend[0].Label)
}

func TestAnalyzeSeriesDropsInvalid(t *testing.T) {
	a, _ := newAnalyzer(newMemStore(), nil)
	_, err := a.AnalyzeSeries(context.Background(), SeriesParams{
		Indicator: "x",
		Series:    []models.Observation{{Value: 1}},
	})
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestNarrationFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 1, 2, 3, 4)
	a, m := newAnalyzer(store, nil, WithNarrator(stubNarrator{err: errors.New("timeout")}))

	res, err := a.Analyze(context.Background(), AnalyzeParams{Indicator: "ipca", Narrate: true})
	require.NoError(t, err)
	assert.Empty(t, res.Narrative)
	assert.Contains(t, m.errors, "narrate")
}
