package features

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"TrendPulse/internal/domain/models"
)

// Values extracts the value column of series.
func Values(series []models.Observation) []float64 {
	out := make([]float64, len(series))
	for i, o := range series {
		out[i] = o.Value
	}
	return out
}

// Summarize computes dashboard statistics for an ascending series.
// ChangePct is relative to the previous value and zero when it is zero.
func Summarize(series []models.Observation) models.SeriesStats {
	n := len(series)
	if n == 0 {
		return models.SeriesStats{}
	}
	vals := Values(series)
	s := models.SeriesStats{
		Count:     n,
		First:     series[0].Date,
		Last:      series[n-1].Date,
		LastValue: vals[n-1],
		PrevValue: vals[n-1],
		Min:       floats.Min(vals),
		Max:       floats.Max(vals),
		Mean:      stat.Mean(vals, nil),
	}
	if n > 1 {
		s.PrevValue = vals[n-2]
		s.Change = s.LastValue - s.PrevValue
		if s.PrevValue != 0 {
			s.ChangePct = 100 * s.Change / math.Abs(s.PrevValue)
		}
	}
	return s
}

// Window keeps the observations with from <= date <= to. Zero bounds are open.
func Window(series []models.Observation, from, to time.Time) []models.Observation {
	out := make([]models.Observation, 0, len(series))
	for _, o := range series {
		if !from.IsZero() && o.Date.Before(from) {
			continue
		}
		if !to.IsZero() && o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Tail returns the last n observations of series.
func Tail(series []models.Observation, n int) []models.Observation {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

// Valid reports whether o can enter the estimators: named, dated and finite.
func Valid(o models.Observation) bool {
	return o.Indicator != "" && !o.Date.IsZero() && !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0)
}
