package trend

import (
	"math"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
	"TrendPulse/internal/services/period"
)

const (
	simpleGain = 0.3
	// simpleBandScale widens the observation noise for the approximate band.
	simpleBandScale = 1.5
)

// SimpleEstimator is a fixed-gain trend filter. It tracks no state
// variances, does not smooth and reports only a mean ± 95% band.
type SimpleEstimator struct {
	policy VariancePolicy
}

var _ service.TrendEstimator = (*SimpleEstimator)(nil)

// NewSimpleEstimator builds a SimpleEstimator.
func NewSimpleEstimator(opts ...Option) *SimpleEstimator {
	o := buildOptions(opts)
	return &SimpleEstimator{policy: o.policy}
}

func (s *SimpleEstimator) Method() string { return MethodSimple }

func (s *SimpleEstimator) Estimate(series []models.Observation, freq models.Frequency) models.TrendEstimate {
	sorted := period.SortObservations(series)
	if freq == "" || freq == models.FrequencyUnknown {
		freq = period.DetectFromSeries(sorted)
	}
	est := models.TrendEstimate{
		Method:          MethodSimple,
		Frequency:       freq,
		Observations:    len(sorted),
		NextPeriodLabel: period.NotAvailable,
		Direction:       models.DirectionStable,
		Strength:        models.StrengthWeak,
		Uncertainty:     models.UncertaintyHigh,
		AnomalyIndices:  []int{},
	}
	if len(sorted) < minObservations {
		return est
	}

	y := values(sorted)
	level, slope := y[0], initialSlope(y)
	for _, obs := range y {
		pred := level + slope
		e := obs - pred
		level = pred + simpleGain*e
		slope += simpleGain * e
	}

	v := s.policy.Variances(y)
	half := z95 * simpleBandScale * math.Sqrt(v.SigmaEpsilon2)
	m := level + slope

	est.Sufficient = true
	est.Level = level
	est.Slope = slope
	est.Forecast = &models.ForecastBand{Mean: m, Low: m - half, High: m + half, Coverage: 0.95}
	est.NextPeriodLabel = period.NextPeriodLabel(sorted[len(sorted)-1].Date, freq)
	est.Direction, est.Strength = classifyTrend(slope, mean(y))
	est.Uncertainty = classifyUncertainty(models.Interval{Low: level - half, High: level + half}, level)
	return est
}
