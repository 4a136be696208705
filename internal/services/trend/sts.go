package trend

import (
	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/service"
	"TrendPulse/internal/services/period"
)

const (
	MethodSTS    = "sts"
	MethodSimple = "simple"
)

// minObservations is the shortest series the estimators will filter.
const minObservations = 3

// STSEstimator is the structural time-series estimator: forward Kalman
// filter, backward smoother, forecast and classification.
// It holds no per-call state and is safe for concurrent use.
type STSEstimator struct {
	policy VariancePolicy
}

// Option configures an estimator.
type Option func(*options)

type options struct {
	policy VariancePolicy
}

// WithVariancePolicy replaces the default heuristic variance initializer.
func WithVariancePolicy(p VariancePolicy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{policy: HeuristicVariance{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var _ service.TrendEstimator = (*STSEstimator)(nil)

// NewSTSEstimator builds an STSEstimator.
func NewSTSEstimator(opts ...Option) *STSEstimator {
	o := buildOptions(opts)
	return &STSEstimator{policy: o.policy}
}

func (e *STSEstimator) Method() string { return MethodSTS }

// Analyze estimates level and slope of series. The series is sorted
// defensively; fewer than three points yield the default result. An unknown
// frequency is detected from the series span.
func (e *STSEstimator) Analyze(series []models.Observation, freq models.Frequency) models.STSResult {
	sorted := period.SortObservations(series)
	if freq == "" || freq == models.FrequencyUnknown {
		freq = period.DetectFromSeries(sorted)
	}
	n := len(sorted)
	if n < minObservations {
		return defaultResult(freq)
	}

	y := values(sorted)
	v := e.policy.Variances(y)
	f := forwardFilter(y, v)
	level, slope := backwardSmooth(f, v)

	last := n - 1
	res := models.STSResult{
		Level:          level[last],
		LevelCI:        confidence(level[last], f.pLevel[last]),
		Slope:          slope[last],
		SlopeCI:        confidence(slope[last], f.pSlope[last]),
		Trend:          make([]models.TrendPoint, n),
		MuSeries:       level,
		BetaSeries:     slope,
		Variances:      v,
		Innovations:    f.innovations,
		AnomalyIndices: anomalies(f.innovations),
		Frequency:      freq,
	}
	for t, o := range sorted {
		res.Trend[t] = models.TrendPoint{
			Date:  o.Date,
			Label: period.FormatLabel(o.Date, freq),
			Value: o.Value,
			Level: level[t],
			Slope: slope[t],
		}
	}

	res.Forecast = forecastRecord(level[last], slope[last], f.pLevel[last], f.pSlope[last], v.SigmaEpsilon2)
	next := period.NextPeriodDate(sorted[last].Date, freq)
	res.Forecast.NextPeriodDate = &next
	res.Forecast.NextPeriodLabel = period.FormatLabel(next, freq)

	res.Direction, res.Strength = classifyTrend(res.Slope, mean(y))
	res.Uncertainty = classifyUncertainty(res.LevelCI, res.Level)
	return res
}

// Estimate summarizes Analyze. The forecast band spans p05..p95.
func (e *STSEstimator) Estimate(series []models.Observation, freq models.Frequency) models.TrendEstimate {
	res := e.Analyze(series, freq)
	return Summarize(res, len(series))
}

// Summarize reduces an STSResult to the shared estimate shape.
func Summarize(res models.STSResult, observations int) models.TrendEstimate {
	est := models.TrendEstimate{
		Method:          MethodSTS,
		Frequency:       res.Frequency,
		Observations:    observations,
		Sufficient:      res.Sufficient(),
		Level:           res.Level,
		Slope:           res.Slope,
		NextPeriodLabel: res.Forecast.NextPeriodLabel,
		Direction:       res.Direction,
		Strength:        res.Strength,
		Uncertainty:     res.Uncertainty,
		AnomalyIndices:  res.AnomalyIndices,
	}
	if est.Sufficient {
		est.Forecast = &models.ForecastBand{
			Mean:     res.Forecast.Mean,
			Low:      res.Forecast.P05,
			High:     res.Forecast.P95,
			Coverage: 0.90,
		}
	}
	return est
}

func defaultResult(freq models.Frequency) models.STSResult {
	return models.STSResult{
		Trend:          []models.TrendPoint{},
		MuSeries:       []float64{},
		BetaSeries:     []float64{},
		Innovations:    []float64{},
		AnomalyIndices: []int{},
		Forecast:       models.ForecastRecord{NextPeriodLabel: period.NotAvailable},
		Direction:      models.DirectionStable,
		Strength:       models.StrengthWeak,
		Uncertainty:    models.UncertaintyHigh,
		Frequency:      freq,
	}
}

func values(series []models.Observation) []float64 {
	out := make([]float64, len(series))
	for i, o := range series {
		out[i] = o.Value
	}
	return out
}
