// Package trend implements the local-level/local-trend estimators used to
// summarize indicator series: a Kalman filter with backward smoothing and a
// lighter fixed-gain variant.
package trend

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"TrendPulse/internal/domain/models"
)

// VariancePolicy derives the filter's noise and shock variances from a series.
type VariancePolicy interface {
	Variances(values []float64) models.VarianceParameters
}

// HeuristicVariance attributes most dispersion to observation noise and lets
// level and slope drift slowly: sigma2_epsilon=(0.5σ)², sigma2_eta=(0.1σ)²,
// sigma2_zeta=(0.05σ)² with σ the population standard deviation.
type HeuristicVariance struct{}

var _ VariancePolicy = HeuristicVariance{}

func (HeuristicVariance) Variances(values []float64) models.VarianceParameters {
	sigma := popStdDev(values)
	return models.VarianceParameters{
		SigmaEpsilon2: square(0.5 * sigma),
		SigmaEta2:     square(0.1 * sigma),
		SigmaZeta2:    square(0.05 * sigma),
	}
}

// popStdDev is the population standard deviation; zero below two values.
func popStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(values, nil)
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	return math.Sqrt(variance)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func square(x float64) float64 { return x * x }
