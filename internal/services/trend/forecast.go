package trend

import (
	"math"

	"TrendPulse/internal/domain/models"
)

const (
	z95 = 1.96
	z90 = 1.645
	z50 = 0.675

	// epsilon floors divisors that may legitimately be zero.
	epsilon = 0.001

	stablePct    = 0.5
	strongPct    = 2.0
	lowBand      = 0.10
	moderateBand = 0.25

	anomalyThreshold = 2.0
)

// confidence returns estimate ± 1.96·sqrt(p).
func confidence(estimate, p float64) models.Interval {
	half := z95 * math.Sqrt(math.Max(p, 0))
	return models.Interval{Low: estimate - half, High: estimate + half}
}

// forecastRecord builds the one-step-ahead Gaussian forecast.
func forecastRecord(level, slope, pLevel, pSlope, sigmaEps2 float64) models.ForecastRecord {
	m := level + slope
	sd := math.Sqrt(math.Max(pLevel+pSlope+sigmaEps2, 0))
	return models.ForecastRecord{
		Mean: m,
		P05:  m - z90*sd,
		P25:  m - z50*sd,
		P50:  m,
		P75:  m + z50*sd,
		P95:  m + z90*sd,
	}
}

// classifyTrend grades slope relative to the series mean in percent.
func classifyTrend(slope, seriesMean float64) (models.Direction, models.Strength) {
	pct := 100 * slope / math.Max(math.Abs(seriesMean), epsilon)
	abs := math.Abs(pct)
	if abs < stablePct {
		return models.DirectionStable, models.StrengthWeak
	}
	dir := models.DirectionDown
	if pct > 0 {
		dir = models.DirectionUp
	}
	if abs > strongPct {
		return dir, models.StrengthStrong
	}
	return dir, models.StrengthModerate
}

// classifyUncertainty grades the level band width relative to the level.
func classifyUncertainty(band models.Interval, level float64) models.Uncertainty {
	relative := band.Width() / math.Max(math.Abs(level), epsilon)
	switch {
	case relative < lowBand:
		return models.UncertaintyLow
	case relative < moderateBand:
		return models.UncertaintyModerate
	default:
		return models.UncertaintyHigh
	}
}

// anomalies flags the indices whose innovation exceeds two standard
// deviations of the innovation sequence. A degenerate sequence has none.
func anomalies(innovations []float64) []int {
	out := []int{}
	sd := popStdDev(innovations)
	if sd == 0 {
		return out
	}
	sd = math.Max(sd, epsilon)
	for t, e := range innovations {
		if math.Abs(e)/sd > anomalyThreshold {
			out = append(out, t)
		}
	}
	return out
}
