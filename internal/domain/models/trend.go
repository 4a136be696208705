package models

import "time"

// Frequency is the nominal sampling cadence of a series.
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyUnknown   Frequency = "unknown"
)

// Direction of the estimated trend.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Strength of the estimated trend.
type Strength string

const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
)

// Uncertainty tier derived from the width of the level band.
type Uncertainty string

const (
	UncertaintyLow      Uncertainty = "low"
	UncertaintyModerate Uncertainty = "moderate"
	UncertaintyHigh     Uncertainty = "high"
)

// Observation is a single dated value of an indicator.
type Observation struct {
	Indicator string    `json:"indicator,omitempty"`
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
}

// VarianceParameters holds the noise and shock variances used by the filter.
type VarianceParameters struct {
	SigmaEpsilon2 float64 `json:"sigma2_epsilon"`
	SigmaEta2     float64 `json:"sigma2_eta"`
	SigmaZeta2    float64 `json:"sigma2_zeta"`
}

// Interval is a closed [Low, High] band.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Width returns High - Low.
func (i Interval) Width() float64 { return i.High - i.Low }

// TrendPoint is one charting point of the smoothed trend.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
	Value float64   `json:"value"`
	Level float64   `json:"level"`
	Slope float64   `json:"slope"`
}

// ForecastRecord is the one-step-ahead forecast with Gaussian percentile bands.
type ForecastRecord struct {
	NextPeriodLabel string     `json:"nextPeriodLabel"`
	NextPeriodDate  *time.Time `json:"nextPeriodDate,omitempty"`
	Mean            float64    `json:"mean"`
	P05             float64    `json:"p05"`
	P25             float64    `json:"p25"`
	P50             float64    `json:"p50"`
	P75             float64    `json:"p75"`
	P95             float64    `json:"p95"`
}

// STSResult is the full output of the structural time-series estimator.
type STSResult struct {
	Level          float64            `json:"level"`
	LevelCI        Interval           `json:"levelCI"`
	Slope          float64            `json:"slope"`
	SlopeCI        Interval           `json:"slopeCI"`
	Trend          []TrendPoint       `json:"trend"`
	MuSeries       []float64          `json:"muSeries"`
	BetaSeries     []float64          `json:"betaSeries"`
	Variances      VarianceParameters `json:"variances"`
	Forecast       ForecastRecord     `json:"forecast"`
	Direction      Direction          `json:"direction"`
	Strength       Strength           `json:"strength"`
	Uncertainty    Uncertainty        `json:"uncertainty"`
	Innovations    []float64          `json:"innovations"`
	AnomalyIndices []int              `json:"anomalyIndices"`
	Frequency      Frequency          `json:"frequency"`
}

// Sufficient reports whether the result came from a real estimation pass
// rather than the insufficient-data default.
func (r STSResult) Sufficient() bool { return len(r.MuSeries) > 0 }

// ForecastBand is a mean with a symmetric band at the given coverage.
type ForecastBand struct {
	Mean     float64 `json:"mean"`
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Coverage float64 `json:"coverage"`
}

// TrendEstimate is the summary every estimator produces.
type TrendEstimate struct {
	Method          string        `json:"method"`
	Frequency       Frequency     `json:"frequency"`
	Observations    int           `json:"observations"`
	Sufficient      bool          `json:"sufficient"`
	Level           float64       `json:"level"`
	Slope           float64       `json:"slope"`
	Forecast        *ForecastBand `json:"forecast,omitempty"`
	NextPeriodLabel string        `json:"nextPeriodLabel"`
	Direction       Direction     `json:"direction"`
	Strength        Strength      `json:"strength"`
	Uncertainty     Uncertainty   `json:"uncertainty"`
	AnomalyIndices  []int         `json:"anomalyIndices"`
}
