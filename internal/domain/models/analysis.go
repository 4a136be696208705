package models

import "time"

// SeriesStats summarizes a raw series for dashboard cards.
type SeriesStats struct {
	Count     int       `json:"count"`
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
	LastValue float64   `json:"lastValue"`
	PrevValue float64   `json:"prevValue"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"changePct"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Mean      float64   `json:"mean"`
}

// AnalysisResult is the consolidated view of one indicator analysis.
type AnalysisResult struct {
	Indicator string        `json:"indicator"`
	Method    string        `json:"method"`
	Frequency Frequency     `json:"frequency"`
	Timestamp time.Time     `json:"timestamp"`
	Stats     SeriesStats   `json:"stats"`
	Estimate  TrendEstimate `json:"estimate"`
	STS       *STSResult    `json:"sts,omitempty"`
	Display   *DisplayText  `json:"display,omitempty"`
	Narrative string        `json:"narrative,omitempty"`
}

// DisplayText carries pre-formatted values for the host UI.
type DisplayText struct {
	Last     string `json:"last"`
	Forecast string `json:"forecast,omitempty"`
	Change   string `json:"change"`
}

// DashboardResult aggregates analyses of several indicators.
// Errors maps indicator to the failure message for that indicator.
type DashboardResult struct {
	Timestamp time.Time         `json:"timestamp"`
	Method    string            `json:"method"`
	Cards     []AnalysisResult  `json:"cards"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// TrendEvent is published on the event bus after an analysis.
type TrendEvent struct {
	ID          string      `json:"id"`
	Kind        string      `json:"kind"`
	Indicator   string      `json:"indicator"`
	Method      string      `json:"method"`
	Timestamp   time.Time   `json:"timestamp"`
	Level       float64     `json:"level"`
	Slope       float64     `json:"slope"`
	Direction   Direction   `json:"direction"`
	Strength    Strength    `json:"strength"`
	Uncertainty Uncertainty `json:"uncertainty"`
	Forecast    float64     `json:"forecast"`
	NextPeriod  string      `json:"nextPeriod"`
	Anomalies   []int       `json:"anomalies,omitempty"`
}

const (
	EventTrendAnalyzed = "trend.analyzed"
	EventTrendAnomaly  = "trend.anomaly"
)

// NarrationInput is what the narration layer receives about one analysis.
type NarrationInput struct {
	Indicator string        `json:"indicator"`
	Unit      string        `json:"unit,omitempty"`
	Stats     SeriesStats   `json:"stats"`
	Estimate  TrendEstimate `json:"estimate"`
}
