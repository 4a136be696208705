package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"TrendPulse/internal/domain/models"
	domrepo "TrendPulse/internal/domain/repository"
	domsvc "TrendPulse/internal/domain/service"
	"TrendPulse/internal/services/features"
	"TrendPulse/internal/services/format"
	"TrendPulse/internal/services/period"
	"TrendPulse/internal/services/trend"
	applogger "TrendPulse/pkg/logger"
)

const defaultLookback = 120

// TrendAnalyzer fetches a series, runs the selected estimator and publishes
// the outcome.
type TrendAnalyzer struct {
	store    domrepo.ObservationStore
	registry *trend.Registry
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	narrator domsvc.Narrator
	l        *applogger.Logger
	method   string
	lookback int
	now      func() time.Time
}

type AnalyzerOption func(*TrendAnalyzer)

// WithNarrator enables narration when a request asks for it.
func WithNarrator(n domsvc.Narrator) AnalyzerOption {
	return func(a *TrendAnalyzer) { a.narrator = n }
}

// WithLookback sets the default number of latest observations to analyze.
func WithLookback(n int) AnalyzerOption {
	return func(a *TrendAnalyzer) {
		if n > 0 {
			a.lookback = n
		}
	}
}

// WithDefaultMethod sets the estimator used when a request names none.
func WithDefaultMethod(method string) AnalyzerOption {
	return func(a *TrendAnalyzer) {
		if m := strings.ToLower(strings.TrimSpace(method)); m != "" {
			a.method = m
		}
	}
}

func WithAnalyzerLogger(l *applogger.Logger) AnalyzerOption {
	return func(a *TrendAnalyzer) {
		if l != nil {
			a.l = l
		}
	}
}

func NewTrendAnalyzer(store domrepo.ObservationStore, registry *trend.Registry, events domrepo.EventPublisher, metrics domrepo.Metrics, opts ...AnalyzerOption) *TrendAnalyzer {
	a := &TrendAnalyzer{
		store:    store,
		registry: registry,
		events:   events,
		metrics:  metrics,
		l:        applogger.Nop(),
		method:   trend.MethodSTS,
		lookback: defaultLookback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Defaults fills an empty method and a non-positive n with the configured
// defaults. The method comes back trimmed and lower-cased.
func (a *TrendAnalyzer) Defaults(method string, n int) (string, int) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = a.method
	}
	if n <= 0 {
		n = a.lookback
	}
	return method, n
}

type AnalyzeParams struct {
	Indicator string
	Method    string
	Frequency string // en/pt tag; empty detects from the series
	N         int    // latest N when From/To are zero
	From      time.Time
	To        time.Time
	Unit      string
	Narrate   bool
}

// Analyze runs an estimator over stored observations of p.Indicator.
func (a *TrendAnalyzer) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisResult, error) {
	p.Indicator = strings.TrimSpace(p.Indicator)
	if p.Indicator == "" {
		return nil, ErrIndicatorRequired
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, ErrInvalidRange
	}
	p.Method, p.N = a.Defaults(p.Method, p.N)

	start := time.Now()
	var (
		series []models.Observation
		err    error
	)
	if p.From.IsZero() && p.To.IsZero() {
		series, err = a.store.Latest(ctx, p.Indicator, p.N)
	} else {
		series, err = a.store.Query(ctx, domrepo.ObservationQuery{Indicator: p.Indicator, From: p.From, To: p.To, Limit: p.N})
	}
	a.metrics.RecordLatency("store_fetch", time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordError("store_fetch")
		return nil, fmt.Errorf("fetch %s: %w", p.Indicator, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoObservations, p.Indicator)
	}

	return a.run(ctx, p.Indicator, p.Unit, p.Method, p.Frequency, series, p.Narrate)
}

type SeriesParams struct {
	Indicator string
	Unit      string
	Method    string
	Frequency string
	Series    []models.Observation
	Narrate   bool
}

// AnalyzeSeries runs an estimator over an inline series. Non-finite points
// are dropped.
func (a *TrendAnalyzer) AnalyzeSeries(ctx context.Context, p SeriesParams) (*models.AnalysisResult, error) {
	p.Indicator = strings.TrimSpace(p.Indicator)
	if p.Indicator == "" {
		return nil, ErrIndicatorRequired
	}
	p.Method, _ = a.Defaults(p.Method, 0)
	series := make([]models.Observation, 0, len(p.Series))
	for _, o := range p.Series {
		o.Indicator = p.Indicator
		if features.Valid(o) {
			series = append(series, o)
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoObservations, p.Indicator)
	}
	return a.run(ctx, p.Indicator, p.Unit, p.Method, p.Frequency, series, p.Narrate)
}

func (a *TrendAnalyzer) run(ctx context.Context, indicator, unit, method, freqTag string, series []models.Observation, narrate bool) (*models.AnalysisResult, error) {
	start := time.Now()
	est, err := a.registry.Get(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	sorted := period.SortObservations(series)
	freq := period.Resolve(freqTag, sorted)
	if unit == "" {
		unit = sorted[len(sorted)-1].Unit
	}

	res := &models.AnalysisResult{
		Indicator: indicator,
		Method:    est.Method(),
		Frequency: freq,
		Timestamp: a.now().UTC(),
		Stats:     features.Summarize(sorted),
	}
	if sts, ok := est.(*trend.STSEstimator); ok {
		full := sts.Analyze(sorted, freq)
		res.STS = &full
		res.Estimate = trend.Summarize(full, len(sorted))
	} else {
		res.Estimate = est.Estimate(sorted, freq)
	}
	res.Display = display(res.Stats, res.Estimate, unit)

	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	a.metrics.RecordAnalysis(res.Method, string(res.Estimate.Direction))
	a.metrics.RecordLastValue(indicator, res.Stats.LastValue)
	a.metrics.RecordAnomalies(indicator, len(res.Estimate.AnomalyIndices))

	a.publish(ctx, res)

	if narrate && a.narrator != nil {
		text, err := a.narrator.Narrate(ctx, models.NarrationInput{
			Indicator: indicator,
			Unit:      unit,
			Stats:     res.Stats,
			Estimate:  res.Estimate,
		})
		if err != nil {
			a.metrics.RecordError("narrate")
			a.l.Warn("narration failed", applogger.String("indicator", indicator), applogger.Error(err))
		}
		res.Narrative = text
	}
	return res, nil
}

// publish emits trend.analyzed and, when the newest point is anomalous,
// trend.anomaly. Failures are logged only.
func (a *TrendAnalyzer) publish(ctx context.Context, res *models.AnalysisResult) {
	if a.events == nil || !res.Estimate.Sufficient {
		return
	}
	ev := models.TrendEvent{
		ID:          uuid.NewString(),
		Kind:        models.EventTrendAnalyzed,
		Indicator:   res.Indicator,
		Method:      res.Method,
		Timestamp:   res.Timestamp,
		Level:       res.Estimate.Level,
		Slope:       res.Estimate.Slope,
		Direction:   res.Estimate.Direction,
		Strength:    res.Estimate.Strength,
		Uncertainty: res.Estimate.Uncertainty,
		NextPeriod:  res.Estimate.NextPeriodLabel,
		Anomalies:   res.Estimate.AnomalyIndices,
	}
	if res.Estimate.Forecast != nil {
		ev.Forecast = res.Estimate.Forecast.Mean
	}
	kinds := []string{models.EventTrendAnalyzed}
	if latestIsAnomalous(res.Estimate.AnomalyIndices, res.Stats.Count) {
		kinds = append(kinds, models.EventTrendAnomaly)
	}
	for _, kind := range kinds {
		ev.Kind = kind
		if kind != models.EventTrendAnalyzed {
			ev.ID = uuid.NewString()
		}
		e := ev
		if err := a.events.PublishEvent(ctx, &e); err != nil {
			a.metrics.RecordError("publish_event")
			a.l.Warn("publish trend event",
				applogger.String("indicator", res.Indicator),
				applogger.String("kind", kind),
				applogger.Error(err))
		}
	}
}

func latestIsAnomalous(indices []int, n int) bool {
	return len(indices) > 0 && indices[len(indices)-1] == n-1
}

func display(stats models.SeriesStats, est models.TrendEstimate, unit string) *models.DisplayText {
	d := &models.DisplayText{
		Last:   format.Value(stats.LastValue, unit),
		Change: format.Change(stats.Change, unit),
	}
	if est.Forecast != nil {
		d.Forecast = format.Value(est.Forecast.Mean, unit)
	}
	return d
}
