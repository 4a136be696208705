package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	icache "TrendPulse/internal/service/cache"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/queue"
)

const RecomputeJobType = "trend.recompute"

// RecomputePayload names the indicator whose analysis should be refreshed.
// Empty Method and zero N use the analyzer defaults.
type RecomputePayload struct {
	Indicator string `json:"indicator"`
	Method    string `json:"method,omitempty"`
	N         int    `json:"n,omitempty"`
}

// RecomputeJob reruns the default analysis and warms the result cache under
// the key GET /api/trend uses for the default query. Defaults come from the
// analyzer so both sides build the same key.
type RecomputeJob struct {
	analyzer *TrendAnalyzer
	cache    icache.BytesCache
	ttl      time.Duration
	l        *applogger.Logger
}

func NewRecomputeJob(analyzer *TrendAnalyzer, cache icache.BytesCache, ttl time.Duration, l *applogger.Logger) *RecomputeJob {
	if l == nil {
		l = applogger.Nop()
	}
	return &RecomputeJob{analyzer: analyzer, cache: cache, ttl: ttl, l: l}
}

func (j *RecomputeJob) Name() string { return "trend_recompute" }

func (j *RecomputeJob) Type() string { return RecomputeJobType }

func (j *RecomputeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RecomputePayload](payload)
	if err != nil {
		return err
	}
	p.Method, p.N = j.analyzer.Defaults(p.Method, p.N)

	res, err := j.analyzer.Analyze(ctx, AnalyzeParams{Indicator: p.Indicator, Method: p.Method, N: p.N})
	if err != nil {
		return fmt.Errorf("recompute %s: %w", p.Indicator, err)
	}
	if j.cache == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if err := j.cache.SetBytes(TrendCacheKey(p.Indicator, p.Method, "", p.N), b, j.ttl); err != nil {
		j.l.Warn("warm trend cache", applogger.String("indicator", p.Indicator), applogger.Error(err))
	}
	return nil
}

var _ queue.Job = (*RecomputeJob)(nil)
