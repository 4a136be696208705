package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
)

const dashboardParallelism = 4

// DashboardUseCase analyzes several indicators concurrently.
type DashboardUseCase struct {
	analyzer *TrendAnalyzer
	timeout  time.Duration
}

func NewDashboardUseCase(analyzer *TrendAnalyzer, timeout time.Duration) *DashboardUseCase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DashboardUseCase{analyzer: analyzer, timeout: timeout}
}

type DashboardParams struct {
	Indicators []string
	Method     string
	N          int
}

// Get returns one card per indicator in request order. Indicators that fail
// are reported in Errors instead of Cards.
func (uc *DashboardUseCase) Get(ctx context.Context, p DashboardParams) (*models.DashboardResult, error) {
	inds := make([]string, 0, len(p.Indicators))
	for _, ind := range p.Indicators {
		if ind = strings.TrimSpace(ind); ind != "" {
			inds = append(inds, ind)
		}
	}
	if len(inds) == 0 {
		return nil, ErrIndicatorRequired
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	type item struct {
		res *models.AnalysisResult
		err error
	}
	items := make([]item, len(inds))
	sem := make(chan struct{}, dashboardParallelism)
	var wg sync.WaitGroup
	for i, ind := range inds {
		wg.Add(1)
		go func(i int, ind string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				items[i] = item{err: ctx.Err()}
				return
			}
			res, err := uc.analyzer.Analyze(ctx, AnalyzeParams{Indicator: ind, Method: p.Method, N: p.N})
			items[i] = item{res: res, err: err}
		}(i, ind)
	}
	wg.Wait()

	out := &models.DashboardResult{
		Timestamp: time.Now().UTC(),
		Method:    p.Method,
		Cards:     make([]models.AnalysisResult, 0, len(inds)),
		Errors:    map[string]string{},
	}
	for i, it := range items {
		if it.err != nil {
			out.Errors[inds[i]] = it.err.Error()
			continue
		}
		if out.Method == "" {
			out.Method = it.res.Method
		}
		// cards stay light; the full STS series is served by /api/trend
		card := *it.res
		card.STS = nil
		out.Cards = append(out.Cards, card)
	}
	if len(out.Errors) == 0 {
		out.Errors = nil
	}
	return out, nil
}
