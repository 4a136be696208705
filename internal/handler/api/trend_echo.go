package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	icache "TrendPulse/internal/service/cache"
	imetrics "TrendPulse/internal/service/metrics"
	"TrendPulse/internal/service/ratelimit"
	"TrendPulse/internal/usecase"
	xhttp "TrendPulse/pkg/http"
	xlogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// RateLimit is the per client and route token bucket of the trend API.
// A zero Capacity disables limiting.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// TrendEchoHandler serves the trend, series and dashboard endpoints.
type TrendEchoHandler struct {
	logger    *xlogger.Logger
	analyzer  *usecase.TrendAnalyzer
	dashboard *usecase.DashboardUseCase
	series    *usecase.SeriesUseCase
	cache     icache.BytesCache
	cacheTTL  time.Duration
	limiter   *ratelimit.Limiter
	rate      RateLimit
}

func NewTrendEchoHandler(
	logger *xlogger.Logger,
	analyzer *usecase.TrendAnalyzer,
	dashboard *usecase.DashboardUseCase,
	series *usecase.SeriesUseCase,
	cache icache.BytesCache,
	cacheTTL time.Duration,
	rate RateLimit,
) *TrendEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	imetrics.Register()
	return &TrendEchoHandler{
		logger:    logger,
		analyzer:  analyzer,
		dashboard: dashboard,
		series:    series,
		cache:     cache,
		cacheTTL:  cacheTTL,
		limiter:   ratelimit.New(),
		rate:      rate,
	}
}

func (h *TrendEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.GET("/trend", h.Trend)
	g.POST("/trend/analyze", h.Analyze)
	g.GET("/series", h.Series)
	g.GET("/dashboard", h.Dashboard)
}

func (h *TrendEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rate.Capacity <= 0 {
			return next(c)
		}
		key := c.RealIP() + "|" + c.Path()
		if !h.limiter.Allow(key, h.rate.Capacity, h.rate.RefillPerSec) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

// PruneLimiter drops idle rate-limit buckets.
func (h *TrendEchoHandler) PruneLimiter(idle time.Duration) int {
	return h.limiter.Prune(idle)
}

func (h *TrendEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		imetrics.AnalyticsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func observe(endpoint string, start time.Time) {
	imetrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Trend analyzes the latest stored observations of an indicator. Responses
// are cached per (indicator, method, frequency, n) until new data arrives;
// an omitted method or n takes the analyzer default before the key is built.
func (h *TrendEchoHandler) Trend(c echo.Context) error {
	defer observe("trend", time.Now())
	req := &models.TrendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	indicator := strings.TrimSpace(req.Indicator)
	method, n := h.analyzer.Defaults(req.Method, req.N)
	key := usecase.TrendCacheKey(indicator, method, req.Frequency, n)
	if h.cache != nil && !req.Narrate {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			imetrics.CacheLookups.WithLabelValues("trend", "hit").Inc()
			c.Response().Header().Set("X-Cache", "HIT")
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
		imetrics.CacheLookups.WithLabelValues("trend", "miss").Inc()
		c.Response().Header().Set("X-Cache", "MISS")
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Indicator: indicator,
		Method:    method,
		Frequency: req.Frequency,
		N:         n,
		Narrate:   req.Narrate,
	})
	if err != nil {
		return h.fail(c, "trend", err)
	}

	if h.cache != nil && !req.Narrate {
		if b, err := json.Marshal(res); err == nil {
			if err := h.cache.SetBytes(key, b, h.cacheTTL); err != nil {
				h.logger.Warn("trend cache set", xlogger.String("key", key), xlogger.Error(err))
			}
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Analyze runs an estimator over a series posted in the body.
func (h *TrendEchoHandler) Analyze(c echo.Context) error {
	defer observe("trend_analyze", time.Now())
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	series := make([]models.Observation, 0, len(req.Series))
	for i, p := range req.Series {
		date, ok := util.ParseTime(p.Date)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_DATE", fmt.Sprintf("series[%d].date", i),
				fmt.Sprintf("unparsable date %q", p.Date), http.StatusBadRequest))
		}
		series = append(series, models.Observation{Date: date, Value: p.Value})
	}

	res, err := h.analyzer.AnalyzeSeries(c.Request().Context(), usecase.SeriesParams{
		Indicator: req.Indicator,
		Unit:      req.Unit,
		Method:    req.Method,
		Frequency: req.Frequency,
		Series:    series,
		Narrate:   req.Narrate,
	})
	if err != nil {
		return h.fail(c, "trend_analyze", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Series returns stored observations for charting.
func (h *TrendEchoHandler) Series(c echo.Context) error {
	defer observe("series", time.Now())
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var from, to time.Time
	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{{"from", req.From, &from}, {"to", req.To, &to}} {
		if f.raw == "" {
			continue
		}
		t, ok := util.ParseTime(f.raw)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_DATE", f.name,
				fmt.Sprintf("unparsable date %q", f.raw), http.StatusBadRequest))
		}
		*f.dst = t
	}

	res, err := h.series.GetSeries(c.Request().Context(), usecase.GetSeriesParams{
		Indicator: req.Indicator,
		From:      from,
		To:        to,
		Limit:     req.Limit,
	})
	if err != nil {
		return h.fail(c, "series", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Dashboard analyzes a comma separated list of indicators.
func (h *TrendEchoHandler) Dashboard(c echo.Context) error {
	defer observe("dashboard", time.Now())
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dashboard.Get(c.Request().Context(), usecase.DashboardParams{
		Indicators: util.SplitList(req.Indicators),
		Method:     req.Method,
		N:          req.N,
	})
	if err != nil {
		return h.fail(c, "dashboard", err)
	}
	return xhttp.SuccessResponse(c, res)
}
