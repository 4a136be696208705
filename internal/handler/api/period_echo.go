package api

import (
	"net/http"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/services/format"
	"TrendPulse/internal/services/period"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// PeriodEchoHandler exposes the period utility and value formatter.
type PeriodEchoHandler struct{}

func NewPeriodEchoHandler() *PeriodEchoHandler { return &PeriodEchoHandler{} }

func (h *PeriodEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/period/next", h.Next)
	g.GET("/period/detect", h.Detect)
	g.GET("/format", h.Format)
}

type nextPeriodResponse struct {
	Label     string           `json:"label"`
	Date      time.Time        `json:"date"`
	Frequency models.Frequency `json:"frequency"`
}

func badDate(field, raw string) *xhttp.AppError {
	return xhttp.NewAppError("ERR_DATE", field, "unparsable date "+raw, http.StatusBadRequest)
}

// Next returns the period after date. Without a frequency it steps monthly.
func (h *PeriodEchoHandler) Next(c echo.Context) error {
	req := &models.NextPeriodRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, ok := util.ParseTime(req.Date)
	if !ok {
		return xhttp.AppErrorResponse(c, badDate("date", req.Date))
	}
	freq := period.Classify(req.Frequency)
	if freq == models.FrequencyUnknown {
		freq = models.FrequencyMonthly
	}
	return xhttp.SuccessResponse(c, nextPeriodResponse{
		Label:     period.NextPeriodLabel(date, freq),
		Date:      period.NextPeriodDate(date, freq),
		Frequency: freq,
	})
}

// Detect classifies the cadence of count records between start and end.
func (h *PeriodEchoHandler) Detect(c echo.Context) error {
	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, ok := util.ParseTime(req.Start)
	if !ok {
		return xhttp.AppErrorResponse(c, badDate("start", req.Start))
	}
	end, ok := util.ParseTime(req.End)
	if !ok {
		return xhttp.AppErrorResponse(c, badDate("end", req.End))
	}
	return xhttp.SuccessResponse(c, map[string]models.Frequency{
		"frequency": period.DetectFrequency(req.Count, start, end),
	})
}

func (h *PeriodEchoHandler) Format(c echo.Context) error {
	req := &models.FormatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, map[string]string{"text": format.Value(req.Value, req.Unit)})
}
