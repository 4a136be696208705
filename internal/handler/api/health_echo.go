package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	xhttp "TrendPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// HealthEchoHandler serves /healthz from named dependency checks.
type HealthEchoHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthEchoHandler(checks map[string]HealthCheck) *HealthEchoHandler {
	return &HealthEchoHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}
	if resp.Status != "ok" {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, resp)
	}
	return xhttp.SuccessResponse(c, resp)
}
