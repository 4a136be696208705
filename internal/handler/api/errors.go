package api

import (
	"context"
	"errors"
	"net/http"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/services/period"
	"TrendPulse/internal/usecase"
	xhttp "TrendPulse/pkg/http"
)

// The frequency tag accepts any English or Portuguese cadence name the
// period package knows.
func init() {
	err := xhttp.RegisterValidation("frequency", func(v string) bool {
		return period.Classify(v) != models.FrequencyUnknown
	}, "%s must be daily, monthly, quarterly or yearly")
	if err != nil {
		panic(err)
	}
}

// toAppError maps use-case failures to transport errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrIndicatorRequired):
		return xhttp.NewAppError("ERR_REQUIRED", "indicator", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, usecase.ErrUnknownMethod):
		return xhttp.NewAppError("ERR_ONEOF", "method", err.Error(), http.StatusBadRequest).
			WithParam("allowed", []string{"sts", "simple"}).WithError(err)
	case errors.Is(err, usecase.ErrInvalidRange):
		return xhttp.NewAppError("ERR_RANGE", "from", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, usecase.ErrNoObservations):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("upstream timeout").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
