package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidObservation is wrapped by Observation.Validate failures.
var ErrInvalidObservation = errors.New("invalid observation")

// Validate checks that o can be persisted: a non-empty indicator without
// '/', a non-zero date and a finite value.
func (o Observation) Validate() error {
	switch {
	case strings.TrimSpace(o.Indicator) == "":
		return fmt.Errorf("%w: indicator is required", ErrInvalidObservation)
	case strings.Contains(o.Indicator, "/"):
		return fmt.Errorf("%w: indicator %q contains '/'", ErrInvalidObservation, o.Indicator)
	case o.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidObservation)
	case math.IsNaN(o.Value) || math.IsInf(o.Value, 0):
		return fmt.Errorf("%w: value is not finite", ErrInvalidObservation)
	}
	return nil
}
