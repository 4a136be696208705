package usecase

import "errors"

var (
	ErrIndicatorRequired = errors.New("indicator required")
	ErrNoObservations    = errors.New("no observations")
	ErrUnknownMethod     = errors.New("unknown estimation method")
	ErrInvalidRange      = errors.New("from must be <= to")
)
