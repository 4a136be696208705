package trend

import (
	"fmt"
	"strings"

	"TrendPulse/internal/domain/service"
)

// Registry selects an estimator by method name.
type Registry struct {
	byMethod map[string]service.TrendEstimator
	fallback string
}

// NewRegistry registers the given estimators. The first one is the fallback
// used for an empty method.
func NewRegistry(estimators ...service.TrendEstimator) *Registry {
	r := &Registry{byMethod: make(map[string]service.TrendEstimator, len(estimators))}
	for _, e := range estimators {
		if r.fallback == "" {
			r.fallback = e.Method()
		}
		r.byMethod[e.Method()] = e
	}
	return r
}

// NewDefaultRegistry registers the STS and simple estimators with sts as
// fallback.
func NewDefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(NewSTSEstimator(opts...), NewSimpleEstimator(opts...))
}

// Get returns the estimator registered for method.
func (r *Registry) Get(method string) (service.TrendEstimator, error) {
	m := strings.ToLower(strings.TrimSpace(method))
	if m == "" {
		m = r.fallback
	}
	e, ok := r.byMethod[m]
	if !ok {
		return nil, fmt.Errorf("unknown estimation method %q", method)
	}
	return e, nil
}

// STS returns the registered STS estimator, if any.
func (r *Registry) STS() (*STSEstimator, bool) {
	e, ok := r.byMethod[MethodSTS].(*STSEstimator)
	return e, ok
}
