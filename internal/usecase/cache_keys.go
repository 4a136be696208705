package usecase

import (
	"strings"

	"TrendPulse/internal/services/period"
	pkgcache "TrendPulse/pkg/cache"
)

const trendKeyPrefix = "trend"

// TrendCacheKey is the result-cache key of one GET /api/trend variant.
// Callers resolve method and n defaults first; a frequency tag is reduced to
// its canonical name so en/pt spellings share one entry.
func TrendCacheKey(indicator, method, frequency string, n int) string {
	if frequency = strings.TrimSpace(frequency); frequency != "" {
		frequency = string(period.Classify(frequency))
	}
	return pkgcache.GenerateKeyWithParams(trendKeyPrefix, strings.TrimSpace(indicator),
		strings.ToLower(strings.TrimSpace(method)), frequency, n)
}

// TrendCachePrefix matches every cached variant of indicator.
func TrendCachePrefix(indicator string) string {
	return pkgcache.GenerateKeyWithParams(trendKeyPrefix, strings.TrimSpace(indicator)) + ":"
}
