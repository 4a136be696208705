package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservationQueryNormalize(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	q := ObservationQuery{Indicator: "  ipca ", From: from, To: to}.Normalize()
	assert.Equal(t, "ipca", q.Indicator)
	assert.Equal(t, DefaultQueryLimit, q.Limit)
	assert.Equal(t, to, q.From)
	assert.Equal(t, from, q.To)

	q = ObservationQuery{Limit: 1 << 20}.Normalize()
	assert.Equal(t, MaxQueryLimit, q.Limit)
}

func TestObservationQueryContains(t *testing.T) {
	q := ObservationQuery{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.False(t, q.Contains(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, q.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, q.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}
