package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardOrderAndErrors(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 100, 105, 110, 115, 120)
	store.put("selic", 13.75, 13.25, 12.75, 12.25, 11.75)
	a, _ := newAnalyzer(store, nil)
	uc := NewDashboardUseCase(a, time.Second)

	res, err := uc.Get(context.Background(), DashboardParams{
		Indicators: []string{"selic", " ", "missing", "ipca"},
		Method:     "simple",
		N:          60,
	})
	require.NoError(t, err)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, "selic", res.Cards[0].Indicator)
	assert.Equal(t, "ipca", res.Cards[1].Indicator)
	assert.Equal(t, "simple", res.Method)
	assert.Contains(t, res.Errors, "missing")
	assert.Len(t, res.Errors, 1)
	for _, c := range res.Cards {
		assert.Nil(t, c.STS)
	}
}

func TestDashboardSTSCardsAreLight(t *testing.T) {
	store := newMemStore()
	store.put("ipca", 100, 105, 110, 115, 120)
	a, _ := newAnalyzer(store, nil)

	res, err := NewDashboardUseCase(a, 0).Get(context.Background(), DashboardParams{Indicators: []string{"ipca"}})
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "sts", res.Method)
	assert.Nil(t, res.Cards[0].STS)
	assert.Nil(t, res.Errors)
}

func TestDashboardRequiresIndicators(t *testing.T) {
	a, _ := newAnalyzer(newMemStore(), nil)
	_, err := NewDashboardUseCase(a, time.Second).Get(context.Background(), DashboardParams{Indicators: []string{""}})
	assert.ErrorIs(t, err, ErrIndicatorRequired)
}
