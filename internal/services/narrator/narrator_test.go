package narrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func sampleInput() models.NarrationInput {
	return models.NarrationInput{
		Indicator: "IPCA",
		Unit:      "%",
		Stats:     models.SeriesStats{LastValue: 0.56, Change: 0.12},
		Estimate: models.TrendEstimate{
			Sufficient:      true,
			Observations:    12,
			Direction:       models.DirectionUp,
			Strength:        models.StrengthModerate,
			Uncertainty:     models.UncertaintyLow,
			NextPeriodLabel: "Jan/2025",
			Forecast:        &models.ForecastBand{Mean: 0.6, Low: 0.4, High: 0.8, Coverage: 0.95},
			AnomalyIndices:  []int{11},
		},
	}
}

func TestRender(t *testing.T) {
	text := Render(sampleInput())
	assert.Equal(t, "IPCA: tendência de alta moderada. Último valor 0,56% (+0,12%)."+
		" Previsão para Jan/2025: 0,60%, entre 0,40% e 0,80%. Incerteza baixa."+
		" A última observação foge do padrão.", text)

	in := sampleInput()
	in.Estimate = models.TrendEstimate{Observations: 2}
	assert.Equal(t, "IPCA: dados insuficientes para estimar a tendência (2 observações).", Render(in))
}

func TestHTTPNarrator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/narrate", r.URL.Path)
		var in models.NarrationInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(narrateResponse{Text: "remote " + in.Indicator})
	}))
	defer srv.Close()

	n := NewHTTP(srv.URL+"/", time.Second, 1)
	text, err := n.Narrate(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "remote IPCA", text)
}

func TestHTTPNarratorFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	without := NewHTTP(srv.URL, time.Second, 1)
	_, err := without.Narrate(context.Background(), sampleInput())
	assert.Error(t, err)

	n := New(srv.URL, time.Second, 2, nil)
	text, err := n.Narrate(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.Equal(t, Render(sampleInput()), text)

	assert.IsType(t, Template{}, New("", time.Second, 1, nil))
}
