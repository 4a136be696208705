// Package narrator turns trend analyses into short prose.
package narrator

import (
	"context"
	"fmt"
	"strings"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/services/format"
)

var directionText = map[models.Direction]string{
	models.DirectionUp:     "alta",
	models.DirectionDown:   "queda",
	models.DirectionStable: "estabilidade",
}

var strengthText = map[models.Strength]string{
	models.StrengthStrong:   "forte",
	models.StrengthModerate: "moderada",
	models.StrengthWeak:     "fraca",
}

var uncertaintyText = map[models.Uncertainty]string{
	models.UncertaintyLow:      "baixa",
	models.UncertaintyModerate: "moderada",
	models.UncertaintyHigh:     "alta",
}

// Template renders a fixed pt-BR summary. It never fails.
type Template struct{}

func (Template) Narrate(_ context.Context, in models.NarrationInput) (string, error) {
	return Render(in), nil
}

// Render builds the template summary of in.
func Render(in models.NarrationInput) string {
	est := in.Estimate
	if !est.Sufficient {
		return fmt.Sprintf("%s: dados insuficientes para estimar a tendência (%d observações).",
			in.Indicator, est.Observations)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: tendência de %s", in.Indicator, directionText[est.Direction])
	if est.Direction != models.DirectionStable {
		fmt.Fprintf(&b, " %s", strengthText[est.Strength])
	}
	fmt.Fprintf(&b, ". Último valor %s (%s).",
		format.Value(in.Stats.LastValue, in.Unit), format.Change(in.Stats.Change, in.Unit))

	if f := est.Forecast; f != nil {
		fmt.Fprintf(&b, " Previsão para %s: %s, entre %s e %s.",
			est.NextPeriodLabel,
			format.Value(f.Mean, in.Unit),
			format.Value(f.Low, in.Unit),
			format.Value(f.High, in.Unit))
	}
	if u, ok := uncertaintyText[est.Uncertainty]; ok {
		fmt.Fprintf(&b, " Incerteza %s.", u)
	}
	if n := len(est.AnomalyIndices); n > 0 {
		if last := est.AnomalyIndices[n-1]; last == est.Observations-1 {
			b.WriteString(" A última observação foge do padrão.")
		} else {
			fmt.Fprintf(&b, " %d observação(ões) fora do padrão.", n)
		}
	}
	return b.String()
}
