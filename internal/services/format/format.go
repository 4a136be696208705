// Package format renders numeric outputs for display.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit families understood by Value.
const (
	UnitBRL     = "brl"
	UnitUSD     = "usd"
	UnitPercent = "percent"
	UnitPlain   = ""
)

var unitAliases = map[string]string{
	"brl":      UnitBRL,
	"r$":       UnitBRL,
	"currency": UnitBRL,
	"reais":    UnitBRL,
	"usd":      UnitUSD,
	"us$":      UnitUSD,
	"dollar":   UnitUSD,
	"percent":  UnitPercent,
	"pct":      UnitPercent,
	"%":        UnitPercent,
}

// NormalizeUnit maps a free-form unit to one of the unit families.
func NormalizeUnit(unit string) string {
	return unitAliases[strings.ToLower(strings.TrimSpace(unit))]
}

// Value renders value according to unit with two decimals:
// brl "R$ 1.234,56", usd "US$ 1,234.56", percent "12,35%", otherwise
// "1.234,56". Non-finite values render as "-".
func Value(value float64, unit string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "-"
	}
	d := decimal.NewFromFloat(value).Round(2)
	neg := d.IsNegative()
	abs := d.Abs()

	var s string
	switch NormalizeUnit(unit) {
	case UnitBRL:
		s = "R$ " + group(abs, '.', ',')
	case UnitUSD:
		s = "US$ " + group(abs, ',', '.')
	case UnitPercent:
		s = group(abs, '.', ',') + "%"
	default:
		s = group(abs, '.', ',')
	}
	if neg {
		return "-" + s
	}
	return s
}

// Change renders a signed delta, e.g. "+1,50" or "-0,25%".
func Change(delta float64, unit string) string {
	s := Value(delta, unit)
	if delta > 0 && s != "-" {
		return "+" + s
	}
	return s
}

// group formats a non-negative decimal with two decimals and the given
// thousands and decimal separators.
func group(d decimal.Decimal, thousands, dec byte) string {
	fixed := d.StringFixed(2)
	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(thousands)
		}
		b.WriteByte(intPart[i])
	}
	if frac != "" {
		b.WriteByte(dec)
		b.WriteString(frac)
	}
	return b.String()
}
