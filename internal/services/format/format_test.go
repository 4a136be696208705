package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	cases := []struct {
		value float64
		unit  string
		want  string
	}{
		{1234.561, "currency", "R$ 1.234,56"},
		{1234.561, "BRL", "R$ 1.234,56"},
		{-1234.5, "r$", "-R$ 1.234,50"},
		{1234567.891, "usd", "US$ 1,234,567.89"},
		{12.345, "%", "12,35%"},
		{0.5, "percent", "0,50%"},
		{999.999, "", "1.000,00"},
		{100, "index", "100,00"},
		{0, "", "0,00"},
		{-0.001, "", "0,00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Value(c.value, c.unit), "%v %s", c.value, c.unit)
	}
	assert.Equal(t, "-", Value(math.NaN(), "brl"))
	assert.Equal(t, "-", Value(math.Inf(-1), ""))
}

func TestChange(t *testing.T) {
	assert.Equal(t, "+1,50", Change(1.5, ""))
	assert.Equal(t, "-0,25%", Change(-0.25, "%"))
	assert.Equal(t, "0,00", Change(0, ""))
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, UnitBRL, NormalizeUnit(" Reais "))
	assert.Equal(t, UnitUSD, NormalizeUnit("US$"))
	assert.Equal(t, UnitPlain, NormalizeUnit("kg"))
}
