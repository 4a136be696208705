package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadObservationsCSV(t *testing.T) {
	in := "date,value\n2024-01-01,100\n2024-02-01,\n2024-03-01,105.5\n"
	obs, err := LoadObservationsCSV(strings.NewReader(in), CSVOptions{Indicator: "ipca", Unit: "index"})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "ipca", obs[0].Indicator)
	assert.Equal(t, "index", obs[0].Unit)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), obs[1].Date)
	assert.Equal(t, 105.5, obs[1].Value)
}

func TestLoadObservationsCSVSemicolonDecimalComma(t *testing.T) {
	in := "data;valor\n01/01/2024;1.234,56\n01/02/2024;1.300,00\n"
	obs, err := LoadObservationsCSV(strings.NewReader(in), CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 1234.56, obs[0].Value)
	assert.Equal(t, time.February, obs[1].Date.Month())
}

func TestLoadObservationsCSVIndicatorColumn(t *testing.T) {
	in := "unique_id,ds,y\nselic,2024-01-01,11.75\nipca,2024-01-01,0.42\n"
	obs, err := LoadObservationsCSV(strings.NewReader(in), CSVOptions{Indicator: "fallback"})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "selic", obs[0].Indicator)
	assert.Equal(t, "ipca", obs[1].Indicator)
}

func TestLoadObservationsCSVErrors(t *testing.T) {
	_, err := LoadObservationsCSV(strings.NewReader(""), CSVOptions{})
	assert.Error(t, err)

	_, err = LoadObservationsCSV(strings.NewReader("foo,bar\n1,2\n"), CSVOptions{})
	assert.ErrorContains(t, err, "no date column")

	_, err = LoadObservationsCSV(strings.NewReader("date,value\nnot-a-date,1\n"), CSVOptions{})
	assert.ErrorContains(t, err, "line 2")

	_, err = LoadObservationsCSV(strings.NewReader("date,value\n2024-01-01,abc\n"), CSVOptions{})
	assert.ErrorContains(t, err, "bad value")
}
