package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"TrendPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMonthlyCSV(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,value\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d-%02d-01,%d\n", 2023+i/12, i%12+1, 100+i)
	}
	path := filepath.Join(t.TempDir(), "ipca.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	path := writeMonthlyCSV(t, 24)

	out, err := execute(t, "analyze", path, "--indicator", "ipca", "--compact", "--narrate")
	require.NoError(t, err)

	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "ipca", res.Indicator)
	assert.Equal(t, models.FrequencyMonthly, res.Frequency)
	assert.Equal(t, 24, res.Stats.Count)
	assert.Equal(t, models.DirectionUp, res.Estimate.Direction)
	assert.Equal(t, "Jan/2025", res.Estimate.NextPeriodLabel)
	assert.NotEmpty(t, res.Narrative)
}

func TestAnalyzeCommandLast(t *testing.T) {
	path := writeMonthlyCSV(t, 24)

	out, err := execute(t, "analyze", path, "--last", "6", "--method", "simple")
	require.NoError(t, err)

	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "series", res.Indicator)
	assert.Equal(t, 6, res.Stats.Count)
	assert.Nil(t, res.STS)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	path := writeMonthlyCSV(t, 5)

	_, err := execute(t, "analyze", path, "--delimiter", ";;")
	assert.Error(t, err)

	_, err = execute(t, "analyze", path, "--from", "not-a-date")
	assert.Error(t, err)

	_, err = execute(t, "analyze", path, "--method", "arima")
	assert.Error(t, err)

	_, err = execute(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestDetectCommand(t *testing.T) {
	path := writeMonthlyCSV(t, 12)

	out, err := execute(t, "detect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "frequency: monthly")
	assert.Contains(t, out, "next: Jan/2024")
}

func TestNextCommand(t *testing.T) {
	out, err := execute(t, "next", "2024-08-15", "--frequency", "trimestral")
	require.NoError(t, err)
	assert.Equal(t, "4º tri 2024\t2024-11-15\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "trendpulse v"))
}
