package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/util"
)

// CSVOptions controls LoadObservationsCSV. Empty column names fall back to
// common header spellings.
type CSVOptions struct {
	DateColumn      string
	ValueColumn     string
	IndicatorColumn string
	Indicator       string // used when the file has no indicator column
	Unit            string
	Delimiter       rune // ',' by default; ';' files may use decimal commas
}

var (
	dateHeaders      = []string{"date", "ds", "data", "period", "month", "year"}
	valueHeaders     = []string{"value", "y", "valor", "close"}
	indicatorHeaders = []string{"indicator", "unique_id", "id", "series", "serie"}
)

// LoadObservationsFile opens path and loads it with LoadObservationsCSV.
func LoadObservationsFile(path string, opts CSVOptions) ([]models.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadObservationsCSV(f, opts)
}

// LoadObservationsCSV reads a headed CSV of dated values. Rows with an empty
// value are skipped; an unparsable date or value is an error naming the line.
func LoadObservationsCSV(r io.Reader, opts CSVOptions) ([]models.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: empty input")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}

	dateIdx := column(header, opts.DateColumn, dateHeaders)
	valueIdx := column(header, opts.ValueColumn, valueHeaders)
	indIdx := column(header, opts.IndicatorColumn, indicatorHeaders)
	if dateIdx < 0 {
		return nil, fmt.Errorf("csv: no date column in %v", header)
	}
	if valueIdx < 0 {
		// last column holds the values in two-column exports
		valueIdx = len(header) - 1
	}
	if valueIdx == dateIdx {
		return nil, fmt.Errorf("csv: no value column in %v", header)
	}

	var out []models.Observation
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if dateIdx >= len(rec) || valueIdx >= len(rec) {
			return nil, fmt.Errorf("csv line %d: expected %d fields, got %d", line, len(header), len(rec))
		}
		raw := strings.TrimSpace(rec[valueIdx])
		if raw == "" {
			continue
		}

		date, ok := util.ParseTime(strings.TrimSpace(rec[dateIdx]))
		if !ok {
			return nil, fmt.Errorf("csv line %d: bad date %q", line, rec[dateIdx])
		}
		val, err := parseNumber(raw)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad value %q", line, raw)
		}
		ind := opts.Indicator
		if indIdx >= 0 && indIdx < len(rec) && strings.TrimSpace(rec[indIdx]) != "" {
			ind = strings.TrimSpace(rec[indIdx])
		}
		out = append(out, models.Observation{Indicator: ind, Date: date, Value: val, Unit: opts.Unit})
	}
	return out, nil
}

func column(header []string, want string, fallbacks []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.Trim(h, "\"\ufeff")))
		if want != "" {
			if h == strings.ToLower(want) {
				return i
			}
			continue
		}
		for _, f := range fallbacks {
			if h == f {
				return i
			}
		}
	}
	return -1
}

// parseNumber accepts "1234.5" and the pt-BR form "1.234,5".
func parseNumber(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), 64)
}
