// Package period classifies sampling cadences and formats period labels.
package period

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
)

// daysPerMonth is the mean Gregorian month length.
const daysPerMonth = 30.4375

// NotAvailable is the label used when no next period can be computed.
const NotAvailable = "N/A"

var tags = map[string]models.Frequency{
	"daily":      models.FrequencyDaily,
	"day":        models.FrequencyDaily,
	"diario":     models.FrequencyDaily,
	"diário":     models.FrequencyDaily,
	"diaria":     models.FrequencyDaily,
	"diária":     models.FrequencyDaily,
	"monthly":    models.FrequencyMonthly,
	"month":      models.FrequencyMonthly,
	"mensal":     models.FrequencyMonthly,
	"quarterly":  models.FrequencyQuarterly,
	"quarter":    models.FrequencyQuarterly,
	"trimestral": models.FrequencyQuarterly,
	"yearly":     models.FrequencyYearly,
	"annual":     models.FrequencyYearly,
	"year":       models.FrequencyYearly,
	"anual":      models.FrequencyYearly,
}

// Classify maps a frequency tag to a known Frequency, case-insensitively.
// Unrecognized or empty tags yield FrequencyUnknown, which formats as monthly.
func Classify(tag string) models.Frequency {
	if f, ok := tags[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return f
	}
	return models.FrequencyUnknown
}

// FormatLabel renders date as a period label for the given frequency.
func FormatLabel(date time.Time, freq models.Frequency) string {
	switch freq {
	case models.FrequencyYearly:
		return date.Format("2006")
	case models.FrequencyQuarterly:
		return fmt.Sprintf("%dº tri %d", Quarter(date), date.Year())
	case models.FrequencyDaily:
		return date.Format("02/01/2006")
	default:
		return date.Format("Jan/2006")
	}
}

// Quarter returns the 1-based calendar quarter of date.
func Quarter(date time.Time) int {
	return (int(date.Month())-1)/3 + 1
}

// NextPeriodDate advances last by one unit of freq. Month arithmetic clamps
// the day to the end of the target month (Jan 31 -> Feb 28).
func NextPeriodDate(last time.Time, freq models.Frequency) time.Time {
	switch freq {
	case models.FrequencyDaily:
		return last.AddDate(0, 0, 1)
	case models.FrequencyQuarterly:
		return addMonths(last, 3)
	case models.FrequencyYearly:
		return addMonths(last, 12)
	default:
		return addMonths(last, 1)
	}
}

// NextPeriodLabel formats the period immediately following last.
func NextPeriodLabel(last time.Time, freq models.Frequency) string {
	if last.IsZero() {
		return NotAvailable
	}
	return FormatLabel(NextPeriodDate(last, freq), freq)
}

// DetectFrequency estimates the cadence of count records spread between
// start and end from the average number of records per calendar month.
func DetectFrequency(count int, start, end time.Time) models.Frequency {
	if count <= 0 {
		return models.FrequencyUnknown
	}
	if end.Before(start) {
		start, end = end, start
	}
	months := end.Sub(start).Hours() / 24 / daysPerMonth
	if months < 1 {
		months = 1
	}
	avgPerMonth := float64(count) / months
	switch {
	case avgPerMonth > 20:
		return models.FrequencyDaily
	case avgPerMonth >= 0.8:
		return models.FrequencyMonthly
	case avgPerMonth > 0.3:
		return models.FrequencyQuarterly
	default:
		return models.FrequencyYearly
	}
}

// DetectFromSeries runs DetectFrequency over the span of series.
func DetectFromSeries(series []models.Observation) models.Frequency {
	if len(series) == 0 {
		return models.FrequencyUnknown
	}
	start, end := series[0].Date, series[0].Date
	for _, o := range series[1:] {
		if o.Date.Before(start) {
			start = o.Date
		}
		if o.Date.After(end) {
			end = o.Date
		}
	}
	return DetectFrequency(len(series), start, end)
}

// Resolve classifies tag and falls back to detection from series when the
// tag is missing or unrecognized.
func Resolve(tag string, series []models.Observation) models.Frequency {
	if f := Classify(tag); f != models.FrequencyUnknown {
		return f
	}
	if f := DetectFromSeries(series); f != models.FrequencyUnknown {
		return f
	}
	return models.FrequencyUnknown
}

// SortObservations returns a copy of series sorted ascending by date.
// Observations sharing a date keep their input order.
func SortObservations(series []models.Observation) []models.Observation {
	out := make([]models.Observation, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
