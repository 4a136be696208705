package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/repository"
	"TrendPulse/internal/services/features"
	"TrendPulse/internal/services/narrator"
	"TrendPulse/internal/services/period"
	"TrendPulse/internal/services/trend"
	"TrendPulse/internal/usecase"
	"TrendPulse/pkg/metrics"
	"TrendPulse/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type csvFlags struct {
	indicator string
	dateCol   string
	valueCol  string
	delimiter string
}

func (f *csvFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.indicator, "indicator", "", "indicator name; filters files with an indicator column")
	cmd.Flags().StringVar(&f.dateCol, "date-col", "", "date column (default: date, ds, data...)")
	cmd.Flags().StringVar(&f.valueCol, "value-col", "", "value column (default: value, y, valor...)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", "field delimiter")
}

func (f *csvFlags) load(path string) ([]models.Observation, error) {
	opts := repository.CSVOptions{
		DateColumn:  f.dateCol,
		ValueColumn: f.valueCol,
		Indicator:   f.indicator,
	}
	d := []rune(f.delimiter)
	if len(d) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", f.delimiter)
	}
	opts.Delimiter = d[0]
	obs, err := repository.LoadObservationsFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if f.indicator == "" {
		return obs, nil
	}
	out := obs[:0]
	for _, o := range obs {
		if o.Indicator == "" || strings.EqualFold(o.Indicator, f.indicator) {
			out = append(out, o)
		}
	}
	return out, nil
}

func newAnalyzeCmd() *cobra.Command {
	var (
		in       csvFlags
		method   string
		freq     string
		unit     string
		from, to string
		last     int
		narrate  bool
		compact  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Estimate the trend of a CSV series and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := in.load(args[0])
			if err != nil {
				return err
			}
			if from != "" || to != "" {
				var lo, hi time.Time
				if from != "" {
					if lo, err = parseDateFlag("from", from); err != nil {
						return err
					}
				}
				if to != "" {
					if hi, err = parseDateFlag("to", to); err != nil {
						return err
					}
				}
				series = features.Window(period.SortObservations(series), lo, hi)
			}
			if last > 0 {
				series = features.Tail(period.SortObservations(series), last)
			}

			name := in.indicator
			if name == "" {
				name = "series"
			}
			analyzer := usecase.NewTrendAnalyzer(nil, trend.NewDefaultRegistry(), nil,
				metrics.NewWithRegisterer(prometheus.NewRegistry()),
				usecase.WithNarrator(narrator.Template{}))
			res, err := analyzer.AnalyzeSeries(cmd.Context(), usecase.SeriesParams{
				Indicator: name,
				Unit:      unit,
				Method:    method,
				Frequency: freq,
				Series:    series,
				Narrate:   narrate,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(res)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&method, "method", "sts", "estimator: sts or simple")
	cmd.Flags().StringVar(&freq, "frequency", "", "frequency tag (daily, mensal, trimestral...); empty detects")
	cmd.Flags().StringVar(&unit, "unit", "", "unit label, e.g. %")
	cmd.Flags().StringVar(&from, "from", "", "first date to include")
	cmd.Flags().StringVar(&to, "to", "", "last date to include")
	cmd.Flags().IntVar(&last, "last", 0, "keep only the latest N points")
	cmd.Flags().BoolVar(&narrate, "narrate", false, "add a pt-BR narrative")
	cmd.Flags().BoolVar(&compact, "compact", false, "single-line JSON")
	return cmd
}

func newDetectCmd() *cobra.Command {
	var in csvFlags
	cmd := &cobra.Command{
		Use:   "detect <file.csv>",
		Short: "Detect the sampling frequency of a CSV series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := in.load(args[0])
			if err != nil {
				return err
			}
			freq := period.DetectFromSeries(series)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "frequency: %s\n", freq)
			if len(series) > 0 && freq != models.FrequencyUnknown {
				sorted := period.SortObservations(series)
				fmt.Fprintf(out, "next: %s\n", period.NextPeriodLabel(sorted[len(sorted)-1].Date, freq))
			}
			return nil
		},
	}
	in.register(cmd)
	return cmd
}

func newNextCmd() *cobra.Command {
	var freq string
	cmd := &cobra.Command{
		Use:   "next <date>",
		Short: "Print the period label that follows a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			last, err := parseDateFlag("date", args[0])
			if err != nil {
				return err
			}
			f := period.Classify(freq)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n",
				period.NextPeriodLabel(last, f),
				period.NextPeriodDate(last, f).Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&freq, "frequency", "monthly", "frequency tag")
	return cmd
}

func parseDateFlag(name, v string) (time.Time, error) {
	t, ok := util.ParseTime(v)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid --%s date %q", name, v)
	}
	return t, nil
}
