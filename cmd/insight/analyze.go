package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/stats"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [field...]",
		Short: "Descriptive statistics of numeric fields (all numeric fields by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.data()
			if err != nil {
				return err
			}
			fields := args
			if len(fields) == 0 {
				fields = records.NumericFields()
			}
			summaries := stats.SummarizeAll(records, fields)
			return a.emit(cmd.OutOrStdout(), summaries, func(w io.Writer) error {
				heading(w, fmt.Sprintf("Summary of %d records (%s)", len(records), a.source))
				rows := make([][]string, len(summaries))
				for i, s := range summaries {
					rows[i] = []string{
						s.Field, strconv.Itoa(s.Count),
						numIf(s.Mean, s.Defined), numIf(s.Median, s.Defined), numIf(s.StdDev, s.Defined),
						numIf(s.Min, s.Defined), numIf(s.Max, s.Defined), numIf(s.Sum, s.Defined),
					}
				}
				renderTable(w, []string{"field", "count", "mean", "median", "std", "min", "max", "sum"}, rows)
				return nil
			})
		},
	}
}

func newGroupCmd(a *app) *cobra.Command {
	var valueField, reducerName string
	cmd := &cobra.Command{
		Use:   "group <field>",
		Short: "Aggregate a value field per category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reducer, err := stats.ParseReducer(reducerName)
			if err != nil {
				return err
			}
			records, err := a.data()
			if err != nil {
				return err
			}
			if valueField == "" && reducer != stats.Count {
				valueField = a.cfg.Target
			}
			aggs, err := stats.GroupBy(records, args[0], valueField, reducer)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), aggs, func(w io.Writer) error {
				heading(w, fmt.Sprintf("%s of %s by %s", reducer, valueField, args[0]))
				rows := make([][]string, len(aggs))
				for i, g := range aggs {
					rows[i] = []string{g.Key, num(g.Value), strconv.Itoa(g.Count), strconv.Itoa(g.Valid)}
				}
				renderTable(w, []string{args[0], reducer.String(), "records", "valid"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&valueField, "value", "", "value field (default: the configured target)")
	cmd.Flags().StringVar(&reducerName, "reducer", "sum", "sum, mean or count")
	return cmd
}

func newCorrelateCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "correlate [field...]",
		Short: "Pearson correlation matrix and strongest pairs",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.data()
			if err != nil {
				return err
			}
			fields := args
			if len(fields) == 0 {
				fields = records.NumericFields()
			}
			m := stats.Correlations(records, fields)
			pairs := m.Pairs(top)
			out := struct {
				Matrix stats.CorrelationMatrix `json:"matrix"`
				Pairs  []stats.Pair            `json:"pairs"`
			}{m, pairs}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				heading(w, "Correlation matrix")
				rows := make([][]string, len(m.Fields))
				for i, f := range m.Fields {
					rows[i] = append([]string{f}, make([]string, len(m.Fields))...)
					for j := range m.Fields {
						rows[i][j+1] = numIf(m.Values[i][j], m.Defined[i][j])
					}
				}
				renderTable(w, append([]string{""}, m.Fields...), rows)

				heading(w, "Strongest pairs")
				prows := make([][]string, len(pairs))
				for i, p := range pairs {
					prows[i] = []string{p.A, p.B, num(p.R)}
				}
				renderTable(w, []string{"a", "b", "r"}, prows)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of pairs to list (0 = all)")
	return cmd
}

func newOutliersCmd(a *app) *cobra.Command {
	var k float64
	cmd := &cobra.Command{
		Use:   "outliers <field>",
		Short: "Records outside the IQR fences of a numeric field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.data()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") {
				k = a.cfg.Outliers.IQRMultiplier
			}
			field := args[0]
			idx, err := stats.OutlierIndices(records, field, k)
			if err != nil {
				return err
			}
			bounds, defined := stats.OutlierBoundsWith(records, field, k)
			outliers := make([]dataset.Record, len(idx))
			for i, j := range idx {
				outliers[i] = records[j]
			}
			out := struct {
				Field   string           `json:"field"`
				Defined bool             `json:"defined"`
				Bounds  stats.Bounds     `json:"bounds"`
				Rows    []int            `json:"rows"`
				Records []dataset.Record `json:"records"`
			}{field, defined, bounds, idx, outliers}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				heading(w, "Outliers of "+field)
				if !defined {
					fmt.Fprintln(w, mutedStyle.Render("no numeric values"))
					return nil
				}
				keyValue(w, "fences", fmt.Sprintf("[%s, %s] (Q1 %s, Q3 %s, k %s)",
					num(bounds.Lower), num(bounds.Upper), num(bounds.Q1), num(bounds.Q3), num(bounds.Multiplier)))
				keyValue(w, "count", len(idx))
				if len(idx) == 0 {
					return nil
				}
				rows := make([][]string, len(idx))
				for i, j := range idx {
					v, _ := records[j].Float(field)
					rows[i] = []string{strconv.Itoa(j), num(v), describe(records[j], field)}
				}
				renderTable(w, []string{"row", field, "record"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&k, "k", 1.5, "IQR multiplier (default: outliers.iqr_multiplier)")
	return cmd
}

// describe renders the fields of r other than skip as key=value pairs.
func describe(r dataset.Record, skip string) string {
	var parts []string
	for _, f := range r.Fields() {
		if f != skip {
			parts = append(parts, f+"="+r.Get(f).String())
		}
	}
	return strings.Join(parts, " ")
}

func newQualityCmd(a *app) *cobra.Command {
	var fields []string
	cmd := &cobra.Command{
		Use:   "quality",
		Short: "Missing values, duplicate rows and the quality score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.data()
			if err != nil {
				return err
			}
			opts := a.cfg.QualityOptions()
			opts.Fields = fields
			rep, err := stats.DataQualityWith(records, opts)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), rep, func(w io.Writer) error {
				heading(w, "Data quality")
				keyValue(w, "score", num(rep.Score))
				keyValue(w, "rows", rep.Rows)
				keyValue(w, "missing cells", fmt.Sprintf("%d (%s%%)", rep.MissingCells, num(rep.MissingPercentage)))
				keyValue(w, "duplicates", fmt.Sprintf("%d (%s%%)", rep.Duplicates, num(rep.DuplicatePercentage)))
				rows := make([][]string, len(rep.Fields))
				for i, f := range rep.Fields {
					rows[i] = []string{f, strconv.Itoa(rep.MissingByField[f])}
				}
				renderTable(w, []string{"field", "missing"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "tracked fields (default: all)")
	return cmd
}

func newTimeSeriesCmd(a *app) *cobra.Command {
	var dateField, valueField, reducerName, bucket string
	cmd := &cobra.Command{
		Use:   "timeseries",
		Short: "Bucket a value field by day, week or month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, err := a.series(dateField, valueField, reducerName, bucket)
			if err != nil {
				return err
			}
			buckets := series.Collect()
			return a.emit(cmd.OutOrStdout(), buckets, func(w io.Writer) error {
				opts := series.Options()
				heading(w, fmt.Sprintf("%s of %s per %s", opts.Reducer, opts.ValueField, opts.Granularity))
				rows := make([][]string, 0, len(buckets))
				for b := range series.All() {
					rows = append(rows, []string{b.Label, num(b.Value), strconv.Itoa(b.Count)})
				}
				renderTable(w, []string{"bucket", opts.Reducer.String(), "records"}, rows)
				return nil
			})
		},
	}
	addSeriesFlags(cmd, &dateField, &valueField, &reducerName, &bucket)
	return cmd
}

func addSeriesFlags(cmd *cobra.Command, dateField, valueField, reducerName, bucket *string) {
	cmd.Flags().StringVar(dateField, "date", "", "date field (default: date_field)")
	cmd.Flags().StringVar(valueField, "value", "", "value field (default: the configured target)")
	cmd.Flags().StringVar(reducerName, "reducer", "sum", "sum, mean or count")
	cmd.Flags().StringVar(bucket, "bucket", "", "day, week or month (default: time_bucket)")
}

func (a *app) series(dateField, valueField, reducerName, bucket string) (stats.Series, error) {
	reducer, err := stats.ParseReducer(reducerName)
	if err != nil {
		return stats.Series{}, err
	}
	if bucket == "" {
		bucket = a.cfg.TimeBucket
	}
	g, err := stats.ParseGranularity(bucket)
	if err != nil {
		return stats.Series{}, err
	}
	if dateField == "" {
		dateField = a.cfg.DateField
	}
	if valueField == "" && reducer != stats.Count {
		valueField = a.cfg.Target
	}
	records, err := a.data()
	if err != nil {
		return stats.Series{}, err
	}
	return stats.BucketTimeSeries(records, stats.BucketOptions{
		DateField:   dateField,
		ValueField:  valueField,
		Reducer:     reducer,
		Granularity: g,
	})
}
