package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/chart"
	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/dashboard"
	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/stats"
)

func newChartCmd(a *app) *cobra.Command {
	var outPath, title string
	var dateField, valueField, reducerName, bucket string
	var groupField string
	var features []string

	cmd := &cobra.Command{
		Use:       "chart <timeseries|groups|clusters>",
		Short:     "Render a chart to a PNG or SVG file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"timeseries", "groups", "clusters"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := chart.FormatFromPath(outPath)
			if err != nil {
				return err
			}
			opts := chart.Options{Title: title, Format: format}

			var render func(f *os.File) error
			switch args[0] {
			case "timeseries":
				series, err := a.series(dateField, valueField, reducerName, bucket)
				if err != nil {
					return err
				}
				so := series.Options()
				opts.XLabel, opts.YLabel = so.DateField, so.Reducer.String()+" "+so.ValueField
				buckets := series.Collect()
				render = func(f *os.File) error { return chart.TimeSeries(f, buckets, opts) }

			case "groups":
				reducer, err := stats.ParseReducer(reducerName)
				if err != nil {
					return err
				}
				records, err := a.data()
				if err != nil {
					return err
				}
				if groupField == "" {
					if len(a.cfg.GroupBy) == 0 {
						return errors.NewInvalidParameterError("group", "no group field given and group_by is empty", groupField)
					}
					groupField = a.cfg.GroupBy[0]
				}
				if valueField == "" && reducer != stats.Count {
					valueField = a.cfg.Target
				}
				aggs, err := stats.GroupBy(records, groupField, valueField, reducer)
				if err != nil {
					return err
				}
				opts.XLabel, opts.YLabel = groupField, reducer.String()+" "+valueField
				render = func(f *os.File) error { return chart.Groups(f, aggs, opts) }

			case "clusters":
				d, err := a.dashboard()
				if err != nil {
					return err
				}
				res, err := d.Train(cmd.Context(), dashboard.TrainRequest{Kind: model.KindKMeans, Features: features})
				if err != nil {
					return err
				}
				if len(res.Features) < 2 {
					return errors.NewInvalidParameterError("features", "the clusters chart needs at least two features", res.Features)
				}
				X, centroids := clusterPoints(d, res)
				opts.XLabel, opts.YLabel = res.Features[0], res.Features[1]
				render = func(f *os.File) error {
					return chart.Clusters(f, X, res.Clusters.Labels, centroids, opts)
				}

			default:
				return errors.NewInvalidParameterError("chart", "must be timeseries, groups or clusters", args[0])
			}

			f, err := os.Create(outPath)
			if err != nil {
				return errors.Wrap(err, "create chart file")
			}
			if err := render(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "close chart file")
			}
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("wrote"), valueStyle.Render(outPath))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "chart.png", "output file (.png or .svg)")
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	cmd.Flags().StringVar(&groupField, "group", "", "group field for the groups chart (default: first of group_by)")
	cmd.Flags().StringSliceVar(&features, "features", nil, "two or more features for the clusters chart (default: features)")
	addSeriesFlags(cmd, &dateField, &valueField, &reducerName, &bucket)
	return cmd
}

// clusterPoints returns the training rows and centroids in original units.
func clusterPoints(d *dashboard.Dashboard, res *dashboard.TrainResult) (*mat.Dense, *mat.Dense) {
	records := d.Records()
	X := mat.NewDense(len(res.SourceRows), len(res.Features), nil)
	for i, row := range res.SourceRows {
		for j, f := range res.Features {
			v, _ := records[row].Float(f)
			X.Set(i, j, v)
		}
	}
	c := res.Clusters.Centroids
	centroids := mat.NewDense(len(c), len(res.Features), nil)
	for i := range c {
		centroids.SetRow(i, c[i])
	}
	return X, centroids
}
