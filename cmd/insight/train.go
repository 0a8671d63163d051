package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/dashboard"
)

func (a *app) dashboard() (*dashboard.Dashboard, error) {
	records, err := a.data()
	if err != nil {
		return nil, err
	}
	return dashboard.New(records, a.cfg.Dashboard(), a.logger), nil
}

func newOverviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Dashboard overview with narrative insights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := a.dashboard()
			if err != nil {
				return err
			}
			o, err := d.Overview()
			if err != nil {
				return err
			}
			insights := dashboard.Insights(o)
			out := struct {
				*dashboard.Overview
				Insights []string `json:"insights"`
			}{o, insights}
			return a.emit(cmd.OutOrStdout(), out, func(w io.Writer) error {
				heading(w, fmt.Sprintf("Overview of %d records (%s)", o.Rows, a.source))
				keyValue(w, "quality score", num(o.Quality.Score))
				keyValue(w, "numeric fields", len(o.Summaries))
				heading(w, "Insights")
				for _, line := range insights {
					fmt.Fprintln(w, mutedStyle.Render("•"), line)
				}
				return nil
			})
		},
	}
}

func newTrainCmd(a *app) *cobra.Command {
	var features []string
	var target string
	cmd := &cobra.Command{
		Use:       "train <linear|tree|kmeans>",
		Short:     "Train a model on the dataset and report its evaluation",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"linear", "tree", "kmeans"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseKind(args[0])
			if err != nil {
				return err
			}
			d, err := a.dashboard()
			if err != nil {
				return err
			}
			res, err := d.Train(cmd.Context(), dashboard.TrainRequest{Kind: kind, Features: features, Target: target})
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), res, func(w io.Writer) error {
				printTrainResult(w, res)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&features, "features", nil, "feature fields (default: features)")
	cmd.Flags().StringVar(&target, "target", "", "target field for regressors (default: target)")
	return cmd
}

func printTrainResult(w io.Writer, res *dashboard.TrainResult) {
	heading(w, fmt.Sprintf("%s model", res.Kind))
	keyValue(w, "run", res.RunID)
	keyValue(w, "features", strings.Join(res.Features, ", "))
	if res.Target != "" {
		keyValue(w, "target", res.Target)
	}
	keyValue(w, "rows", fmt.Sprintf("%d (%d dropped)", res.Rows, res.Dropped))

	if m := res.Metrics; m != nil {
		heading(w, "Training fit")
		renderTable(w, []string{"R²", "RMSE", "MAE", "MSE"}, [][]string{{num(m.R2), num(m.RMSE), num(m.MAE), num(m.MSE)}})
	}
	if res.Coefficients != nil {
		rows := make([][]string, 0, len(res.Coefficients)+1)
		for i, c := range res.Coefficients {
			rows = append(rows, []string{res.Features[i], num(c)})
		}
		rows = append(rows, []string{"(intercept)", num(res.Intercept)})
		renderTable(w, []string{"term", "coefficient"}, rows)
	}
	if res.TreeLeaves > 0 {
		keyValue(w, "tree", fmt.Sprintf("depth %d, %d leaves", res.TreeDepth, res.TreeLeaves))
	}
	if cv := res.CV; cv != nil {
		heading(w, fmt.Sprintf("%d-fold cross-validation", len(cv.Scores)))
		scores := make([]string, len(cv.Scores))
		for i, s := range cv.Scores {
			scores[i] = num(s)
		}
		keyValue(w, "R² per fold", strings.Join(scores, "  "))
		keyValue(w, "mean ± std", num(cv.Mean)+" ± "+num(cv.StdDev))
	}
	if len(res.Importances) > 0 {
		heading(w, "Permutation importance")
		rows := make([][]string, len(res.Importances))
		for i, imp := range res.Importances {
			rows[i] = []string{imp.Feature, num(imp.Importance)}
		}
		renderTable(w, []string{"feature", "R² drop"}, rows)
	}
	if c := res.Clusters; c != nil {
		heading(w, fmt.Sprintf("%d clusters", c.K))
		keyValue(w, "inertia", num(c.Inertia))
		keyValue(w, "iterations", fmt.Sprintf("%d (converged: %t)", c.NIter, c.Converged))
		headers := append([]string{"cluster", "size"}, res.Features...)
		rows := make([][]string, len(c.Centroids))
		for i, centroid := range c.Centroids {
			rows[i] = []string{strconv.Itoa(i), strconv.Itoa(c.Sizes[i])}
			for _, v := range centroid {
				rows[i] = append(rows[i], num(v))
			}
		}
		renderTable(w, headers, rows)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintln(w, errorStyle.Render("! "+warning))
	}
}
