// Package main provides the insight CLI: dashboard statistics, model
// training and charts over a CSV/JSON dataset or the generated sample.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/internal/config"
	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ Error:"), err)
		stop()
		os.Exit(1)
	}
}

// app is the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	jsonOut bool

	cfg     *config.Config
	logger  log.Logger
	records dataset.Collection
	source  string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{logger: log.Nop()}
	defaults := config.Default()

	rootCmd := &cobra.Command{
		Use:           "insight",
		Short:         "Dashboard statistics and small models over tabular records",
		Long:          "insight summarizes, groups, correlates and scores the quality of a dataset, trains linear, tree and k-means models on it and renders charts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./insight.yaml or ~/.insight/insight.yaml)")
	pf.String("dataset", defaults.Dataset, "CSV or JSON dataset file (default: generated sample)")
	pf.Int("sample", defaults.SampleSize, "number of generated sample records when no dataset is given")
	pf.Uint64("seed", defaults.Seed, "seed for the sample generator and the models")
	pf.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", defaults.LogFormat, "log format: console or json")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newSummaryCmd(a),
		newGroupCmd(a),
		newCorrelateCmd(a),
		newOutliersCmd(a),
		newQualityCmd(a),
		newTimeSeriesCmd(a),
		newOverviewCmd(a),
		newTrainCmd(a),
		newChartCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// setup loads and validates the configuration and installs the logger.
// Commands annotated with skipConfig only get the file path.
func (a *app) setup(cmd *cobra.Command, errOut io.Writer) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}
	c, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	a.cfg = c

	logger, err := log.Setup(c.LogLevel, c.LogFormat, errOut)
	if err != nil {
		return err
	}
	a.logger = logger.With(log.ComponentKey, "cli")
	return nil
}

const skipConfig = "skip-config"

// data loads the dataset once per invocation.
func (a *app) data() (dataset.Collection, error) {
	if a.records != nil {
		return a.records, nil
	}
	if a.cfg.Dataset != "" {
		records, err := dataset.Load(a.cfg.Dataset)
		if err != nil {
			return nil, errors.Wrapf(err, "load dataset %s", a.cfg.Dataset)
		}
		a.records, a.source = records, a.cfg.Dataset
	} else {
		a.records, a.source = dataset.Sample(a.cfg.SampleSize, a.cfg.Seed), "sample"
	}
	a.logger.Debug("Dataset loaded", log.DatasetKey, a.source, log.SamplesKey, len(a.records))
	return a.records, nil
}
