// Package insight provides the statistics and small machine-learning
// routines behind an analytics dashboard.
//
// insight works on in-memory collections of records (hundreds to a few
// thousand rows). It summarizes numeric fields, groups and correlates them,
// flags IQR outliers, scores data quality and buckets values over time. It
// also trains three small models (linear regression, a regression tree and
// k-means) and evaluates them with regression metrics, k-fold
// cross-validation and permutation feature importance.
//
// # Quick Start
//
//	records := dataset.Sample(200, 42)
//
//	summary := stats.Summarize(records, dataset.FieldRevenue)
//	fmt.Printf("mean %.2f, std %.2f\n", summary.Mean, summary.StdDev)
//
//	proj, err := dataset.Matrix(records, []string{"customers", "satisfaction"}, "revenue")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(proj.X, proj.Y); err != nil {
//	    log.Fatal(err)
//	}
//	cv, err := evaluation.CrossValidate(func() model.Model {
//	    return linear.NewLinearRegression()
//	}, proj.X, proj.Y, 5)
//
// # Packages
//
//   - dataset: records, typed values, CSV/JSON loading, numeric projections, sample data
//   - stats: summaries, group-by, correlation, outliers, data quality, time series
//   - linear, tree, cluster: the three predictors
//   - preprocessing: StandardScaler
//   - metrics: MSE, RMSE, MAE, R²
//   - evaluation: k-fold, cross-validation, permutation importance
//   - estimators: construct a predictor from a model kind
//   - dashboard: memoized overview, train action, narrative insights
//   - chart: PNG/SVG charts rendered with gonum/plot
//   - core/model, core/parallel: shared interfaces, fitted state, chunked workers
//   - pkg/errors, pkg/log: typed errors with stack traces, structured logging
//
// The statistics engine and the model toolkit are synchronous and never log.
// Only the dashboard service and the insight CLI (cmd/insight) write logs.
//
// # Performance
//
// Design matrices with more than 1000 rows are built in parallel chunks;
// everything else runs on the calling goroutine.
package insight
