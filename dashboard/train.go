package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/insight/cluster"
	"github.com/YuminosukeSato/insight/core/model"
	"github.com/YuminosukeSato/insight/dataset"
	"github.com/YuminosukeSato/insight/estimators"
	"github.com/YuminosukeSato/insight/evaluation"
	"github.com/YuminosukeSato/insight/linear"
	"github.com/YuminosukeSato/insight/metrics"
	"github.com/YuminosukeSato/insight/pkg/errors"
	"github.com/YuminosukeSato/insight/pkg/log"
	"github.com/YuminosukeSato/insight/preprocessing"
	"github.com/YuminosukeSato/insight/tree"
)

// TrainRequest selects the model and the columns to train on. Empty Features
// and Target fall back to the dashboard settings; Params overrides the
// settings' hyperparameters when set.
type TrainRequest struct {
	Kind     model.Kind         `json:"kind"`
	Features []string           `json:"features,omitempty"`
	Target   string             `json:"target,omitempty"`
	Params   *estimators.Params `json:"params,omitempty"`
}

// ClusterResult describes a fitted k-means model. Centroids are reported in
// the original feature units; Inertia is measured on standardized features.
type ClusterResult struct {
	K         int         `json:"k"`
	Sizes     []int       `json:"sizes"`
	Centroids [][]float64 `json:"centroids"`
	Labels    []int       `json:"labels"`
	Inertia   float64     `json:"inertia"`
	NIter     int         `json:"nIter"`
	Converged bool        `json:"converged"`
}

// TrainResult is the outcome of one Train call.
type TrainResult struct {
	RunID    string     `json:"runId"`
	Kind     model.Kind `json:"kind"`
	Features []string   `json:"features"`
	Target   string     `json:"target,omitempty"`
	Rows     int        `json:"rows"`
	Dropped  int        `json:"dropped"`
	// SourceRows maps each training row back to the dashboard records.
	SourceRows []int `json:"-"`

	// Regressors only.
	Metrics      *metrics.Regression     `json:"metrics,omitempty"`
	CV           *evaluation.CVResult    `json:"cv,omitempty"`
	Importances  []evaluation.Importance `json:"importances,omitempty"`
	Coefficients []float64               `json:"coefficients,omitempty"`
	Intercept    float64                 `json:"intercept,omitempty"`
	TreeDepth    int                     `json:"treeDepth,omitempty"`
	TreeLeaves   int                     `json:"treeLeaves,omitempty"`

	// KMeans only.
	Clusters *ClusterResult `json:"clusters,omitempty"`

	// Warnings lists optional steps that were skipped or failed.
	Warnings []string      `json:"warnings,omitempty"`
	Duration time.Duration `json:"duration"`
	// Model is the fitted predictor.
	Model model.Model `json:"-"`
}

// Train fits the requested model on the current records. Supervised kinds are
// fitted on the listwise-complete projection, evaluated in-sample, cross-validated
// and scored with permutation importance. KMeans standardizes the features
// first. The context is checked between steps; a panic inside the toolkit is
// returned as an error.
func (d *Dashboard) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	runID := uuid.NewString()
	logger := d.logger.With(
		log.RunIDKey, runID,
		log.ModelNameKey, req.Kind.String(),
	)

	var res *TrainResult
	start := time.Now()
	err := errors.SafeExecute("dashboard.Train", func() error {
		var err error
		res, err = d.train(ctx, logger, req)
		return err
	})
	if err != nil {
		logger.Error("Training failed", err,
			log.OperationKey, log.OperationFit,
			log.ErrorCodeKey, log.ErrorCode(err),
		)
		return nil, err
	}
	res.RunID = runID
	res.Duration = time.Since(start)
	logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, res.Rows,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}

func (d *Dashboard) train(ctx context.Context, logger log.Logger, req TrainRequest) (*TrainResult, error) {
	params := d.settings.Params
	if req.Params != nil {
		params = *req.Params
	}
	if err := params.Validate(req.Kind); err != nil {
		return nil, err
	}
	features := req.Features
	if len(features) == 0 {
		features = d.settings.Features
	}

	records := d.Records()
	if req.Kind.Supervised() {
		target := req.Target
		if target == "" {
			target = d.settings.Target
		}
		proj, err := dataset.Matrix(records, features, target)
		if err != nil {
			return nil, err
		}
		return d.trainRegressor(ctx, logger, req.Kind, params, proj)
	}

	proj, err := dataset.MatrixX(records, features)
	if err != nil {
		return nil, err
	}
	return d.trainKMeans(ctx, logger, params, proj)
}

func newResult(kind model.Kind, proj *dataset.Projection) *TrainResult {
	return &TrainResult{
		Kind:       kind,
		Features:   proj.Features,
		Target:     proj.Target,
		Rows:       proj.Len(),
		Dropped:    proj.Dropped,
		SourceRows: proj.Rows,
	}
}

func (d *Dashboard) trainRegressor(ctx context.Context, logger log.Logger, kind model.Kind, params estimators.Params, proj *dataset.Projection) (*TrainResult, error) {
	res := newResult(kind, proj)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, res.Rows,
		log.FeaturesKey, len(res.Features),
		log.DroppedRowsKey, res.Dropped,
		log.HyperParamsKey, params,
	)

	m, err := estimators.New(kind, params)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(proj.X, proj.Y); err != nil {
		return nil, err
	}
	res.Model = m
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training cancelled after fit")
	}

	pred, err := m.Predict(proj.X)
	if err != nil {
		return nil, err
	}
	reg, err := metrics.EvaluateRegression(proj.Y, pred)
	if err != nil {
		return nil, err
	}
	res.Metrics = &reg
	logger.Info("Model evaluated",
		log.OperationKey, log.OperationScore,
		log.R2ScoreKey, reg.R2,
		log.RMSEKey, reg.RMSE,
		log.MAEKey, reg.MAE,
	)

	switch fitted := m.(type) {
	case *linear.LinearRegression:
		res.Coefficients = fitted.Coefficients()
		res.Intercept = fitted.Intercept()
	case *tree.DecisionTreeRegressor:
		res.TreeDepth = fitted.Depth()
		res.TreeLeaves = fitted.NLeaves()
	}

	folds := min(d.settings.Folds, res.Rows)
	if folds < 2 {
		res.Warnings = append(res.Warnings, "cross-validation skipped: fewer than 2 folds available")
	} else {
		factory, err := estimators.Factory(kind, params)
		if err != nil {
			return nil, err
		}
		var opts []evaluation.CVOption
		if d.settings.Shuffle {
			opts = append(opts, evaluation.WithShuffle(d.settings.Seed))
		}
		cv, err := evaluation.CrossValidateContext(ctx, factory, proj.X, proj.Y, folds, opts...)
		switch {
		case ctx.Err() != nil:
			return nil, errors.Wrap(ctx.Err(), "training cancelled during cross validation")
		case err != nil:
			// a single rank-deficient fold should not hide the fitted model
			logger.Warn("Cross validation failed",
				log.OperationKey, log.OperationCrossValidate,
				log.PhaseKey, log.PhaseValidation,
				log.ErrorCodeKey, log.ErrorCode(err),
				"error", err,
			)
			res.Warnings = append(res.Warnings, "cross-validation failed: "+err.Error())
		default:
			res.CV = cv
			logger.Info("Cross validation finished",
				log.OperationKey, log.OperationCrossValidate,
				log.PhaseKey, log.PhaseValidation,
				log.FoldsKey, folds,
				log.CVMeanKey, cv.Mean,
			)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training cancelled before importance")
	}
	imp, err := evaluation.FeatureImportance(m, proj.X, proj.Y, proj.Features, evaluation.WithSeed(d.settings.Seed))
	if err != nil {
		return nil, err
	}
	res.Importances = imp
	if len(imp) > 0 {
		logger.Debug("Permutation importance computed",
			log.OperationKey, log.OperationImportance,
			log.FieldKey, imp[0].Feature,
			"importance.top", imp[0].Importance,
		)
	}
	return res, nil
}

func (d *Dashboard) trainKMeans(ctx context.Context, logger log.Logger, params estimators.Params, proj *dataset.Projection) (*TrainResult, error) {
	res := newResult(model.KindKMeans, proj)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, res.Rows,
		log.FeaturesKey, len(res.Features),
		log.DroppedRowsKey, res.Dropped,
		log.RandomSeedKey, int64(params.Seed),
		log.HyperParamsKey, params,
	)

	scaler := preprocessing.NewStandardScalerDefault()
	Z, err := scaler.FitTransform(proj.X)
	if err != nil {
		return nil, err
	}
	m, err := estimators.New(model.KindKMeans, params)
	if err != nil {
		return nil, err
	}
	if err := m.Fit(Z, nil); err != nil {
		return nil, err
	}
	res.Model = m
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training cancelled after fit")
	}

	km := m.(*cluster.KMeans)
	centroids, err := scaler.InverseTransform(km.Centroids())
	if err != nil {
		return nil, err
	}
	res.Clusters = &ClusterResult{
		K:         km.K(),
		Sizes:     km.Sizes(),
		Centroids: rowsOf(centroids),
		Labels:    km.Labels(),
		Inertia:   km.Inertia(),
		NIter:     km.NIter(),
		Converged: km.Converged(),
	}
	logger.Info("Clustering finished",
		log.IterationKey, km.NIter(),
		"cluster.sizes", km.Sizes(),
		"cluster.inertia", km.Inertia(),
	)
	return res, nil
}

func rowsOf(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		mat.Row(out[i], i, m)
	}
	return out
}
