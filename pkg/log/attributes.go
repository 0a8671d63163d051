// Package log defines standard attribute keys for analysis and modeling operations.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so log lines from the dashboard service and the CLI can be
// filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "LinearRegression", "DecisionTreeRegressor", "KMeans"
	ModelNameKey = "model.name"

	// RunIDKey identifies one training run triggered from the dashboard.
	RunIDKey = "run.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "score", "cross_validate", "importance", "overview"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dashboard", "stats", "cli"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// DroppedRowsKey counts rows excluded because of missing numeric values.
	DroppedRowsKey = "data.dropped_rows"

	// FieldKey names the record field an operation works on.
	FieldKey = "data.field"

	// DatasetKey names the dataset source (file path or "sample").
	DatasetKey = "data.source"
)

// Performance and Evaluation Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// MAEKey records mean absolute error.
	MAEKey = "metrics.mae"

	// CVMeanKey records the mean cross-validation score.
	CVMeanKey = "metrics.cv_mean"

	// QualityScoreKey records the data quality score in [0, 100].
	QualityScoreKey = "quality.score"

	// IterationKey records the iteration count of iterative algorithms.
	IterationKey = "training.iteration"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information for debugging.
	// Populated automatically for errors created through pkg/errors.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters and Configuration
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// FoldsKey records the number of cross-validation folds.
	FoldsKey = "config.folds"
)

// Standard attribute values.
const (
	OperationFit           = "fit"
	OperationScore         = "score"
	OperationCrossValidate = "cross_validate"
	OperationImportance    = "importance"
	OperationOverview      = "overview"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseAnalysis   = "analysis"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInsufficientData  = "INSUFFICIENT_DATA"
	ErrorInvalidParameter  = "INVALID_PARAMETER"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
