// Package log defines standard attribute keys for classification operations.
//
// Keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so log lines from the classifier, the dataset loader and
// the CLI can be filtered with the same queries.
package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "KNeighborsClassifier", "StandardScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance
	// or CLI run.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "classify", "score", "build"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "knn", "dataset", "native"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey is the number of reference points (rows).
	SamplesKey = "data.samples"

	// FeaturesKey is the dimensionality of the feature vectors.
	FeaturesKey = "data.features"

	// QueriesKey is the number of query points in a batch.
	QueriesKey = "data.queries"

	// DatasetKey is the path or name of the dataset.
	DatasetKey = "data.source"

	// BatchSizeKey is the number of queries handled by one worker chunk.
	BatchSizeKey = "data.batch_size"
)

// Classifier configuration
const (
	// KKey records the number of neighbors.
	KKey = "knn.k"

	// BackendKey records the distance backend name.
	BackendKey = "knn.backend"

	// WorkersKey records the number of parallel workers.
	WorkersKey = "knn.workers"

	// ISAKey records the instruction set chosen for the native kernel.
	ISAKey = "native.isa"

	// LanesKey records the native kernel's accumulator width.
	LanesKey = "native.lanes"
)

// Performance and evaluation
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationClassify = "classify"
	OperationScore    = "score"
	OperationBuild    = "build"
	OperationLoad     = "load"

	PhaseTraining  = "training"
	PhaseTesting   = "testing"
	PhaseInference = "inference"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidArgument   = "INVALID_ARGUMENT"
	ErrorTypeMismatch      = "TYPE_MISMATCH"
	ErrorInsufficientData  = "INSUFFICIENT_DATA"
)
