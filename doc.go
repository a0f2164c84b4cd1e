// Package goknn is a k-nearest-neighbor classifier for numeric feature
// vectors with interchangeable distance backends.
//
// # Backends
//
// The same classification algorithm runs on three numeric strategies:
//
//   - reference: a plain accumulation loop (distance.Euclidean)
//   - vectorized: gonum array operations, one dense matrix per query
//   - compiled-native: a kernel selected for the CPU by an explicit build
//     step (package native)
//
// All backends agree to within floating point rounding, so switching between
// them only changes speed.
//
// # Quick Start
//
//	clf, err := knn.New(5, "vectorized")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ref := neighbors.ReferenceSet{
//	    Points: [][]float64{{1, 2}, {2, 3}, {8, 9}},
//	    Labels: []int{0, 0, 1},
//	}
//	labels, err := clf.Classify(ref, [][]float64{{1, 2}, {10, 11}})
//
// A scikit-learn style API (Fit, Predict, Score, GetParams, WithParams) on
// gonum matrices is available on the same Classifier.
//
// # Errors
//
// Errors carry a stack trace and are classified by sentinels in pkg/errors:
// ErrDimensionMismatch, ErrInvalidArgument, ErrTypeMismatch and
// ErrInsufficientData. Test with errors.Is:
//
//	if errors.Is(err, errors.ErrInsufficientData) {
//	    // k is larger than the reference set
//	}
//
// # Packages
//
//   - distance: backends and the Distancer interface
//   - native: CPU detection and the fixed-width native kernel
//   - neighbors: distance ranking and k-nearest selection
//   - vote: majority vote with first-seen tie breaking
//   - knn: the classifier facade
//   - dataset, preprocessing, metrics: data loading, scaling and evaluation
//   - config, store, cmd/knn: the command line tool and its run history
package goknn
