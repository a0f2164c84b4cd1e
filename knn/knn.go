// Package knn は k 近傍法による分類器を提供する。
//
// Classifier は k と距離バックエンドを検証して保持し、参照集合とクエリの
// バッチを受け取ってクエリごとに多数決ラベルを返す。出力の i 番目は常に
// i 番目のクエリに対応し、並列実行時も順序は変わらない。
//
//	clf, err := knn.New(5, "vectorized", knn.WithNJobs(-1))
//	if err != nil {
//	    return err
//	}
//	labels, err := clf.Classify(ref, queries)
package knn

import (
	"context"
	"time"

	"github.com/YuminosukeSato/goknn/core/model"
	"github.com/YuminosukeSato/goknn/core/parallel"
	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/native"
	"github.com/YuminosukeSato/goknn/neighbors"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"github.com/YuminosukeSato/goknn/vote"
)

const modelName = "KNeighborsClassifier"

// Classifier is a configured k-nearest-neighbor classifier. Construction
// validates k and the backend, so a Classifier value is always usable.
//
// k, backend and n_jobs never change after construction; WithParams returns
// a new Classifier instead. Classify is safe for concurrent use, Fit is not.
type Classifier struct {
	model.BaseEstimator

	k       int
	backend distance.Backend
	dist    distance.Distancer

	nJobs             int
	parallelThreshold int
	kernel            *native.Kernel
	logger            log.Logger

	// Fit で保持する参照集合
	ref       neighbors.ReferenceSet
	nFeatures int
}

// New validates k and backend and returns a Classifier. backend accepts
// "reference", "vectorized" or "compiled-native" (and their aliases).
func New(k int, backend string, opts ...Option) (*Classifier, error) {
	b, err := distance.ParseBackend(backend)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(k, b, opts...)
}

// NewWithBackend is New with an already parsed backend.
func NewWithBackend(k int, backend distance.Backend, opts ...Option) (*Classifier, error) {
	if err := ValidateK(k); err != nil {
		return nil, err
	}
	if !backend.Valid() {
		return nil, errors.NewValidationError("backend", "unknown backend", int(backend))
	}

	c := &Classifier{
		k:                 k,
		backend:           backend,
		nJobs:             1,
		parallelThreshold: DefaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("knn")
	}

	dist, err := distance.For(backend, c.kernel)
	if err != nil {
		return nil, err
	}
	c.dist = dist
	return c, nil
}

// NewFromParams builds a Classifier from a dynamically typed parameter map
// such as one decoded from YAML or JSON. Recognized keys are "k" (required),
// "backend" (default "reference") and "n_jobs".
//
// A non-integral k such as 3.5 or "3" fails with errors.ErrTypeMismatch, a
// non-positive k or an unknown backend with errors.ErrInvalidArgument.
func NewFromParams(params map[string]interface{}, opts ...Option) (*Classifier, error) {
	rawK, ok := params["k"]
	if !ok {
		return nil, errors.NewValidationError("k", "is required", nil)
	}
	k, err := IntParam("k", rawK)
	if err != nil {
		return nil, err
	}

	backend := distance.Reference
	if raw, ok := params["backend"]; ok {
		if backend, err = BackendParam(raw); err != nil {
			return nil, err
		}
	}

	if raw, ok := params["n_jobs"]; ok {
		n, err := IntParam("n_jobs", raw)
		if err != nil {
			return nil, err
		}
		opts = append([]Option{WithNJobs(n)}, opts...)
	}

	return NewWithBackend(k, backend, opts...)
}

// K returns the neighbor count.
func (c *Classifier) K() int { return c.k }

// Backend returns the distance backend.
func (c *Classifier) Backend() distance.Backend { return c.backend }

// NJobs returns the configured worker count.
func (c *Classifier) NJobs() int { return c.nJobs }

// Classify predicts one label per query against ref. The i-th label belongs
// to queries[i]. ref and queries are only read.
//
// Errors from ranking and voting are returned as is: a query whose length
// differs from the reference points yields errors.ErrDimensionMismatch, and
// k larger than ref yields errors.ErrInsufficientData. With several workers
// the first failure stops the batch and no partial result is returned.
func (c *Classifier) Classify(ref neighbors.ReferenceSet, queries [][]float64) ([]int, error) {
	return c.ClassifyContext(context.Background(), ref, queries)
}

// ClassifyContext is Classify with cancellation.
func (c *Classifier) ClassifyContext(ctx context.Context, ref neighbors.ReferenceSet, queries [][]float64) ([]int, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if c.k > ref.Len() {
		return nil, errors.NewInsufficientDataError("knn.Classify", c.k, ref.Len())
	}

	start := time.Now()
	workers := parallel.Workers(c.nJobs)
	out := make([]int, len(queries))

	err := parallel.ParallelizeWithThreshold(ctx, len(queries), c.parallelThreshold, workers,
		func(ctx context.Context, lo, hi int) (err error) {
			defer errors.Recover(&err, "knn.Classify")
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				labels, err := neighbors.KNearest(ref, queries[i], c.k, c.dist)
				if err != nil {
					return err
				}
				if out[i], err = vote.Majority(labels); err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		c.logger.Debug("classification failed", err,
			log.OperationKey, log.OperationClassify,
			log.QueriesKey, len(queries),
		)
		return nil, err
	}

	c.logger.Debug("classification finished",
		log.OperationKey, log.OperationClassify,
		log.KKey, c.k,
		log.BackendKey, c.backend.String(),
		log.WorkersKey, workers,
		log.QueriesKey, len(queries),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}
