package knn

import (
	"io"
	"math"

	"github.com/YuminosukeSato/goknn/core/model"
	"github.com/YuminosukeSato/goknn/metrics"
	"github.com/YuminosukeSato/goknn/neighbors"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"gonum.org/v1/gonum/mat"
)

var _ model.Classifier = (*Classifier)(nil)

// Fit stores X and y as the reference set. kNN には学習フェーズがないため、
// 行列を行ごとにコピーして保持するだけ。y must be an n×1 column of
// integral class labels.
func (c *Classifier) Fit(X, y mat.Matrix) error {
	r, cols := X.Dims()
	ry, _ := y.Dims()

	if r == 0 || cols == 0 {
		return errors.NewModelError("KNeighborsClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", r, ry, 0)
	}
	labels, err := labelColumn("KNeighborsClassifier.Fit", y)
	if err != nil {
		return err
	}

	c.ref = neighbors.ReferenceSet{Points: rows(X), Labels: labels}
	c.nFeatures = cols
	c.SetFitted()

	c.logger.Debug("reference set stored",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, cols,
	)
	return nil
}

// Reference returns the fitted reference set.
func (c *Classifier) Reference() (neighbors.ReferenceSet, error) {
	if err := c.CheckFitted(modelName, "Reference"); err != nil {
		return neighbors.ReferenceSet{}, err
	}
	return c.ref, nil
}

// Predict classifies every row of X against the fitted reference set and
// returns the labels as an n×1 matrix.
func (c *Classifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	labels, err := c.predictLabels("Predict", X)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(len(labels), 1, nil)
	for i, l := range labels {
		out.Set(i, 0, float64(l))
	}
	return out, nil
}

// PredictLabels is Predict for row slices.
func (c *Classifier) PredictLabels(queries [][]float64) ([]int, error) {
	if err := c.CheckFitted(modelName, "PredictLabels"); err != nil {
		return nil, err
	}
	return c.Classify(c.ref, queries)
}

func (c *Classifier) predictLabels(method string, X mat.Matrix) ([]int, error) {
	if err := c.CheckFitted(modelName, method); err != nil {
		return nil, err
	}
	r, cols := X.Dims()
	if r == 0 {
		return nil, errors.NewValueError("KNeighborsClassifier."+method, "no samples to predict")
	}
	if cols != c.nFeatures {
		return nil, errors.NewDimensionError("KNeighborsClassifier."+method, c.nFeatures, cols, 1)
	}
	return c.Classify(c.ref, rows(X))
}

// Score returns the accuracy of Predict(X) against y.
func (c *Classifier) Score(X, y mat.Matrix) (float64, error) {
	truth, err := labelColumn("KNeighborsClassifier.Score", y)
	if err != nil {
		return 0, err
	}
	pred, err := c.predictLabels("Score", X)
	if err != nil {
		return 0, err
	}

	acc, err := metrics.Accuracy(truth, pred)
	if err != nil {
		return 0, err
	}
	c.logger.Debug("score computed",
		log.OperationKey, log.OperationScore,
		log.AccuracyKey, acc,
		log.PredsKey, len(pred),
	)
	return acc, nil
}

// GetParams returns the hyperparameters.
func (c *Classifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"k":       c.k,
		"backend": c.backend.String(),
		"n_jobs":  c.nJobs,
	}
}

// WithParams returns a copy of c with the given hyperparameters replaced.
// Values are validated the same way as NewFromParams. The receiver is never
// modified; the copy shares the fitted reference set, kernel and logger.
func (c *Classifier) WithParams(params map[string]interface{}) (*Classifier, error) {
	k, backend, nJobs := c.k, c.backend, c.nJobs

	for key, raw := range params {
		var err error
		switch key {
		case "k":
			k, err = IntParam("k", raw)
		case "backend":
			backend, err = BackendParam(raw)
		case "n_jobs":
			nJobs, err = IntParam("n_jobs", raw)
		default:
			err = errors.NewValidationError(key, "unknown parameter", raw)
		}
		if err != nil {
			return nil, err
		}
	}

	out, err := NewWithBackend(k, backend,
		WithNJobs(nJobs),
		WithParallelThreshold(c.parallelThreshold),
		WithNativeKernel(c.kernel),
		WithLogger(c.logger),
	)
	if err != nil {
		return nil, err
	}
	if c.IsFitted() {
		// 参照集合は Fit でコピー済みで、以後書き換えられないので共有してよい
		out.ref = c.ref
		out.nFeatures = c.nFeatures
		out.SetFitted()
	}
	return out, nil
}

// snapshot is the persisted form of a Classifier.
type snapshot struct {
	K         int
	Backend   string
	NJobs     int
	Fitted    bool
	NFeatures int
	Points    [][]float64
	Labels    []int
}

// Save writes the hyperparameters and, if fitted, the reference set to w.
func (c *Classifier) Save(w io.Writer) error {
	s := snapshot{
		K:         c.k,
		Backend:   c.backend.String(),
		NJobs:     c.nJobs,
		Fitted:    c.IsFitted(),
		NFeatures: c.nFeatures,
		Points:    c.ref.Points,
		Labels:    c.ref.Labels,
	}
	return model.SaveModelToWriter(&s, w)
}

// Load reads a Classifier written by Save. opts are applied after the saved
// parameters, so WithNativeKernel or WithLogger can be supplied here.
func Load(r io.Reader, opts ...Option) (*Classifier, error) {
	var s snapshot
	if err := model.LoadModelFromReader(&s, r); err != nil {
		return nil, err
	}

	c, err := New(s.K, s.Backend, append([]Option{WithNJobs(s.NJobs)}, opts...)...)
	if err != nil {
		return nil, errors.NewModelError("knn.Load", "invalid saved parameters", err)
	}
	if s.Fitted {
		c.ref = neighbors.ReferenceSet{Points: s.Points, Labels: s.Labels}
		if err := c.ref.Validate(); err != nil {
			return nil, errors.NewModelError("knn.Load", "corrupt reference set", err)
		}
		c.nFeatures = s.NFeatures
		c.SetFitted()
	}
	c.logger.Debug("classifier loaded",
		log.OperationKey, log.OperationLoad,
		log.KKey, c.k,
		log.BackendKey, c.backend.String(),
		log.SamplesKey, c.ref.Len(),
	)
	return c, nil
}

// labelColumn reads y as an n×1 column of integral class labels.
func labelColumn(op string, y mat.Matrix) ([]int, error) {
	ry, cy := y.Dims()
	if cy != 1 {
		return nil, errors.NewValueError(op, "y must be a column vector")
	}
	labels := make([]int, ry)
	for i := range labels {
		v := y.At(i, 0)
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, errors.NewTypeMismatchError("y", "integral class labels", v)
		}
		labels[i] = int(v)
	}
	return labels, nil
}

// rows copies the rows of X into a slice of vectors.
func rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	if d, ok := X.(mat.RawRowViewer); ok {
		for i := range out {
			out[i] = append([]float64(nil), d.RawRowView(i)...)
		}
		return out
	}
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = X.At(i, j)
		}
	}
	return out
}
