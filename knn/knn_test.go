package knn

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/native"
	"github.com/YuminosukeSato/goknn/neighbors"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/YuminosukeSato/goknn/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func smallRef() neighbors.ReferenceSet {
	return neighbors.ReferenceSet{
		Points: [][]float64{{1, 2}, {2, 3}, {8, 9}},
		Labels: []int{0, 0, 1},
	}
}

func backendNames() []string {
	return []string{"reference", "vectorized", "compiled-native"}
}

func TestClassifyAllBackends(t *testing.T) {
	for _, backend := range backendNames() {
		t.Run(backend, func(t *testing.T) {
			clf, err := New(2, backend)
			require.NoError(t, err)

			got, err := clf.Classify(smallRef(), [][]float64{{1, 2}, {2, 3}})
			require.NoError(t, err)
			assert.Equal(t, []int{0, 0}, got)

			clf, err = New(1, backend)
			require.NoError(t, err)
			got, err = clf.Classify(smallRef(), [][]float64{{10, 11}})
			require.NoError(t, err)
			assert.Equal(t, []int{1}, got)

			// k=2 では近い順に [1, 0] の同数票となり、先に現れた 1 が勝つ
			clf, err = New(2, backend)
			require.NoError(t, err)
			got, err = clf.Classify(smallRef(), [][]float64{{10, 11}})
			require.NoError(t, err)
			assert.Equal(t, []int{1}, got)
		})
	}
}

func TestClassifyEmptyBatch(t *testing.T) {
	clf, err := New(2, "reference")
	require.NoError(t, err)

	got, err := clf.Classify(smallRef(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClassifyTieGoesToNearest(t *testing.T) {
	// 距離順で最初に現れたラベルが同数票で勝つ
	ref := neighbors.ReferenceSet{
		Points: [][]float64{{5}, {1}, {6}, {2}},
		Labels: []int{7, 3, 7, 3},
	}
	clf, err := New(4, "reference")
	require.NoError(t, err)

	got, err := clf.Classify(ref, [][]float64{{0}, {10}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, got)
}

func TestClassifyInsufficientData(t *testing.T) {
	for _, backend := range backendNames() {
		for _, k := range []int{4, 5, 100} {
			clf, err := New(k, backend)
			require.NoError(t, err)

			_, err = clf.Classify(smallRef(), [][]float64{{1, 2}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInsufficientData), "backend %s k=%d", backend, k)

			var ide *errors.InsufficientDataError
			require.True(t, errors.As(err, &ide))
			assert.Equal(t, k, ide.Required)
			assert.Equal(t, 3, ide.Available)
		}
	}
}

func TestClassifyKEqualsReferenceSize(t *testing.T) {
	clf, err := New(3, "vectorized")
	require.NoError(t, err)

	got, err := clf.Classify(smallRef(), [][]float64{{9, 9}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestClassifyDimensionMismatch(t *testing.T) {
	for _, backend := range backendNames() {
		clf, err := New(1, backend)
		require.NoError(t, err)

		got, err := clf.Classify(smallRef(), [][]float64{{1, 2}, {1, 2, 3}})
		require.Error(t, err)
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, errors.ErrDimensionMismatch), backend)
	}
}

func TestClassifyMismatchedLabels(t *testing.T) {
	clf, err := New(1, "reference")
	require.NoError(t, err)

	ref := neighbors.ReferenceSet{Points: [][]float64{{1}, {2}}, Labels: []int{0}}
	_, err = clf.Classify(ref, [][]float64{{1}})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestNewValidatesK(t *testing.T) {
	for _, k := range []int{0, -1, -100} {
		_, err := New(k, "reference")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "k=%d", k)
	}
}

func TestNewValidatesBackend(t *testing.T) {
	for _, name := range []string{"gpu", "", "referenc"} {
		_, err := New(3, name)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument), name)
	}

	_, err := NewWithBackend(3, distance.Backend(42))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestNewAcceptsAliases(t *testing.T) {
	tests := map[string]distance.Backend{
		"plain":  distance.Reference,
		"numpy":  distance.Vectorized,
		"numba":  distance.CompiledNative,
		"native": distance.CompiledNative,
	}
	for alias, want := range tests {
		clf, err := New(1, alias)
		require.NoError(t, err)
		assert.Equal(t, want, clf.Backend())
	}
}

func TestNewFromParams(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]interface{}
		wantK   int
		wantErr error
	}{
		{name: "int", params: map[string]interface{}{"k": 3}, wantK: 3},
		{name: "int64", params: map[string]interface{}{"k": int64(2), "backend": "vectorized"}, wantK: 2},
		{name: "integral float", params: map[string]interface{}{"k": 3.0}, wantK: 3},
		{name: "fractional float", params: map[string]interface{}{"k": 3.5}, wantErr: errors.ErrTypeMismatch},
		{name: "string", params: map[string]interface{}{"k": "3"}, wantErr: errors.ErrTypeMismatch},
		{name: "bool", params: map[string]interface{}{"k": true}, wantErr: errors.ErrTypeMismatch},
		{name: "nil", params: map[string]interface{}{"k": nil}, wantErr: errors.ErrTypeMismatch},
		{name: "zero", params: map[string]interface{}{"k": 0}, wantErr: errors.ErrInvalidArgument},
		{name: "negative", params: map[string]interface{}{"k": -1}, wantErr: errors.ErrInvalidArgument},
		{name: "missing", params: map[string]interface{}{}, wantErr: errors.ErrInvalidArgument},
		{name: "unknown backend", params: map[string]interface{}{"k": 1, "backend": "gpu"}, wantErr: errors.ErrInvalidArgument},
		{name: "backend not a string", params: map[string]interface{}{"k": 1, "backend": 2}, wantErr: errors.ErrTypeMismatch},
		{name: "n_jobs float", params: map[string]interface{}{"k": 1, "n_jobs": 1.5}, wantErr: errors.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clf, err := NewFromParams(tt.params)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantK, clf.K())
		})
	}
}

func TestClassifyIsDeterministicAndReadOnly(t *testing.T) {
	ref := smallRef()
	queries := [][]float64{{1, 2}, {5, 5}, {9, 9}}

	clf, err := New(2, "compiled-native")
	require.NoError(t, err)

	first, err := clf.Classify(ref, queries)
	require.NoError(t, err)
	second, err := clf.Classify(ref, queries)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, smallRef(), ref)
	assert.Equal(t, [][]float64{{1, 2}, {5, 5}, {9, 9}}, queries)
}

func randomProblem(rng *rand.Rand, nRef, nQuery, dim int) (neighbors.ReferenceSet, [][]float64) {
	ref := neighbors.ReferenceSet{
		Points: make([][]float64, nRef),
		Labels: make([]int, nRef),
	}
	for i := range ref.Points {
		ref.Points[i] = make([]float64, dim)
		for j := range ref.Points[i] {
			ref.Points[i][j] = rng.NormFloat64()
		}
		ref.Labels[i] = rng.Intn(3)
	}
	queries := make([][]float64, nQuery)
	for i := range queries {
		queries[i] = make([]float64, dim)
		for j := range queries[i] {
			queries[i][j] = rng.NormFloat64()
		}
	}
	return ref, queries
}

func TestBackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ref, queries := randomProblem(rng, 200, 50, 34)

	var want []int
	for _, backend := range backendNames() {
		clf, err := New(5, backend)
		require.NoError(t, err)
		got, err := clf.Classify(ref, queries)
		require.NoError(t, err)
		if want == nil {
			want = got
			continue
		}
		assert.Equal(t, want, got, backend)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ref, queries := randomProblem(rng, 150, 500, 8)

	seq, err := New(3, "vectorized")
	require.NoError(t, err)
	want, err := seq.Classify(ref, queries)
	require.NoError(t, err)

	for _, nJobs := range []int{2, 4, 7, -1} {
		par, err := New(3, "vectorized", WithNJobs(nJobs), WithParallelThreshold(0))
		require.NoError(t, err)
		got, err := par.Classify(ref, queries)
		require.NoError(t, err)
		assert.Equal(t, want, got, "n_jobs=%d", nJobs)
	}
}

func TestParallelFirstErrorAborts(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ref, queries := randomProblem(rng, 20, 200, 4)
	queries[137] = []float64{1, 2}

	clf, err := New(3, "reference", WithNJobs(4), WithParallelThreshold(0))
	require.NoError(t, err)

	got, err := clf.Classify(ref, queries)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

type panickingDistancer struct{}

func (panickingDistancer) Distance(a, b []float64) (float64, error) { panic("boom") }
func (panickingDistancer) Backend() distance.Backend              { return distance.Reference }

func TestClassifyRecoversPanics(t *testing.T) {
	clf, err := New(1, "reference")
	require.NoError(t, err)
	clf.dist = panickingDistancer{}

	_, err = clf.Classify(smallRef(), [][]float64{{1, 2}})
	require.Error(t, err)

	var pe *errors.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "knn.Classify", pe.Operation)
}

func TestWithNativeKernel(t *testing.T) {
	k, err := native.Build(native.WithISA(native.Generic))
	require.NoError(t, err)

	clf, err := New(2, "compiled-native", WithNativeKernel(k))
	require.NoError(t, err)

	got, err := clf.Classify(smallRef(), [][]float64{{1, 2}, {8, 8}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)
}

func TestClassifyLogs(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	clf, err := New(2, "reference", WithLogger(logger))
	require.NoError(t, err)

	_, err = clf.Classify(smallRef(), [][]float64{{1, 2}})
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("classification finished"))
	assert.True(t, logger.ContainsField(log.BackendKey, "reference"))
}

func TestFitPredictScore(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 2, 3, 8, 9})
	y := mat.NewDense(3, 1, []float64{0, 0, 1})

	clf, err := New(1, "vectorized")
	require.NoError(t, err)

	_, err = clf.Predict(X)
	require.Error(t, err)
	var nfe *errors.NotFittedError
	assert.True(t, errors.As(err, &nfe))

	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Predict(mat.NewDense(2, 2, []float64{1, 2, 10, 11}))
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))

	score, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	labels, err := clf.PredictLabels([][]float64{{7, 9}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, labels)

	_, err = clf.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestFitValidation(t *testing.T) {
	clf, err := New(1, "reference")
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{1, 2})

	err = clf.Fit(X, mat.NewDense(3, 1, []float64{0, 1, 0}))
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))

	err = clf.Fit(X, mat.NewDense(2, 1, []float64{0, 0.5}))
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))

	err = clf.Fit(X, mat.NewDense(2, 2, []float64{0, 0, 1, 1}))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	assert.False(t, clf.IsFitted())
}

func TestScoreValidatesLabels(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	clf, err := New(1, "reference")
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, mat.NewDense(2, 1, []float64{0, 1})))

	_, err = clf.Score(X, mat.NewDense(2, 1, []float64{0, 0.5}))
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))

	_, err = clf.Score(X, mat.NewDense(2, 2, []float64{0, 0, 1, 1}))
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = clf.Score(X, mat.NewDense(3, 1, []float64{0, 1, 1}))
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))

	score, err := clf.Score(X, mat.NewDense(2, 1, []float64{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestGetWithParams(t *testing.T) {
	clf, err := New(3, "reference")
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"k":       3,
		"backend": "reference",
		"n_jobs":  1,
	}, clf.GetParams())

	tuned, err := clf.WithParams(map[string]interface{}{"k": 5.0, "backend": "numpy", "n_jobs": 2})
	require.NoError(t, err)
	assert.Equal(t, 5, tuned.K())
	assert.Equal(t, distance.Vectorized, tuned.Backend())
	assert.Equal(t, 2, tuned.NJobs())

	// 元の分類器の設定は変わらない
	assert.Equal(t, 3, clf.K())
	assert.Equal(t, distance.Reference, clf.Backend())
	assert.Equal(t, 1, clf.NJobs())

	tests := []struct {
		name    string
		params  map[string]interface{}
		wantErr error
	}{
		{name: "fractional k", params: map[string]interface{}{"k": 3.5}, wantErr: errors.ErrTypeMismatch},
		{name: "zero k", params: map[string]interface{}{"k": 0}, wantErr: errors.ErrInvalidArgument},
		{name: "unknown key", params: map[string]interface{}{"k": 1, "weights": "distance"}, wantErr: errors.ErrInvalidArgument},
		{name: "unknown backend", params: map[string]interface{}{"backend": "gpu"}, wantErr: errors.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := clf.WithParams(tt.params)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, 3, clf.K())
		})
	}
}

func TestWithParamsKeepsReferenceSet(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 2, 3, 8, 9})
	y := mat.NewDense(3, 1, []float64{0, 0, 1})

	clf, err := New(1, "reference")
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	tuned, err := clf.WithParams(map[string]interface{}{"k": 3, "backend": "compiled-native"})
	require.NoError(t, err)
	require.True(t, tuned.IsFitted())

	labels, err := tuned.PredictLabels([][]float64{{1, 1}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, labels)
	assert.Equal(t, 1, clf.K())

	unfitted, err := New(1, "reference")
	require.NoError(t, err)
	copied, err := unfitted.WithParams(map[string]interface{}{"k": 2})
	require.NoError(t, err)
	assert.False(t, copied.IsFitted())
}

func TestIntParamBounds(t *testing.T) {
	v, err := IntParam("n_jobs", float64(-4))
	require.NoError(t, err)
	assert.Equal(t, -4, v)

	// 2^63 は float64(math.MaxInt) と等しくなるが int には収まらない
	for _, f := range []float64{math.Exp2(63), math.Exp2(64), -math.Exp2(64)} {
		_, err := IntParam("n_jobs", f)
		require.Error(t, err, "%g", f)
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument), "%g: %v", f, err)
	}

	v, err = IntParam("n_jobs", float64(math.MinInt))
	require.NoError(t, err)
	assert.Equal(t, math.MinInt, v)
}

func TestSaveLoad(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 2, 3, 8, 9})
	y := mat.NewDense(3, 1, []float64{0, 0, 1})

	clf, err := New(2, "compiled-native", WithNJobs(3))
	require.NoError(t, err)
	require.NoError(t, clf.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, clf.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, clf.GetParams(), loaded.GetParams())
	assert.True(t, loaded.IsFitted())

	got, err := loaded.PredictLabels([][]float64{{1, 2}, {2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, got)
}

func TestSaveLoadUnfitted(t *testing.T) {
	clf, err := New(4, "reference")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, clf.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.False(t, loaded.IsFitted())
	assert.Equal(t, 4, loaded.K())
}

func TestLoadGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a model")))
	require.Error(t, err)
}

func BenchmarkClassify(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	ref, queries := randomProblem(rng, 280, 70, 34)

	for _, backend := range backendNames() {
		clf, err := New(5, backend)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(backend, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := clf.Classify(ref, queries); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
