package distance

import (
	"math"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// vectorizedStrategy computes distances with gonum's BLAS-backed array
// operations instead of an explicit loop.
type vectorizedStrategy struct{}

func (vectorizedStrategy) Backend() Backend { return Vectorized }

func (vectorizedStrategy) Distance(a, b []float64) (float64, error) {
	if err := checkDims("distance.Vectorized", a, b); err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, nil // mat refuses zero-length vectors
	}

	var diff mat.VecDense
	diff.SubVec(mat.NewVecDense(len(a), a), mat.NewVecDense(len(b), b))
	return math.Sqrt(mat.Dot(&diff, &diff)), nil
}

// DistancesTo evaluates ||X - 1qᵀ|| row-wise: the reference points are
// copied into one pooled dense matrix, q is subtracted from every row, and
// the squared rows are summed with a single matrix-vector product.
func (vectorizedStrategy) DistancesTo(points [][]float64, q []float64, dst []float64) error {
	n := len(points)
	if len(dst) != n {
		return errors.NewDimensionError("distance.Vectorized.DistancesTo", n, len(dst), 0)
	}
	if n == 0 {
		return nil
	}
	d := len(q)
	for _, p := range points {
		if err := checkDims("distance.Vectorized", p, q); err != nil {
			return err
		}
	}
	if d == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	buf := scratch.get(n*d + d)
	defer scratch.put(buf)

	sq := mat.NewDense(n, d, (*buf)[:n*d])
	for i, p := range points {
		row := sq.RawRowView(i)
		copy(row, p)
		floats.Sub(row, q)
		floats.Mul(row, row)
	}

	ones := (*buf)[n*d:]
	for i := range ones {
		ones[i] = 1
	}
	sums := mat.NewVecDense(n, dst)
	sums.MulVec(sq, mat.NewVecDense(d, ones))

	for i := range dst {
		dst[i] = math.Sqrt(dst[i])
	}
	return nil
}
