// Package distance provides the interchangeable Euclidean distance strategies
// used by the classifier: a reference loop, a vectorized gonum
// implementation and the compiled-native kernel from package native.
//
// Every strategy rejects vectors of different lengths with an error marked
// errors.ErrDimensionMismatch and agrees with the others to within floating
// point rounding.
package distance

import (
	"math"
	"strings"

	"github.com/YuminosukeSato/goknn/native"
	"github.com/YuminosukeSato/goknn/pkg/errors"
)

// Func computes the distance between two vectors of equal length.
type Func func(a, b []float64) (float64, error)

// Distancer is a distance strategy.
type Distancer interface {
	Distance(a, b []float64) (float64, error)
	Backend() Backend
}

// BatchDistancer is implemented by strategies that evaluate one query
// against a whole reference set at once. dst must have len(points) elements;
// dst[i] receives the distance between points[i] and q.
type BatchDistancer interface {
	Distancer
	DistancesTo(points [][]float64, q []float64, dst []float64) error
}

// Backend selects a numeric execution strategy.
type Backend int

const (
	Reference Backend = iota
	Vectorized
	CompiledNative
)

func (b Backend) String() string {
	switch b {
	case Reference:
		return "reference"
	case Vectorized:
		return "vectorized"
	case CompiledNative:
		return "compiled-native"
	default:
		return "unknown"
	}
}

// Valid reports whether b is one of the known backends.
func (b Backend) Valid() bool {
	return b >= Reference && b <= CompiledNative
}

// Backends lists every backend in declaration order.
func Backends() []Backend {
	return []Backend{Reference, Vectorized, CompiledNative}
}

// ParseBackend accepts the canonical names and the aliases "plain", "numpy",
// "native" and "numba".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reference", "plain":
		return Reference, nil
	case "vectorized", "numpy":
		return Vectorized, nil
	case "compiled-native", "native", "numba":
		return CompiledNative, nil
	default:
		return Reference, errors.NewValidationError("backend",
			"must be one of reference, vectorized, compiled-native", s)
	}
}

// For returns the strategy for b. kernel is used by CompiledNative; nil
// selects native.Default().
func For(b Backend, kernel *native.Kernel) (Distancer, error) {
	switch b {
	case Reference:
		return referenceStrategy{}, nil
	case Vectorized:
		return vectorizedStrategy{}, nil
	case CompiledNative:
		if kernel == nil {
			kernel = native.Default()
		}
		return nativeStrategy{kernel: kernel}, nil
	default:
		return nil, errors.NewValidationError("backend", "unknown backend", int(b))
	}
}

func checkDims(op string, a, b []float64) error {
	if len(a) != len(b) {
		return errors.NewDimensionError(op, len(a), len(b), 1)
	}
	return nil
}

// SquaredEuclidean returns the sum of squared element-wise differences.
func SquaredEuclidean(a, b []float64) (float64, error) {
	if err := checkDims("distance.SquaredEuclidean", a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum, nil
}

// Euclidean is the reference strategy: a plain accumulation loop.
func Euclidean(a, b []float64) (float64, error) {
	if err := checkDims("distance.Euclidean", a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

type referenceStrategy struct{}

func (referenceStrategy) Distance(a, b []float64) (float64, error) { return Euclidean(a, b) }
func (referenceStrategy) Backend() Backend                         { return Reference }

type nativeStrategy struct {
	kernel *native.Kernel
}

func (s nativeStrategy) Distance(a, b []float64) (float64, error) {
	if err := checkDims("distance.Native", a, b); err != nil {
		return 0, err
	}
	return s.kernel.Distance(a, b), nil
}

func (nativeStrategy) Backend() Backend { return CompiledNative }
