// Package dataset loads labeled feature vectors in the ionosphere CSV layout
// and prepares train/test partitions for the classifier.
//
// Each non-blank line holds the feature values followed by the class label.
// The label "g" maps to 1 and "b" to 0; any other token must be numeric and
// is truncated toward zero.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/goknn/neighbors"
	"github.com/YuminosukeSato/goknn/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	labelGood = "g"
	labelBad  = "b"
)

// Dataset is a set of feature vectors with one integer label each.
type Dataset struct {
	X [][]float64
	Y []int
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.X) }

// Features returns the dimensionality, or 0 for an empty dataset.
func (d *Dataset) Features() int {
	if len(d.X) == 0 {
		return 0
	}
	return len(d.X[0])
}

// Reference exposes the dataset as a classifier reference set. The slices
// are shared, not copied.
func (d *Dataset) Reference() neighbors.ReferenceSet {
	return neighbors.ReferenceSet{Points: d.X, Labels: d.Y}
}

// Matrix returns X as an n×d matrix and Y as an n×1 column.
func (d *Dataset) Matrix() (*mat.Dense, *mat.Dense, error) {
	n, c := d.Len(), d.Features()
	if n == 0 || c == 0 {
		return nil, nil, errors.NewModelError("dataset.Matrix", "empty data", errors.ErrEmptyData)
	}
	X := mat.NewDense(n, c, nil)
	y := mat.NewDense(n, 1, nil)
	for i, row := range d.X {
		X.SetRow(i, row)
		y.Set(i, 0, float64(d.Y[i]))
	}
	return X, y, nil
}

// ReadFile reads a dataset from path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: %s", path)
	}
	return d, nil
}

// Read parses CSV records from r. Blank lines are skipped. Every record must
// have the same number of features as the first one.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	d := &Dataset{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewValueError("dataset.Read", err.Error())
		}
		line, _ := cr.FieldPos(0)

		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 2 {
			return nil, errors.NewValueError("dataset.Read",
				"line "+strconv.Itoa(line)+": need at least one feature and a label")
		}
		nf := len(rec) - 1
		if len(d.X) > 0 && nf != len(d.X[0]) {
			return nil, errors.Wrapf(
				errors.NewDimensionError("dataset.Read", len(d.X[0]), nf, 1),
				"line %d", line)
		}

		row := make([]float64, nf)
		for j, field := range rec[:nf] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.NewValueError("dataset.Read",
					"line "+strconv.Itoa(line)+": feature "+strconv.Itoa(j)+" is not a number: "+strconv.Quote(field))
			}
			row[j] = v
		}

		label, err := ParseLabel(rec[nf])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		d.X = append(d.X, row)
		d.Y = append(d.Y, label)
	}
	return d, nil
}

// ParseLabel maps a label token to a class. "g" is 1, "b" is 0. Other
// tokens are parsed as numbers and truncated toward zero, which raises a
// DataConversionWarning through errors.Warn.
func ParseLabel(token string) (int, error) {
	token = strings.TrimSpace(token)
	switch token {
	case labelGood:
		return 1, nil
	case labelBad:
		return 0, nil
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewValueError("dataset.ParseLabel",
			"label must be \"g\", \"b\" or a number, got "+strconv.Quote(token))
	}
	label := int(math.Trunc(v))
	errors.Warn(errors.NewDataConversionWarning("string", "int",
		"label "+strconv.Quote(token)+" parsed as "+strconv.Itoa(label)))
	return label, nil
}

// Split partitions d at int(n*(1-testSize)): the head becomes the training
// set and the tail the test set. Neither side may end up empty.
func (d *Dataset) Split(testSize float64) (train, test *Dataset, err error) {
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}

	at := int(float64(d.Len()) * (1 - testSize))
	if at == 0 || at == d.Len() {
		return nil, nil, errors.NewValueError("dataset.Split",
			"split of "+strconv.Itoa(d.Len())+" samples leaves an empty partition")
	}
	train = &Dataset{X: d.X[:at], Y: d.Y[:at]}
	test = &Dataset{X: d.X[at:], Y: d.Y[at:]}
	return train, test, nil
}

// Shuffle returns a copy of d with samples permuted by a generator seeded
// with seed. d itself is not modified.
func (d *Dataset) Shuffle(seed int64) *Dataset {
	perm := rand.New(rand.NewSource(seed)).Perm(d.Len())
	out := &Dataset{
		X: make([][]float64, d.Len()),
		Y: make([]int, d.Len()),
	}
	for i, p := range perm {
		out.X[i] = d.X[p]
		out.Y[i] = d.Y[p]
	}
	return out
}

// Map returns a copy of d whose feature vectors are replaced by f(d.X).
func (d *Dataset) Map(f func([][]float64) ([][]float64, error)) (*Dataset, error) {
	x, err := f(d.X)
	if err != nil {
		return nil, err
	}
	if len(x) != d.Len() {
		return nil, errors.NewDimensionError("dataset.Map", d.Len(), len(x), 0)
	}
	return &Dataset{X: x, Y: append([]int(nil), d.Y...)}, nil
}
