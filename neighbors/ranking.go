// Package neighbors ranks reference points by their distance to a query.
package neighbors

import (
	"cmp"
	"math"
	"slices"

	"github.com/YuminosukeSato/goknn/distance"
	"github.com/YuminosukeSato/goknn/pkg/errors"
)

// ReferenceSet is a labeled set of feature vectors. Points[i] carries
// Labels[i]. The set is only read.
type ReferenceSet struct {
	Points [][]float64
	Labels []int
}

// Len returns the number of reference points.
func (r ReferenceSet) Len() int { return len(r.Points) }

// Validate checks that every point has a label.
func (r ReferenceSet) Validate() error {
	if len(r.Points) != len(r.Labels) {
		return errors.NewDimensionError("neighbors.ReferenceSet", len(r.Points), len(r.Labels), 0)
	}
	return nil
}

// Candidate pairs a reference label with its distance to the query.
type Candidate struct {
	Index    int
	Distance float64
	Label    int
}

// Rank returns one candidate per reference point, ordered by ascending
// distance. Equal distances keep reference-set order. NaN distances sort
// last.
func Rank(ref ReferenceSet, q []float64, dist distance.Distancer) ([]Candidate, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	n := ref.Len()
	candidates := make([]Candidate, n)

	if batch, ok := dist.(distance.BatchDistancer); ok && n > 0 {
		d := make([]float64, n)
		if err := batch.DistancesTo(ref.Points, q, d); err != nil {
			return nil, err
		}
		for i := range candidates {
			candidates[i] = Candidate{Index: i, Distance: d[i], Label: ref.Labels[i]}
		}
	} else {
		for i, p := range ref.Points {
			d, err := dist.Distance(p, q)
			if err != nil {
				return nil, err
			}
			candidates[i] = Candidate{Index: i, Distance: d, Label: ref.Labels[i]}
		}
	}

	slices.SortStableFunc(candidates, compareDistance)
	return candidates, nil
}

func compareDistance(a, b Candidate) int {
	an, bn := math.IsNaN(a.Distance), math.IsNaN(b.Distance)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmp.Compare(a.Distance, b.Distance)
}

// KNearest returns the labels of the k reference points closest to q,
// nearest first.
func KNearest(ref ReferenceSet, q []float64, k int, dist distance.Distancer) ([]int, error) {
	if k < 1 {
		return nil, errors.NewValidationError("k", "must be a positive integer", k)
	}
	if k > ref.Len() {
		return nil, errors.NewInsufficientDataError("neighbors.KNearest", k, ref.Len())
	}

	candidates, err := Rank(ref, q, dist)
	if err != nil {
		return nil, err
	}

	labels := make([]int, k)
	for i := range labels {
		labels[i] = candidates[i].Label
	}
	return labels, nil
}
