package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("distance.Euclidean", 2, 3, 1)

	want := "goknn: distance.Euclidean: dimension mismatch on axis 1 (features). Expected 2, got 3"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr), "should be castable to *DimensionError")
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)

	assert.True(t, Is(err, ErrDimensionMismatch))
	assert.False(t, Is(err, ErrInvalidArgument))

	// スタックトレースの存在確認
	formatted := fmt.Sprintf("%+v", err)
	assert.Contains(t, formatted, "errors_test.go")
}

func TestTaxonomyMarkersSurviveWrapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"dimension", NewDimensionError("op", 1, 2, 1), ErrDimensionMismatch},
		{"validation", NewValidationError("k", "must be positive", 0), ErrInvalidArgument},
		{"value", NewValueError("vote.Majority", "empty labels"), ErrInvalidArgument},
		{"type mismatch", NewTypeMismatchError("k", "an integer", "3"), ErrTypeMismatch},
		{"insufficient", NewInsufficientDataError("neighbors.KNearest", 4, 3), ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrapf(tt.err, "classify query %d", 7)
			assert.True(t, Is(wrapped, tt.target))
			assert.True(t, strings.HasPrefix(wrapped.Error(), "classify query 7: goknn:"))
		})
	}
}

func TestTypeMismatchErrorMessage(t *testing.T) {
	err := NewTypeMismatchError("k", "an integer", 3.5)
	assert.Equal(t, "goknn: parameter 'k' must be an integer (got float64: 3.5)", err.Error())

	var tmErr *TypeMismatchError
	require.True(t, As(err, &tmErr))
	assert.Equal(t, 3.5, tmErr.Value)
}

func TestInsufficientDataErrorMessage(t *testing.T) {
	err := NewInsufficientDataError("neighbors.KNearest", 4, 3)
	assert.Equal(t, "goknn: neighbors.KNearest: insufficient data: need 4 reference points, have 3", err.Error())
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("KNeighborsClassifier", "Predict")

	want := "goknn: KNeighborsClassifier: this model is not fitted yet. Call Fit() before using Predict()"
	assert.Equal(t, want, err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestNewModelError(t *testing.T) {
	err := NewModelError("Load", "corrupt snapshot", fmt.Errorf("unexpected EOF"))
	assert.Equal(t, "goknn: Load: corrupt snapshot: unexpected EOF", err.Error())

	var modelErr *ModelError
	require.True(t, As(err, &modelErr))
	assert.EqualError(t, modelErr.Unwrap(), "unexpected EOF")
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewDataConversionWarning("string", "int", "label token '2.0' parsed numerically"))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "data converted from string to int")

	var viaZerolog []error
	SetZerologWarnFunc(func(w error) { viaZerolog = append(viaZerolog, w) })
	defer SetZerologWarnFunc(nil)

	Warn(New("second"))
	assert.Len(t, got, 1, "zerolog func takes precedence")
	assert.Len(t, viaZerolog, 1)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in dataset.Read")
	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in dataset.Read")
}
