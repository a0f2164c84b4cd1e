package metrics

import (
	"testing"

	"github.com/YuminosukeSato/goknn/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		want    float64
		wantErr error
	}{
		{name: "perfect", yTrue: []int{0, 1, 1}, yPred: []int{0, 1, 1}, want: 1.0},
		{name: "half", yTrue: []int{0, 1, 0, 1}, yPred: []int{0, 0, 0, 0}, want: 0.5},
		{name: "none", yTrue: []int{1, 1}, yPred: []int{0, 0}, want: 0.0},
		{name: "empty", yTrue: nil, yPred: nil, wantErr: errors.ErrInvalidArgument},
		{name: "length mismatch", yTrue: []int{0, 1}, yPred: []int{0}, wantErr: errors.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	cm, err := NewConfusionMatrix([]int{1, 0, 1, 1}, []int{1, 1, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0}, cm.Labels)
	assert.Equal(t, 2, cm.Count(1, 1))
	assert.Equal(t, 1, cm.Count(1, 0))
	assert.Equal(t, 1, cm.Count(0, 1))
	assert.Equal(t, 0, cm.Count(0, 0))
	assert.Equal(t, 0, cm.Count(5, 1))

	_, err = NewConfusionMatrix(nil, nil)
	assert.Error(t, err)
	_, err = NewConfusionMatrix([]int{1}, []int{1, 2})
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}
