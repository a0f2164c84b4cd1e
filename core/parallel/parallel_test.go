package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	const items = 103
	var hits [items]int32

	err := Parallelize(context.Background(), items, 4, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
		return nil
	})
	require.NoError(t, err)

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestParallelizeReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Parallelize(context.Background(), 10, 5, func(ctx context.Context, start, end int) error {
		if start == 0 {
			return boom
		}
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, boom)
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	err := ParallelizeWithThreshold(context.Background(), 50, 100, 8, func(_ context.Context, start, end int) error {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 50, end)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	fn := func(context.Context, int, int) error { called = true; return nil }
	require.NoError(t, Parallelize(context.Background(), 0, 4, fn))
	require.NoError(t, ParallelizeWithThreshold(context.Background(), 0, 10, 1, fn))
	assert.False(t, called)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Greater(t, Workers(-1), 0)
	assert.Greater(t, Workers(0), 0)
}
