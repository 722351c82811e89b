package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestParallelRunsEveryItem(t *testing.T) {
	var sum atomic.Int64
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 15, sum.Load())
}

func TestParallelCollectsAllErrors(t *testing.T) {
	var calls atomic.Int32
	err := Parallel(context.Background(), []string{"a", "b", "c"}, 0, func(_ context.Context, s string) error {
		calls.Add(1)
		if s == "b" {
			return nil
		}
		return errors.New(s)
	})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.EqualValues(t, 3, calls.Load())
}

func TestParallelStopsFeedingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Parallel(ctx, []int{1, 2, 3}, 1, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParallelEmpty(t *testing.T) {
	assert.NoError(t, Parallel(context.Background(), []int(nil), 4, func(context.Context, int) error {
		t.Fatal("called")
		return nil
	}))
}

func TestParallelCancelMidFeedWithFailingWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inputs := make([]int, 200)
	for i := range inputs {
		inputs[i] = i
	}

	var calls atomic.Int32
	err := Parallel(ctx, inputs, 4, func(context.Context, int) error {
		if calls.Add(1) == 50 {
			cancel()
		}
		time.Sleep(10 * time.Microsecond)
		return errors.New("destroy failed")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, calls.Load(), int32(len(inputs)))
	assert.Len(t, multierr.Errors(err), int(calls.Load())+1)
}
