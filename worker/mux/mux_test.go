package mux

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func value[R any](v R) Op[R] {
	return func(ctx context.Context) (R, error) {
		return v, nil
	}
}

func fromChan[R any](ch <-chan R) Op[R] {
	return func(ctx context.Context) (R, error) {
		select {
		case <-ctx.Done():
			var zero R
			return zero, ctx.Err()
		case v := <-ch:
			return v, nil
		}
	}
}

// collect folds results into a slice and arms nothing new.
func collect(acc []int, res int) ([]int, []Op[int], error) {
	return append(acc, res), nil, nil
}

func TestRoundFoldsCompleted(t *testing.T) {
	ctx := context.Background()
	m := New[[]int, int]()

	m.Arm(ctx, value(7))

	acc, err := m.Round(ctx, nil, collect)
	assert.NoError(t, err)
	assert.Equal(t, []int{7}, acc)
	assert.Equal(t, 0, m.Pending())
}

func TestRoundCarriesPendingForward(t *testing.T) {
	ctx := context.Background()
	m := New[[]int, int]()

	slow := make(chan int)
	m.Arm(ctx, value(1), fromChan(slow))

	acc, err := m.Round(ctx, nil, collect)
	assert.NoError(t, err)
	assert.Equal(t, []int{1}, acc)

	// The slow operation is still pending, untouched.
	assert.Equal(t, 1, m.Pending())

	slow <- 2
	acc, err = m.Round(ctx, acc, collect)
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2}, acc)
	assert.Equal(t, 0, m.Pending())
}

func TestFoldArmsNewOps(t *testing.T) {
	ctx := context.Background()
	m := New[[]int, int]()

	m.Arm(ctx, value(0))

	// Each reaction re-arms one more wait, like the service loop does.
	rearm := func(acc []int, res int) ([]int, []Op[int], error) {
		acc = append(acc, res)
		if res < 3 {
			return acc, []Op[int]{value(res + 1)}, nil
		}
		return acc, nil, nil
	}

	acc := []int(nil)
	var err error
	for m.Pending() > 0 {
		acc, err = m.Round(ctx, acc, rearm)
		assert.NoError(t, err)
	}

	assert.Equal(t, []int{0, 1, 2, 3}, acc)
}

func TestSequentialFold(t *testing.T) {
	// Many concurrently completing operations; the fold still runs one at a
	// time, so unsynchronized accumulator mutation is safe.
	ctx := context.Background()
	m := New[[]int, int]()

	const n = 64
	for i := 0; i < n; i++ {
		m.Arm(ctx, value(i))
	}

	acc := []int(nil)
	var err error
	for m.Pending() > 0 {
		acc, err = m.Round(ctx, acc, collect)
		assert.NoError(t, err)
	}

	assert.Len(t, acc, n)
	assert.ElementsMatch(t, acc, intRange(n))
}

func intRange(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

func TestOpErrorIsFatal(t *testing.T) {
	ctx := context.Background()
	m := New[[]int, int]()

	boom := errors.New("boom")
	m.Arm(ctx, func(ctx context.Context) (int, error) {
		return 0, boom
	})

	_, err := m.Round(ctx, nil, collect)
	assert.ErrorIs(t, err, boom)
}

func TestRoundWithoutPending(t *testing.T) {
	m := New[[]int, int]()

	_, err := m.Round(context.Background(), nil, collect)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestRoundHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New[[]int, int]()

	m.Arm(ctx, fromChan(make(chan int)))

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := m.Round(ctx, nil, collect)
	assert.ErrorIs(t, err, context.Canceled)
}
