// Package mux provides the worker's event multiplexer: a wait-for-any over
// a set of pending asynchronous operations, folding strictly sequentially
// over whatever completed while carrying the rest forward untouched.
package mux

import (
	"context"
	"errors"
)

// Op is one in-flight asynchronous operation, producing a single result.
type Op[R any] func(ctx context.Context) (R, error)

// Fold consumes one completed result against the running accumulator,
// returning the updated accumulator and any new operations to arm.
type Fold[A, R any] func(acc A, res R) (A, []Op[R], error)

// ErrNoPending is returned by Round when the pending set is empty; with
// nothing armed the round could never unblock.
var ErrNoPending = errors.New("mux: no pending operations")

type completion[R any] struct {
	res R
	err error
}

// Mux tracks the pending set. Waiting is concurrent across all armed
// operations, but completions are only ever folded by the goroutine calling
// Round, so the accumulator needs no lock.
type Mux[A, R any] struct {
	completions chan completion[R]
	pending     int
}

func New[A, R any]() *Mux[A, R] {
	return &Mux[A, R]{
		completions: make(chan completion[R]),
	}
}

// Arm starts the given operations; each delivers exactly one completion to a
// future Round.
func (m *Mux[A, R]) Arm(ctx context.Context, ops ...Op[R]) {
	m.pending += len(ops)

	for _, op := range ops {
		go func(op Op[R]) {
			res, err := op(ctx)
			m.completions <- completion[R]{res: res, err: err}
		}(op)
	}
}

// Pending returns the number of armed operations that have not been folded
// yet.
func (m *Mux[A, R]) Pending() int {
	return m.pending
}

// Round blocks until at least one pending operation completes, then folds
// sequentially, in the order completions were reported, over exactly the
// completed subset. Operations the fold returns are armed for the next
// round; still-pending ones are neither re-submitted nor cancelled.
//
// An operation that completed with an error aborts the round with that
// error. Such an error is unrecoverable for the caller; I/O failures are not
// masked at this layer.
func (m *Mux[A, R]) Round(ctx context.Context, acc A, fold Fold[A, R]) (A, error) {
	if m.pending == 0 {
		return acc, ErrNoPending
	}

	var done []completion[R]

	select {
	case <-ctx.Done():
		return acc, ctx.Err()
	case c := <-m.completions:
		done = append(done, c)
	}

	// Pick up whatever else has been reported by now, without blocking.
drain:
	for {
		select {
		case c := <-m.completions:
			done = append(done, c)
		default:
			break drain
		}
	}

	m.pending -= len(done)

	var newOps []Op[R]

	for _, c := range done {
		if c.err != nil {
			return acc, c.err
		}

		var (
			ops []Op[R]
			err error
		)
		acc, ops, err = fold(acc, c.res)
		if err != nil {
			return acc, err
		}

		newOps = append(newOps, ops...)
	}

	m.Arm(ctx, newOps...)

	return acc, nil
}
