// Package race provides a first-settled-of-two-futures primitive: an
// asynchronous call raced against a fixed deadline, with the loser cancelled.
// This is part of the platform layer and contains no business logic.
package race

import (
	"context"
	"errors"
	"time"
)

// ErrTimedOut is returned when the deadline settles before the call.
var ErrTimedOut = errors.New("race: deadline settled first")

type outcome[T any] struct {
	value T
	err   error
}

// First runs fn raced against the given timeout. Whichever settles first
// decides the result; the loser is cancelled via the derived context, and a
// late completion is discarded (the result channel is buffered, so the losing
// goroutine never blocks or touches caller state).
//
// Returns ErrTimedOut when the deadline wins, or the parent context's error
// when it is cancelled before either settles.
func First[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome[T], 1)
	go func() {
		value, err := fn(callCtx)
		results <- outcome[T]{value: value, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		return res.value, res.err
	case <-timer.C:
		return zero, ErrTimedOut
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
