// Package offpath runs blocking work away from the caller's goroutine so
// the caller can stop waiting when its context is cancelled.
package offpath

import (
	"context"
	"fmt"
)

// Run calls fn on a new goroutine and waits for it to return or for ctx
// to be done, whichever comes first. When ctx wins, Run returns ctx.Err()
// and the result of fn is discarded once it finishes. A panic in fn is
// returned as an error.
func Run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn()
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
