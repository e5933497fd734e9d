// Package aggregate fans a read-only query out across backend adapters
// under a bounded-concurrency semaphore, so one slow or hanging manager
// can neither serialize the query nor stall it forever.
package aggregate

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ljiulong/boxyy/internal/domain"
)

// DefaultLimit is the fan-out width.
const DefaultLimit = 5

// Result pairs one manager's outcome with its name. Callers must treat the
// result set as keyed by manager, not positionally ordered.
type Result[T any] struct {
	Manager string
	Value   T
	Err     error
}

// Options tunes a fan-out. Zero values select defaults; a zero Timeout
// leaves calls bounded only by the parent context.
type Options struct {
	Limit   int
	Timeout time.Duration
}

// Fanout runs op once per manager name, at most opts.Limit at a time, each
// call independently time-boxed. A single manager's failure or timeout is
// reported in its Result and never fails the aggregate.
func Fanout[T any](ctx context.Context, names []string, opts Options, op func(ctx context.Context, name string) (T, error)) []Result[T] {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	sem := semaphore.NewWeighted(int64(limit))
	results := make([]Result[T], len(names))
	done := make(chan int, len(names))

	for i, name := range names {
		go func(i int, name string) {
			defer func() { done <- i }()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Result[T]{Manager: name, Err: err}
				return
			}
			defer sem.Release(1)
			results[i] = timeBoxed(ctx, name, opts.Timeout, op)
		}(i, name)
	}

	for range names {
		<-done
	}
	return results
}

// timeBoxed runs op under its own deadline. The call itself executes in a
// separate goroutine so even an op that ignores its context cannot hold
// the aggregate past the deadline; an abandoned call finishes in the
// background and its result is dropped.
func timeBoxed[T any](ctx context.Context, name string, timeout time.Duration, op func(ctx context.Context, name string) (T, error)) Result[T] {
	cctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := op(cctx, name)
		ch <- outcome{v, err}
	}()

	select {
	case o := <-ch:
		if o.err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
			o.err = domain.ErrCommandTimeout
		}
		return Result[T]{Manager: name, Value: o.value, Err: o.err}
	case <-cctx.Done():
		err := cctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrCommandTimeout
		}
		return Result[T]{Manager: name, Err: err}
	}
}
