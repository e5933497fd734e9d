// Package retry wraps fallible operations with bounded exponential
// backoff. Failures are retried indiscriminately; classifying permanent
// errors is left to callers who can afford to.
package retry

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second

	// maxShift caps the backoff multiplier at 32x so the worst-case wait
	// stays bounded.
	maxShift = 5
)

// Do runs op until it succeeds or maxAttempts failures have accumulated.
// The first attempt runs immediately; attempt n sleeps baseDelay*2^(n-1)
// beforehand. The last error is returned unchanged so callers see exactly
// what the operation produced.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	attempt := 1
	for {
		err := op()
		if err == nil {
			return nil
		}
		if attempt >= maxAttempts {
			return err
		}

		shift := attempt - 1
		if shift > maxShift {
			shift = maxShift
		}
		timer := time.NewTimer(baseDelay << shift)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() (T, error)) (T, error) {
	var out T
	err := Do(ctx, maxAttempts, baseDelay, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
