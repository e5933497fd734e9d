package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorUnchanged(t *testing.T) {
	first := errors.New("first")
	last := errors.New("last")
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return first
		}
		return last
	})
	assert.Same(t, last, err)
	assert.Equal(t, 2, calls)
}

func TestDoExhaustsAttemptsWithExponentialBackoff(t *testing.T) {
	boom := errors.New("always failing")
	calls := 0
	start := time.Now()
	err := Do(context.Background(), 3, 10*time.Millisecond, func() error {
		calls++
		return boom
	})
	elapsed := time.Since(start)

	assert.Same(t, boom, err)
	assert.Equal(t, 3, calls)
	// Two waits: base and then doubled base.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("keep trying")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancel during backoff must not run another attempt")
}

func TestDoClampsBadAttemptCount(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 0, time.Millisecond, func() error {
		calls++
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), 3, time.Millisecond, func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDoValueReturnsZeroOnFailure(t *testing.T) {
	v, err := DoValue(context.Background(), 1, time.Millisecond, func() (string, error) {
		return "partial", errors.New("broken")
	})
	require.Error(t, err)
	assert.Empty(t, v)
}
