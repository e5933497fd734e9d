package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnsupported(t *testing.T) {
	err := &UnsupportedOperationError{Manager: "mas", Operation: "clean_cache"}
	assert.True(t, IsUnsupported(err))
	assert.True(t, IsUnsupported(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsUnsupported(errors.New("other")))
	assert.False(t, IsUnsupported(nil))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(ErrCommandTimeout))
	assert.True(t, IsTimeout(fmt.Errorf("brew list: %w", ErrCommandTimeout)))
	assert.False(t, IsTimeout(ErrCommandInterrupted))
}

func TestWrappedCacheErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := &CacheError{Op: "write", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "write")
}

func TestParseErrorTruncatesInput(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	err := &ParseError{Manager: "npm", Input: string(long)}
	assert.Less(t, len(err.Error()), 130)
	assert.Contains(t, err.Error(), "...")
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobRunning.Terminal())
	assert.True(t, JobSucceeded.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.True(t, JobCanceled.Terminal())
}
