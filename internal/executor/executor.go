// Package executor serializes operations that contend for the same
// backend. Two mutations against one resource key never overlap; distinct
// keys proceed fully in parallel.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/ljiulong/boxyy/internal/retry"
)

// Executor maintains one lazily-created mutex per resource key and wraps
// every operation with the retry policy. Locks are never removed: the key
// space is the small fixed set of managers crossed with scopes, so growth
// is bounded.
type Executor struct {
	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	maxAttempts int
	baseDelay   time.Duration
}

// New creates an Executor with the given retry parameters. Non-positive
// values fall back to the package defaults.
func New(maxAttempts int, baseDelay time.Duration) *Executor {
	if maxAttempts < 1 {
		maxAttempts = retry.DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = retry.DefaultBaseDelay
	}
	return &Executor{
		locks:       make(map[string]*sync.Mutex),
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

func (e *Executor) lockFor(key string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lk, ok := e.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		e.locks[key] = lk
	}
	return lk
}

// Execute acquires the key's lock, runs op under the retry policy, and
// releases on every exit path. op is invoked anew on each attempt so
// retries rebuild per-attempt state instead of reusing a possibly poisoned
// handle. Acquisition order is whatever the runtime mutex grants, not
// strict FIFO.
func (e *Executor) Execute(ctx context.Context, key string, op func() error) error {
	lk := e.lockFor(key)
	lk.Lock()
	defer lk.Unlock()
	return retry.Do(ctx, e.maxAttempts, e.baseDelay, op)
}
