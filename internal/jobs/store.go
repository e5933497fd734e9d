// Package jobs tracks the lifecycle of long-running mutating operations:
// progress heartbeats, logs, cancellation and terminal-state bookkeeping.
// Jobs live only for the process lifetime.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ljiulong/boxyy/internal/cache"
	"github.com/ljiulong/boxyy/internal/domain"
	"github.com/ljiulong/boxyy/internal/executor"
)

// DefaultHeartbeat is the interval at which a running job advances its
// simulated progress estimate.
const DefaultHeartbeat = time.Second

// ErrJobRunning is returned when deleting a job that has not reached a
// terminal state.
var ErrJobRunning = fmt.Errorf("job is still running")

// ErrJobNotFound is returned for operations on unknown job ids.
var ErrJobNotFound = fmt.Errorf("job not found")

// Factory builds a fresh adapter handle. It is re-invoked on every retry
// attempt so a poisoned handle is never reused.
type Factory func() (domain.PackageManager, error)

// Request describes one mutating operation to track as a job.
type Request struct {
	Manager   string
	Operation domain.Operation
	Target    string
	Version   string
	Force     bool

	// ResourceKey serializes this job against others touching the same
	// manager in the same scope.
	ResourceKey string
	// CacheKey is invalidated once the job reaches a terminal state.
	CacheKey string
	Factory  Factory
}

// Options tunes a Store. Zero values select defaults.
type Options struct {
	Heartbeat time.Duration
	Publisher EventPublisher
	Logger    zerolog.Logger
}

// Store owns all jobs, their logs and their cancel handles. Mutations hold
// the store lock only for the duration of the bookkeeping; the operations
// themselves run detached.
type Store struct {
	mu      sync.Mutex
	jobs    []*domain.Job
	logs    map[string][]string
	cancels map[string]context.CancelFunc

	exec      *executor.Executor
	cache     *cache.Store
	pub       EventPublisher
	heartbeat time.Duration
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// NewStore creates a Store routing work through exec and invalidating
// entries in c at terminal transitions.
func NewStore(exec *executor.Executor, c *cache.Store, opts Options) *Store {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	if opts.Publisher == nil {
		opts.Publisher = noopPublisher{}
	}
	return &Store{
		logs:      make(map[string][]string),
		cancels:   make(map[string]context.CancelFunc),
		exec:      exec,
		cache:     c,
		pub:       opts.Publisher,
		heartbeat: opts.Heartbeat,
		log:       opts.Logger.With().Str("component", "jobs").Logger(),
	}
}

// Submit registers a Running job for req, spawns its background worker and
// returns the job id without blocking.
func (s *Store) Submit(req Request) string {
	id := s.insert(req.Manager, req.Operation, req.Target)

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, id, req)
	}()

	return id
}

func (s *Store) insert(manager string, op domain.Operation, target string) string {
	id := uuid.NewString()
	job := &domain.Job{
		ID:        id,
		Manager:   manager,
		Operation: op,
		Target:    target,
		Status:    domain.JobRunning,
		Progress:  0,
		Step:      "started",
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.logs[id] = nil
	s.mu.Unlock()

	s.pub.PublishProgress(ProgressEvent{TaskID: id, Progress: 0})
	s.log.Info().Str("job", id).Str("manager", manager).Str("op", string(op)).Str("target", target).Msg("job submitted")
	return id
}

// Get returns a copy of the job, if known.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job := s.find(id); job != nil {
		return *job, true
	}
	return domain.Job{}, false
}

// Jobs returns copies of all jobs in submission order.
func (s *Store) Jobs() []domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}

// Logs returns the accumulated log lines of a job.
func (s *Store) Logs(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.logs[id]
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Cancel aborts the job's background task, best effort, and forces the job
// to Canceled regardless of the task's own eventual outcome. Canceling an
// already-terminal or unknown job is a no-op.
func (s *Store) Cancel(id string) {
	s.mu.Lock()
	cancel, hadCancel := s.cancels[id]
	delete(s.cancels, id)

	job := s.find(id)
	var manager string
	canceled := false
	if job != nil && !job.Status.Terminal() {
		now := time.Now()
		job.Status = domain.JobCanceled
		job.Progress = 100
		job.Step = "canceled"
		job.FinishedAt = &now
		s.logs[id] = append(s.logs[id], "Canceled")
		manager = job.Manager
		canceled = true
	}
	s.mu.Unlock()

	if hadCancel {
		cancel()
	}
	if canceled {
		s.pub.PublishProgress(ProgressEvent{TaskID: id, Progress: 100})
		s.pub.PublishCompletion(CompletionEvent{ID: id, Status: domain.JobCanceled, Manager: manager})
		s.log.Info().Str("job", id).Msg("job canceled")
	}
}

// Delete removes a terminal job and its logs. Deleting a Running job fails
// with ErrJobRunning.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, job := range s.jobs {
		if job.ID != id {
			continue
		}
		if !job.Status.Terminal() {
			return ErrJobRunning
		}
		s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
		delete(s.logs, id)
		delete(s.cancels, id)
		return nil
	}
	return ErrJobNotFound
}

// Clear removes all terminal jobs, preserving Running ones along with
// their logs and cancel handles.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.jobs[:0]
	running := make(map[string]bool)
	for _, job := range s.jobs {
		if job.Status.Terminal() {
			continue
		}
		kept = append(kept, job)
		running[job.ID] = true
	}
	s.jobs = kept
	for id := range s.logs {
		if !running[id] {
			delete(s.logs, id)
		}
	}
	for id := range s.cancels {
		if !running[id] {
			delete(s.cancels, id)
		}
	}
}

// Wait blocks until every background worker has returned. Test helper and
// shutdown hook; new submissions during the wait are not accounted for.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) find(id string) *domain.Job {
	for _, job := range s.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (s *Store) appendLog(id, line string) {
	s.mu.Lock()
	if _, ok := s.logs[id]; ok {
		s.logs[id] = append(s.logs[id], line)
	}
	s.mu.Unlock()
}

// bumpProgress advances the simulated estimate toward the cap and reports
// the new value, or -1 when the job is already terminal or at the cap.
func (s *Store) bumpProgress(id string, delta, cap float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.find(id)
	if job == nil || job.Status.Terminal() || job.Progress >= cap {
		return -1
	}
	job.Progress = min(job.Progress+delta, cap)
	job.Step = "running"
	return job.Progress
}

// setProgress raises the job's progress to p if that is an increase.
func (s *Store) setProgress(id string, p float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.find(id)
	if job == nil || job.Status.Terminal() || p <= job.Progress {
		return -1
	}
	job.Progress = p
	job.Step = "running"
	return p
}

// finalize moves the job to its terminal state exactly once and performs
// the post-terminal bookkeeping: final log line, cache invalidation and
// the completion event. Returns false if the job was already terminal.
func (s *Store) finalize(id, cacheKey string, opErr error) bool {
	status := domain.JobSucceeded
	step := "completed"
	finalLine := "Completed"
	if opErr != nil {
		status = domain.JobFailed
		step = "failed"
		finalLine = opErr.Error()
	}

	s.mu.Lock()
	job := s.find(id)
	if job == nil || job.Status.Terminal() {
		s.mu.Unlock()
		return false
	}
	now := time.Now()
	job.Status = status
	job.Progress = 100
	job.Step = step
	job.FinishedAt = &now
	if opErr != nil {
		job.Error = opErr.Error()
	}
	s.logs[id] = append(s.logs[id], finalLine)
	delete(s.cancels, id)
	manager := job.Manager
	s.mu.Unlock()

	// The mutation already happened; a stale cache heals at the next TTL
	// expiry, so invalidation failures are logged, not escalated.
	if cacheKey != "" {
		if err := s.cache.Invalidate(cacheKey); err != nil {
			s.appendLog(id, fmt.Sprintf("cache invalidation failed: %v", err))
			s.log.Warn().Err(err).Str("job", id).Msg("cache invalidation failed")
		}
	}

	s.pub.PublishProgress(ProgressEvent{TaskID: id, Progress: 100})
	s.pub.PublishCompletion(CompletionEvent{ID: id, Status: status, Manager: manager})
	s.log.Info().Str("job", id).Str("status", string(status)).Msg("job finished")
	return true
}
