package jobs

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ljiulong/boxyy/internal/domain"
)

// ProgressEvent is emitted on every heartbeat and at completion.
type ProgressEvent struct {
	TaskID   string  `json:"taskId"`
	Progress float64 `json:"progress"`
}

// CompletionEvent is emitted exactly once per job, at its terminal
// transition.
type CompletionEvent struct {
	ID      string           `json:"id"`
	Status  domain.JobStatus `json:"status"`
	Manager string           `json:"manager"`
}

// EventPublisher receives job events for the presentation layer.
// Implementations must be lightweight and non-blocking.
type EventPublisher interface {
	PublishProgress(ProgressEvent)
	PublishCompletion(CompletionEvent)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) PublishProgress(ProgressEvent)     {}
func (noopPublisher) PublishCompletion(CompletionEvent) {}

// MemoryPublisher records events in memory, mainly for tests.
type MemoryPublisher struct {
	mu          sync.Mutex
	progress    []ProgressEvent
	completions []CompletionEvent
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) PublishProgress(e ProgressEvent) {
	p.mu.Lock()
	p.progress = append(p.progress, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) PublishCompletion(e CompletionEvent) {
	p.mu.Lock()
	p.completions = append(p.completions, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Progress() []ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ProgressEvent, len(p.progress))
	copy(out, p.progress)
	return out
}

func (p *MemoryPublisher) Completions() []CompletionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CompletionEvent, len(p.completions))
	copy(out, p.completions)
	return out
}

// LogPublisher forwards events to a structured logger; the CLI installs it
// when not following a job interactively.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) PublishProgress(e ProgressEvent) {
	p.Log.Debug().Str("job", e.TaskID).Float64("progress", e.Progress).Msg("job progress")
}

func (p LogPublisher) PublishCompletion(e CompletionEvent) {
	p.Log.Info().Str("job", e.ID).Str("manager", e.Manager).Str("status", string(e.Status)).Msg("job finished")
}
