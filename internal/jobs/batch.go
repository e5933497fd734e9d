package jobs

import (
	"context"
	"fmt"

	"github.com/ljiulong/boxyy/internal/domain"
)

// BatchRequest describes an "update everything outdated" job for one
// manager. A single job represents the whole batch.
type BatchRequest struct {
	Manager     string
	ResourceKey string
	CacheKey    string
	Factory     Factory
}

// SubmitBatchUpdate registers a job that upgrades every outdated package
// of the manager, one at a time. Updates run sequentially so a single
// backend is never hammered in parallel, progress advances linearly across
// the list (10% to 90%), and the first failing package aborts the rest of
// the batch.
func (s *Store) SubmitBatchUpdate(req BatchRequest) string {
	id := s.insert(req.Manager, domain.OperationUpdate, "outdated")
	s.appendLog(id, "Starting batch update of outdated packages")

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runBatch(ctx, id, req)
	}()

	return id
}

func (s *Store) runBatch(ctx context.Context, id string, req BatchRequest) {
	mgr, err := req.Factory()
	if err != nil {
		s.finalize(id, req.CacheKey, err)
		return
	}

	outdated, err := mgr.CheckOutdated(ctx)
	if err != nil {
		s.appendLog(id, fmt.Sprintf("checking outdated packages failed: %v", err))
		s.finalize(id, req.CacheKey, err)
		return
	}

	if len(outdated) == 0 {
		s.appendLog(id, "Nothing to update")
		s.finalize(id, req.CacheKey, nil)
		return
	}

	total := float64(len(outdated))
	for i, pkg := range outdated {
		if ctx.Err() != nil {
			return
		}

		err := s.exec.Execute(ctx, req.ResourceKey, func() error {
			mgr, err := req.Factory()
			if err != nil {
				return err
			}
			return mgr.Upgrade(ctx, pkg.Name)
		})

		progress := min(10+(float64(i)+1)/total*80, 90)
		if p := s.setProgress(id, progress); p >= 0 {
			s.pub.PublishProgress(ProgressEvent{TaskID: id, Progress: p})
		}

		if err != nil {
			s.appendLog(id, fmt.Sprintf("update %s failed: %v", pkg.Name, err))
			s.finalize(id, req.CacheKey, fmt.Errorf("update %s: %w", pkg.Name, err))
			return
		}
		s.appendLog(id, fmt.Sprintf("updated %s to %s", pkg.Name, pkg.LatestVersion))
	}

	s.finalize(id, req.CacheKey, nil)
}
