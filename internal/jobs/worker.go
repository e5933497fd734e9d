package jobs

import (
	"context"
	"fmt"

	"time"

	"github.com/ljiulong/boxyy/internal/domain"
)

// run drives one job to completion: the operation executes under the
// per-resource serializer while a heartbeat advances a simulated progress
// ramp toward 90%. The ramp is deliberate UX smoothing, not a measurement;
// 100 is reached only at the terminal transition.
func (s *Store) run(ctx context.Context, id string, req Request) {
	done := make(chan error, 1)
	go func() {
		done <- s.exec.Execute(ctx, req.ResourceKey, func() error {
			return s.invoke(ctx, id, req)
		})
	}()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			s.finalize(id, req.CacheKey, err)
			return
		case <-ticker.C:
			if p := s.bumpProgress(id, 10, 90); p >= 0 {
				s.pub.PublishProgress(ProgressEvent{TaskID: id, Progress: p})
			}
		case <-ctx.Done():
			// Cancel already forced the terminal state; the operation may
			// still be mid-syscall and is left to finish on its own.
			return
		}
	}
}

// invoke performs one attempt of the job's operation against a fresh
// adapter handle.
func (s *Store) invoke(ctx context.Context, id string, req Request) error {
	mgr, err := req.Factory()
	if err != nil {
		return err
	}

	switch req.Operation {
	case domain.OperationInstall:
		return mgr.Install(ctx, req.Target, req.Version, req.Force)
	case domain.OperationUpdate:
		return mgr.Upgrade(ctx, req.Target)
	case domain.OperationUninstall:
		if err := mgr.Uninstall(ctx, req.Target, req.Force); err != nil {
			return err
		}
		// Best-effort cleanup; its failure never turns a successful
		// uninstall into a failed job.
		if err := mgr.CleanCache(ctx); err != nil && !domain.IsUnsupported(err) {
			s.appendLog(id, fmt.Sprintf("post-uninstall cleanup failed: %v", err))
			s.log.Warn().Err(err).Str("job", id).Msg("post-uninstall cleanup failed")
		}
		return nil
	default:
		return fmt.Errorf("unknown operation %q", req.Operation)
	}
}
