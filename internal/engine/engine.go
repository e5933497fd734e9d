// Package engine composes the cache, retry executor, job store, aggregator
// and manager adapters behind one operation surface. The CLI talks only to
// this package.
package engine

import (
	"context"
	"time"

	jexec "github.com/jmgilman/go/exec"
	"github.com/rs/zerolog"

	"github.com/ljiulong/boxyy/internal/aggregate"
	"github.com/ljiulong/boxyy/internal/cache"
	"github.com/ljiulong/boxyy/internal/config"
	"github.com/ljiulong/boxyy/internal/domain"
	"github.com/ljiulong/boxyy/internal/executor"
	"github.com/ljiulong/boxyy/internal/jobs"
	"github.com/ljiulong/boxyy/internal/managers"
)

// Options carries the injectable collaborators. Zero values select
// production defaults.
type Options struct {
	Logger    zerolog.Logger
	Exec      jexec.Executor
	Publisher jobs.EventPublisher
}

type Engine struct {
	cfg   *config.Config
	cache *cache.Store
	exec  *executor.Executor
	jobs  *jobs.Store
	deps  managers.Deps
	log   zerolog.Logger
}

func New(cfg *config.Config, opts Options) *Engine {
	store := cache.New(cfg.CacheDir, cfg.CacheTTL(), opts.Logger)
	exec := executor.New(cfg.RetryAttempts, cfg.RetryBaseDelay())

	e := &Engine{
		cfg:   cfg,
		cache: store,
		exec:  exec,
		jobs: jobs.NewStore(exec, store, jobs.Options{
			Heartbeat: cfg.Heartbeat(),
			Publisher: opts.Publisher,
			Logger:    opts.Logger,
		}),
		deps: managers.Deps{
			Cache:  store,
			Exec:   opts.Exec,
			Logger: opts.Logger,
		},
		log: opts.Logger.With().Str("component", "engine").Logger(),
	}
	return e
}

func (e *Engine) manager(name string, scope domain.Scope) (domain.PackageManager, error) {
	return managers.New(name, e.deps, scope)
}

// requireAvailable resolves a manager and fails with ManagerUnavailable
// when its native tool does not answer the probe.
func (e *Engine) requireAvailable(ctx context.Context, name string, scope domain.Scope) (domain.PackageManager, error) {
	mgr, err := e.manager(name, scope)
	if err != nil {
		return nil, err
	}
	ok, err := mgr.CheckAvailable(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ManagerUnavailableError{Name: name, Reason: "tool did not respond"}
	}
	return mgr, nil
}

// Scan probes every registered manager and reports availability together
// with installed and outdated counts. Scan never fails as a whole; an
// unreachable or erroring manager simply reports unavailable or zero
// counts.
func (e *Engine) Scan(ctx context.Context, scope domain.Scope) []domain.ManagerStatus {
	results := aggregate.Fanout(ctx, managers.Names,
		aggregate.Options{Limit: e.cfg.MaxParallel, Timeout: e.cfg.OutdatedTimeout()},
		func(ctx context.Context, name string) (domain.ManagerStatus, error) {
			status := domain.ManagerStatus{Name: name}
			mgr, err := e.manager(name, scope)
			if err != nil {
				return status, err
			}
			ok, err := mgr.CheckAvailable(ctx)
			if err != nil || !ok {
				return status, nil
			}
			status.Available = true
			if pkgs, err := mgr.ListInstalled(ctx); err == nil {
				status.PackageCount = len(pkgs)
			}
			if outdated, err := mgr.CheckOutdated(ctx); err == nil {
				status.OutdatedCount = len(outdated)
			}
			return status, nil
		})

	statuses := make([]domain.ManagerStatus, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			res.Value = domain.ManagerStatus{Name: res.Manager}
		}
		statuses = append(statuses, res.Value)
	}
	return statuses
}

// Packages lists installed packages. A named manager propagates its
// failure; the all-managers form reports per-manager failures inline and
// never hard-fails. force bypasses the listing cache.
func (e *Engine) Packages(ctx context.Context, manager string, scope domain.Scope, force bool) ([]domain.Package, []aggregate.Result[[]domain.Package], error) {
	if manager != "" {
		mgr, err := e.requireAvailable(ctx, manager, scope)
		if err != nil {
			return nil, nil, err
		}
		if force {
			e.invalidate(mgr)
		}
		pkgs, err := mgr.ListInstalled(ctx)
		if err != nil {
			return nil, nil, err
		}
		return e.markOutdated(ctx, mgr, pkgs), nil, nil
	}

	results := aggregate.Fanout(ctx, managers.Names,
		aggregate.Options{Limit: e.cfg.MaxParallel},
		func(ctx context.Context, name string) ([]domain.Package, error) {
			mgr, err := e.manager(name, scope)
			if err != nil {
				return nil, err
			}
			ok, err := mgr.CheckAvailable(ctx)
			if err != nil || !ok {
				return nil, nil
			}
			if force {
				e.invalidate(mgr)
			}
			pkgs, err := mgr.ListInstalled(ctx)
			if err != nil {
				return nil, err
			}
			return e.markOutdated(ctx, mgr, pkgs), nil
		})

	var all []domain.Package
	for _, res := range results {
		if res.Err == nil {
			all = append(all, res.Value...)
		}
	}
	return all, results, nil
}

// markOutdated annotates the listing with the manager's outdated report.
// The report is time-boxed and best-effort; on failure the listing is
// returned unannotated.
func (e *Engine) markOutdated(ctx context.Context, mgr domain.PackageManager, pkgs []domain.Package) []domain.Package {
	cctx, cancel := context.WithTimeout(ctx, e.cfg.OutdatedTimeout())
	defer cancel()

	outdated, err := mgr.CheckOutdated(cctx)
	if err != nil {
		if !domain.IsUnsupported(err) {
			e.log.Debug().Err(err).Str("manager", mgr.Name()).Msg("outdated check skipped")
		}
		return pkgs
	}

	latest := make(map[string]string, len(outdated))
	for _, pkg := range outdated {
		latest[pkg.Name] = pkg.LatestVersion
	}
	for i := range pkgs {
		if v, ok := latest[pkgs[i].Name]; ok {
			pkgs[i].Outdated = true
			pkgs[i].LatestVersion = v
		}
	}
	return pkgs
}

// Search queries package indexes. A named manager propagates its failure;
// the all-managers form drops failing and unsupporting backends.
func (e *Engine) Search(ctx context.Context, manager, query string, scope domain.Scope) ([]domain.Package, error) {
	if manager != "" {
		mgr, err := e.requireAvailable(ctx, manager, scope)
		if err != nil {
			return nil, err
		}
		return mgr.Search(ctx, query)
	}

	results := aggregate.Fanout(ctx, managers.Names,
		aggregate.Options{Limit: e.cfg.MaxParallel},
		func(ctx context.Context, name string) ([]domain.Package, error) {
			mgr, err := e.manager(name, scope)
			if err != nil {
				return nil, err
			}
			if !domain.Supports(mgr, domain.CapSearchRemote) {
				return nil, nil
			}
			ok, err := mgr.CheckAvailable(ctx)
			if err != nil || !ok {
				return nil, nil
			}
			return mgr.Search(ctx, query)
		})

	var all []domain.Package
	for _, res := range results {
		if res.Err == nil {
			all = append(all, res.Value...)
		}
	}
	return all, nil
}

// Info fetches one package's detail from a specific manager.
func (e *Engine) Info(ctx context.Context, manager, name string, scope domain.Scope) (*domain.Package, error) {
	mgr, err := e.requireAvailable(ctx, manager, scope)
	if err != nil {
		return nil, err
	}
	return mgr.GetInfo(ctx, name)
}

// Dependencies lists a package's direct dependencies where the manager
// supports the query.
func (e *Engine) Dependencies(ctx context.Context, manager, name string, scope domain.Scope) ([]domain.Package, error) {
	mgr, err := e.requireAvailable(ctx, manager, scope)
	if err != nil {
		return nil, err
	}
	return mgr.ListDependencies(ctx, name)
}

// Outdated reports packages with a newer published version. The
// all-managers form reports per-manager failures inline.
func (e *Engine) Outdated(ctx context.Context, manager string, scope domain.Scope) ([]domain.Package, []aggregate.Result[[]domain.Package], error) {
	if manager != "" {
		mgr, err := e.requireAvailable(ctx, manager, scope)
		if err != nil {
			return nil, nil, err
		}
		pkgs, err := mgr.CheckOutdated(ctx)
		if err != nil {
			return nil, nil, err
		}
		return pkgs, nil, nil
	}

	results := aggregate.Fanout(ctx, managers.Names,
		aggregate.Options{Limit: e.cfg.MaxParallel},
		func(ctx context.Context, name string) ([]domain.Package, error) {
			mgr, err := e.manager(name, scope)
			if err != nil {
				return nil, err
			}
			ok, err := mgr.CheckAvailable(ctx)
			if err != nil || !ok {
				return nil, nil
			}
			pkgs, err := mgr.CheckOutdated(ctx)
			if domain.IsUnsupported(err) {
				return nil, nil
			}
			return pkgs, err
		})

	var all []domain.Package
	for _, res := range results {
		if res.Err == nil {
			all = append(all, res.Value...)
		}
	}
	return all, results, nil
}

// Refresh drops the cached listings so the next read refetches. A named
// manager limits the refresh to its key.
func (e *Engine) Refresh(manager string, scope domain.Scope) error {
	names := managers.Names
	if manager != "" {
		names = []string{manager}
	}
	for _, name := range names {
		mgr, err := e.manager(name, e.scopeFor(name, scope))
		if err != nil {
			return err
		}
		if err := e.cache.Invalidate(mgr.CacheKey()); err != nil {
			return err
		}
	}
	return nil
}

// scopeFor keeps global-only managers on the global key even when the
// caller asked for a directory scope.
func (e *Engine) scopeFor(name string, scope domain.Scope) domain.Scope {
	switch name {
	case "npm", "pnpm", "yarn", "bun":
		return scope
	default:
		return domain.GlobalScope
	}
}

func (e *Engine) invalidate(mgr domain.PackageManager) {
	if err := e.cache.Invalidate(mgr.CacheKey()); err != nil {
		e.log.Warn().Err(err).Str("manager", mgr.Name()).Msg("cache invalidation failed")
	}
}

// Install submits an install job and returns its id without blocking.
func (e *Engine) Install(ctx context.Context, manager, name, version string, force bool, scope domain.Scope) (string, error) {
	return e.submit(ctx, manager, domain.OperationInstall, name, version, force, scope)
}

// Update submits an update job for one package.
func (e *Engine) Update(ctx context.Context, manager, name string, scope domain.Scope) (string, error) {
	return e.submit(ctx, manager, domain.OperationUpdate, name, "", false, scope)
}

// Uninstall submits an uninstall job. On success a best-effort cache
// cleanup runs inside the job.
func (e *Engine) Uninstall(ctx context.Context, manager, name string, force bool, scope domain.Scope) (string, error) {
	return e.submit(ctx, manager, domain.OperationUninstall, name, "", force, scope)
}

func (e *Engine) submit(ctx context.Context, manager string, op domain.Operation, target, version string, force bool, scope domain.Scope) (string, error) {
	scope = e.scopeFor(manager, scope)
	mgr, err := e.requireAvailable(ctx, manager, scope)
	if err != nil {
		return "", err
	}

	return e.jobs.Submit(jobs.Request{
		Manager:     manager,
		Operation:   op,
		Target:      target,
		Version:     version,
		Force:       force,
		ResourceKey: mgr.CacheKey(),
		CacheKey:    mgr.CacheKey(),
		Factory:     e.factory(manager, scope),
	}), nil
}

// UpdateAllOutdated submits one batch job updating every outdated package
// of a manager sequentially, aborting on the first failure.
func (e *Engine) UpdateAllOutdated(ctx context.Context, manager string, scope domain.Scope) (string, error) {
	scope = e.scopeFor(manager, scope)
	mgr, err := e.requireAvailable(ctx, manager, scope)
	if err != nil {
		return "", err
	}

	return e.jobs.SubmitBatchUpdate(jobs.BatchRequest{
		Manager:     manager,
		ResourceKey: mgr.CacheKey(),
		CacheKey:    mgr.CacheKey(),
		Factory:     e.factory(manager, scope),
	}), nil
}

func (e *Engine) factory(manager string, scope domain.Scope) jobs.Factory {
	return func() (domain.PackageManager, error) {
		return managers.New(manager, e.deps, scope)
	}
}

// Job store passthroughs for the presentation layer, which references jobs
// by id and never owns them.

func (e *Engine) Jobs() []domain.Job             { return e.jobs.Jobs() }
func (e *Engine) Job(id string) (domain.Job, bool) { return e.jobs.Get(id) }
func (e *Engine) JobLogs(id string) []string     { return e.jobs.Logs(id) }
func (e *Engine) CancelJob(id string)            { e.jobs.Cancel(id) }
func (e *Engine) DeleteJob(id string) error      { return e.jobs.Delete(id) }
func (e *Engine) ClearJobs()                     { e.jobs.Clear() }
func (e *Engine) WaitJobs()                      { e.jobs.Wait() }

// CleanCache removes cache entries older than the given age and returns
// how many were removed.
func (e *Engine) CleanCache(olderThan time.Duration) (int, error) {
	return e.cache.Clean(olderThan)
}
