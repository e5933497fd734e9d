// Package managers holds the adapters that bridge the engine to each
// native package-management tool. Every adapter satisfies
// domain.PackageManager; the hard invariants live upstream in the engine.
package managers

import (
	"context"
	"fmt"

	jexec "github.com/jmgilman/go/exec"
	"github.com/rs/zerolog"

	"github.com/ljiulong/boxyy/internal/cache"
	"github.com/ljiulong/boxyy/internal/domain"
)

// Names lists every registered backend.
var Names = []string{"brew", "npm", "pnpm", "yarn", "bun", "pip", "pipx", "uv", "cargo", "mas"}

// Deps carries the shared collaborators adapters are built from. A nil
// Exec selects a real command executor; tests inject fakes.
type Deps struct {
	Cache  *cache.Store
	Exec   jexec.Executor
	Logger zerolog.Logger
}

func (d Deps) executor() jexec.Executor {
	if d.Exec != nil {
		return d.Exec
	}
	return jexec.New()
}

// New constructs the adapter registered under name, bound to the given
// scope. Managers without a per-project mode ignore the scope's directory.
func New(name string, deps Deps, scope domain.Scope) (domain.PackageManager, error) {
	switch name {
	case "brew":
		return newBrew(deps), nil
	case "npm":
		return newNpm(deps, scope), nil
	case "pnpm":
		return newPnpm(deps, scope), nil
	case "yarn":
		return newYarn(deps, scope), nil
	case "bun":
		return newBun(deps, scope), nil
	case "pip":
		return newPip(deps), nil
	case "pipx":
		return newPipx(deps), nil
	case "uv":
		return newUv(deps), nil
	case "cargo":
		return newCargo(deps), nil
	case "mas":
		return newMas(deps), nil
	default:
		return nil, &domain.ManagerNotFoundError{Name: name}
	}
}

// base supplies the boilerplate shared by every adapter: identity,
// capability set, cache plumbing and the default "unsupported" answers for
// the optional operations.
type base struct {
	name  string
	key   string
	caps  []domain.Capability
	run   *runner
	cache *cache.Store
}

func newBase(name, key string, caps []domain.Capability, deps Deps, workdir string) base {
	return base{
		name:  name,
		key:   key,
		caps:  caps,
		run:   newRunner(name, deps.executor(), workdir, deps.Logger),
		cache: deps.Cache,
	}
}

func (b *base) Name() string                      { return b.name }
func (b *base) CacheKey() string                  { return b.key }
func (b *base) Capabilities() []domain.Capability { return b.caps }

func (b *base) CleanCache(ctx context.Context) error {
	return &domain.UnsupportedOperationError{Manager: b.name, Operation: "clean_cache"}
}

func (b *base) ListDependencies(ctx context.Context, name string) ([]domain.Package, error) {
	return nil, &domain.UnsupportedOperationError{Manager: b.name, Operation: "list_dependencies"}
}

// listCached serves the installed listing from the cache when fresh and
// repopulates it otherwise.
func (b *base) listCached(ctx context.Context, fetch func(context.Context) ([]domain.Package, error)) ([]domain.Package, error) {
	var cached []domain.Package
	ok, err := b.cache.Get(b.key, &cached)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	pkgs, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.cache.Set(b.key, pkgs); err != nil {
		b.run.log.Warn().Err(err).Msg("caching package listing failed")
	}
	return pkgs, nil
}

// invalidate drops the manager's cached listing after a mutation. The
// mutation already succeeded, so a failure here is logged only.
func (b *base) invalidate() {
	if err := b.cache.Invalidate(b.key); err != nil {
		b.run.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}

func versionedName(name, version, sep string) string {
	if version == "" {
		return name
	}
	return fmt.Sprintf("%s%s%s", name, sep, version)
}
