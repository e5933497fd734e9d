package managers

import (
	"context"

	"github.com/ljiulong/boxyy/internal/domain"
)

// uvManager wraps uv's pip-compatible interface, so the pip parsers serve
// every listing surface unchanged.
type uvManager struct {
	base
}

func newUv(deps Deps) *uvManager {
	return &uvManager{
		base: newBase("uv", "uv-global",
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapSearchRemote,
				domain.CapVersionSelection,
			},
			deps, ""),
	}
}

func (m *uvManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "uv", "--version")
}

func (m *uvManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, "uv", "pip", "list")
		if err != nil {
			return nil, err
		}
		return parsePipList(out, "uv"), nil
	})
}

func (m *uvManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "pip", "index", "versions", query)
	if err != nil {
		return nil, err
	}
	return parsePipIndexVersions(out, "uv", query), nil
}

func (m *uvManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "uv", "pip", "show", name)
	if err != nil {
		return nil, err
	}
	return parsePipShow(out, "uv", name)
}

func (m *uvManager) Install(ctx context.Context, name, version string, force bool) error {
	args := []string{"uv", "pip", "install", versionedName(name, version, "==")}
	if force {
		args = append(args, "--reinstall")
	}
	if _, err := m.run.run(ctx, args...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *uvManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, "uv", "pip", "install", "--upgrade", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *uvManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, "uv", "pip", "uninstall", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *uvManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "uv", "pip", "list", "--outdated")
	if err != nil {
		return nil, err
	}
	return parsePipOutdated(out, "uv"), nil
}

func (m *uvManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "uv", "cache", "clean")
	return err
}
