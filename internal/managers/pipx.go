package managers

import (
	"bufio"
	"context"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// pipxManager manages isolated Python applications. pipx has no remote
// search or outdated report of its own, so the capability set is narrow.
type pipxManager struct {
	base
}

func newPipx(deps Deps) *pipxManager {
	return &pipxManager{
		base: newBase("pipx", "pipx-global",
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapVersionSelection,
			},
			deps, ""),
	}
}

func (m *pipxManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "pipx", "--version")
}

func (m *pipxManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, "pipx", "list", "--short")
		if err != nil {
			return nil, err
		}
		return parsePipxList(out, "pipx"), nil
	})
}

func (m *pipxManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	return nil, &domain.UnsupportedOperationError{Manager: m.name, Operation: "search"}
}

func (m *pipxManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	pkgs, err := m.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		if pkgs[i].Name == name {
			return &pkgs[i], nil
		}
	}
	return nil, &domain.PackageNotFoundError{Manager: m.name, Package: name}
}

func (m *pipxManager) Install(ctx context.Context, name, version string, force bool) error {
	args := []string{"pipx", "install", versionedName(name, version, "==")}
	if force {
		args = append(args, "--force")
	}
	if _, err := m.run.run(ctx, args...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pipxManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, "pipx", "upgrade", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pipxManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, "pipx", "uninstall", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pipxManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	return nil, &domain.UnsupportedOperationError{Manager: m.name, Operation: "check_outdated"}
}

// parsePipxList reads the --short listing, one "name version" per line.
func parsePipxList(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		pkgs = append(pkgs, domain.Package{Name: fields[0], Version: fields[1], Manager: manager})
	}
	return pkgs
}
