package managers

import (
	"context"
	"encoding/json"

	"github.com/ljiulong/boxyy/internal/domain"
)

// pnpmManager shells out to pnpm. Listings come back as a JSON array of
// project trees rather than npm's single object, so it carries its own
// parser; the search and info surfaces are npm-compatible.
type pnpmManager struct {
	base
	scope domain.Scope
}

func newPnpm(deps Deps, scope domain.Scope) *pnpmManager {
	return &pnpmManager{
		base: newBase("pnpm", scope.Qualify("pnpm"),
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapSearchRemote,
				domain.CapQueryDependencies,
				domain.CapVersionSelection,
			},
			deps, scope.Dir),
		scope: scope,
	}
}

func (m *pnpmManager) args(rest ...string) []string {
	out := []string{"pnpm"}
	if m.scope.Global {
		out = append(out, "-g")
	}
	return append(out, rest...)
}

func (m *pnpmManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "pnpm", "--version")
}

func (m *pnpmManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.output(ctx, m.args("list", "--json", "--depth=0")...)
		if err != nil {
			return nil, err
		}
		return parsePnpmList(out, "pnpm")
	})
}

func (m *pnpmManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "pnpm", "search", "--json", query)
	if err != nil {
		return nil, err
	}
	return parseNpmSearch(out, "pnpm")
}

func (m *pnpmManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "pnpm", "info", name, "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmInfo(out, "pnpm", name)
}

func (m *pnpmManager) Install(ctx context.Context, name, version string, force bool) error {
	rest := []string{"add", versionedName(name, version, "@")}
	if force {
		rest = append(rest, "--force")
	}
	if _, err := m.run.run(ctx, m.args(rest...)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pnpmManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, m.args("update", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pnpmManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, m.args("remove", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pnpmManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	// pnpm outdated exits 1 when anything is outdated.
	out, err := m.run.output(ctx, m.args("outdated", "--json")...)
	if err != nil {
		return nil, err
	}
	return parseNpmOutdated(out, "pnpm")
}

func (m *pnpmManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "pnpm", "store", "prune")
	return err
}

func (m *pnpmManager) ListDependencies(ctx context.Context, name string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "pnpm", "info", name, "dependencies", "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmDependencies(out, "pnpm")
}

func parsePnpmList(out, manager string) ([]domain.Package, error) {
	var projects []npmListOutput
	if err := json.Unmarshal([]byte(out), &projects); err != nil {
		// Older pnpm prints a single object for one project.
		var single npmListOutput
		if err := json.Unmarshal([]byte(out), &single); err != nil {
			return nil, &domain.ParseError{Manager: manager, Input: out}
		}
		projects = []npmListOutput{single}
	}

	var pkgs []domain.Package
	for _, project := range projects {
		for name, dep := range project.Dependencies {
			pkgs = append(pkgs, domain.Package{
				Name:    name,
				Version: dep.Version,
				Manager: manager,
			})
		}
	}
	return pkgs, nil
}
