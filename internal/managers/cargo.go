package managers

import (
	"bufio"
	"context"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// cargoManager manages binaries installed with cargo install. Outdated
// detection compares each installed crate against the registry's best
// match, since cargo has no built-in outdated report for binaries.
type cargoManager struct {
	base
}

func newCargo(deps Deps) *cargoManager {
	return &cargoManager{
		base: newBase("cargo", "cargo-global",
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapSearchRemote,
				domain.CapVersionSelection,
			},
			deps, ""),
	}
}

func (m *cargoManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "cargo", "--version")
}

func (m *cargoManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, "cargo", "install", "--list")
		if err != nil {
			return nil, err
		}
		return parseCargoList(out, "cargo"), nil
	})
}

func (m *cargoManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "cargo", "search", query)
	if err != nil {
		return nil, err
	}
	return parseCargoSearch(out, "cargo"), nil
}

func (m *cargoManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "cargo", "search", name, "--limit", "1")
	if err != nil {
		return nil, err
	}
	pkgs := parseCargoSearch(out, "cargo")
	if len(pkgs) == 0 || pkgs[0].Name != name {
		return nil, &domain.PackageNotFoundError{Manager: m.name, Package: name}
	}
	return &pkgs[0], nil
}

func (m *cargoManager) Install(ctx context.Context, name, version string, force bool) error {
	args := []string{"cargo", "install", name}
	if version != "" {
		args = append(args, "--version", version)
	}
	if force {
		args = append(args, "--force")
	}
	if _, err := m.run.run(ctx, args...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *cargoManager) Upgrade(ctx context.Context, name string) error {
	// cargo install --force reinstalls at the newest published version.
	if _, err := m.run.run(ctx, "cargo", "install", "--force", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *cargoManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, "cargo", "uninstall", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *cargoManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	installed, err := m.ListInstalled(ctx)
	if err != nil {
		return nil, err
	}

	var outdated []domain.Package
	for _, pkg := range installed {
		latest, err := m.GetInfo(ctx, pkg.Name)
		if err != nil {
			continue
		}
		if latest.Version != "" && latest.Version != pkg.Version {
			pkg.Outdated = true
			pkg.LatestVersion = latest.Version
			outdated = append(outdated, pkg)
		}
	}
	return outdated, nil
}

// parseCargoList reads cargo install --list:
//
//	ripgrep v14.1.0:
//	    rg
func parseCargoList(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		// Crate headers start at column zero; binary lines are indented.
		if line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ":"))
		if len(fields) < 2 {
			continue
		}
		pkgs = append(pkgs, domain.Package{
			Name:    fields[0],
			Version: strings.TrimPrefix(fields[1], "v"),
			Manager: manager,
		})
	}
	return pkgs
}

// parseCargoSearch reads `name = "version"  # description` rows.
func parseCargoSearch(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		name, rest, ok := strings.Cut(line, " = \"")
		if !ok {
			continue
		}
		version, rest, ok := strings.Cut(rest, "\"")
		if !ok {
			continue
		}
		desc := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "#"))
		pkgs = append(pkgs, domain.Package{
			Name:        name,
			Version:     version,
			Manager:     manager,
			Description: desc,
		})
	}
	return pkgs
}
