package managers

import (
	"bufio"
	"context"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// pipManager drives pip directly. uv reuses every parser here because its
// pip-compatible subcommands print the same tables.
type pipManager struct {
	base
}

func newPip(deps Deps) *pipManager {
	return &pipManager{
		base: newBase("pip", "pip-global",
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapSearchRemote,
				domain.CapVersionSelection,
			},
			deps, ""),
	}
}

func (m *pipManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "pip", "--version")
}

func (m *pipManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, "pip", "list")
		if err != nil {
			return nil, err
		}
		return parsePipList(out, "pip"), nil
	})
}

func (m *pipManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	// PyPI disabled the XML-RPC search pip relied on; pip index is the
	// supported replacement.
	out, err := m.run.run(ctx, "pip", "index", "versions", query)
	if err != nil {
		return nil, err
	}
	return parsePipIndexVersions(out, "pip", query), nil
}

func (m *pipManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "pip", "show", name)
	if err != nil {
		return nil, err
	}
	return parsePipShow(out, "pip", name)
}

func (m *pipManager) Install(ctx context.Context, name, version string, force bool) error {
	args := []string{"pip", "install", versionedName(name, version, "==")}
	if force {
		args = append(args, "--force-reinstall")
	}
	if _, err := m.run.run(ctx, args...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pipManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, "pip", "install", "--upgrade", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pipManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, "pip", "uninstall", "--yes", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *pipManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "pip", "list", "--outdated")
	if err != nil {
		return nil, err
	}
	return parsePipOutdated(out, "pip"), nil
}

func (m *pipManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "pip", "cache", "purge")
	return err
}

// parsePipList reads the two-column table pip list prints:
//
//	Package    Version
//	---------- -------
//	requests   2.31.0
func parsePipList(out, manager string) []domain.Package {
	var pkgs []domain.Package
	for _, row := range pipTableRows(out) {
		if len(row) < 2 {
			continue
		}
		pkgs = append(pkgs, domain.Package{Name: row[0], Version: row[1], Manager: manager})
	}
	return pkgs
}

// parsePipOutdated reads the four-column --outdated table: Package,
// Version, Latest, Type.
func parsePipOutdated(out, manager string) []domain.Package {
	var pkgs []domain.Package
	for _, row := range pipTableRows(out) {
		if len(row) < 3 {
			continue
		}
		pkgs = append(pkgs, domain.Package{
			Name:          row[0],
			Version:       row[1],
			Manager:       manager,
			Outdated:      true,
			LatestVersion: row[2],
		})
	}
	return pkgs
}

// pipTableRows splits a pip table into field rows, dropping the header and
// the dashed separator under it.
func pipTableRows(out string) [][]string {
	var rows [][]string
	sc := bufio.NewScanner(strings.NewReader(out))
	lineNo := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		lineNo++
		if lineNo <= 2 || line == "" {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func parsePipShow(out, manager, name string) (*domain.Package, error) {
	pkg := domain.Package{Manager: manager}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			pkg.Name = value
		case "Version":
			pkg.Version = value
		case "Summary":
			pkg.Description = value
		case "Home-page":
			pkg.Homepage = value
		case "License":
			pkg.License = value
		case "Location":
			pkg.InstalledPath = value
		}
	}
	if pkg.Name == "" {
		return nil, &domain.PackageNotFoundError{Manager: manager, Package: name}
	}
	return &pkg, nil
}

// parsePipIndexVersions reads "pip index versions <name>", whose first
// line is "name (latest)".
func parsePipIndexVersions(out, manager, query string) []domain.Package {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, rest, ok := strings.Cut(line, " (")
		if !ok {
			continue
		}
		version := strings.TrimSuffix(rest, ")")
		return []domain.Package{{Name: name, Version: version, Manager: manager}}
	}
	return nil
}
