package managers

import (
	"bufio"
	"context"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// masManager wraps the Mac App Store CLI. Targets are numeric App Store
// identifiers; the display name travels in the Package name field.
type masManager struct {
	base
}

func newMas(deps Deps) *masManager {
	return &masManager{
		base: newBase("mas", "mas-global",
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapSearchRemote,
			},
			deps, ""),
	}
}

func (m *masManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "mas", "version")
}

func (m *masManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, "mas", "list")
		if err != nil {
			return nil, err
		}
		return parseMasList(out, "mas"), nil
	})
}

func (m *masManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "mas", "search", query)
	if err != nil {
		return nil, err
	}
	return parseMasSearch(out, "mas"), nil
}

func (m *masManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "mas", "info", name)
	if err != nil {
		return nil, err
	}
	return parseMasInfo(out, "mas", name)
}

func (m *masManager) Install(ctx context.Context, name, version string, force bool) error {
	if _, err := m.run.run(ctx, "mas", "install", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *masManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, "mas", "upgrade", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *masManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, "mas", "uninstall", name); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *masManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "mas", "outdated")
	if err != nil {
		return nil, err
	}
	return parseMasOutdated(out, "mas"), nil
}

// parseMasList reads "<id> <App Name> (<version>)" rows.
func parseMasList(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		id, name, version, ok := splitMasRow(sc.Text())
		if !ok {
			continue
		}
		pkgs = append(pkgs, domain.Package{
			Name:        name,
			Version:     version,
			Manager:     manager,
			Description: "App Store id " + id,
		})
	}
	return pkgs
}

// parseMasOutdated reads "<id> <App Name> (<current> -> <latest>)" rows.
func parseMasOutdated(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		id, name, versions, ok := splitMasRow(sc.Text())
		if !ok {
			continue
		}
		current, latest, ok := strings.Cut(versions, " -> ")
		if !ok {
			continue
		}
		pkgs = append(pkgs, domain.Package{
			Name:          name,
			Version:       current,
			Manager:       manager,
			Outdated:      true,
			LatestVersion: latest,
			Description:   "App Store id " + id,
		})
	}
	return pkgs
}

// parseMasSearch reads the same id/name/version rows as mas list.
func parseMasSearch(out, manager string) []domain.Package {
	return parseMasList(out, manager)
}

func parseMasInfo(out, manager, name string) (*domain.Package, error) {
	// First line: "App Name 1.2.3 [price]".
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		version := fields[len(fields)-1]
		nameEnd := len(fields) - 1
		if strings.HasPrefix(version, "[") && nameEnd > 1 {
			version = fields[len(fields)-2]
			nameEnd--
		}
		return &domain.Package{
			Name:    strings.Join(fields[:nameEnd], " "),
			Version: version,
			Manager: manager,
		}, nil
	}
	return nil, &domain.PackageNotFoundError{Manager: manager, Package: name}
}

func splitMasRow(line string) (id, name, version string, ok bool) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", "", false
	}
	id = fields[0]
	open := strings.LastIndex(line, "(")
	end := strings.LastIndex(line, ")")
	if open < 0 || end < open {
		return "", "", "", false
	}
	name = strings.TrimSpace(line[len(id):open])
	version = line[open+1 : end]
	return id, name, version, true
}
