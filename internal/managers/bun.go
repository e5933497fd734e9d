package managers

import (
	"bufio"
	"context"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// bunManager shells out to bun's pm subcommands. bun prints plain text, so
// every surface is line-parsed.
type bunManager struct {
	base
	scope domain.Scope
}

func newBun(deps Deps, scope domain.Scope) *bunManager {
	return &bunManager{
		base: newBase("bun", scope.Qualify("bun"),
			[]domain.Capability{
				domain.CapListInstalled,
				domain.CapSearchRemote,
				domain.CapVersionSelection,
			},
			deps, scope.Dir),
		scope: scope,
	}
}

func (m *bunManager) args(rest ...string) []string {
	out := []string{"bun"}
	out = append(out, rest...)
	if m.scope.Global {
		out = append(out, "-g")
	}
	return out
}

func (m *bunManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "bun", "--version")
}

func (m *bunManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, m.args("pm", "ls")...)
		if err != nil {
			return nil, err
		}
		return parseBunList(out, "bun"), nil
	})
}

func (m *bunManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	// bun resolves against the npm registry, whose search output is shared.
	out, err := m.run.run(ctx, "npm", "search", "--json", query)
	if err != nil {
		return nil, err
	}
	return parseNpmSearch(out, "bun")
}

func (m *bunManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "npm", "view", name, "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmInfo(out, "bun", name)
}

func (m *bunManager) Install(ctx context.Context, name, version string, force bool) error {
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

func (m *bunManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, m.args("update", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *bunManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, m.args("remove", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *bunManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	out, err := m.run.output(ctx, m.args("outdated")...)
	if err != nil {
		return nil, err
	}
	return parseBunOutdated(out, "bun"), nil
}

func (m *bunManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "bun", "pm", "cache", "rm")
	return err
}

// parseBunList reads bun pm ls tree output:
//
//	/path/to/project node_modules (34)
//	├── typescript@5.4.2
//	└── zod@3.22.4
func parseBunList(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimLeft(line, "├└│─ ")
		if line == "" || !strings.Contains(line, "@") {
			continue
		}
		name, version := splitNameVersion(line)
		if name == "" || version == "" {
			continue
		}
		pkgs = append(pkgs, domain.Package{Name: name, Version: version, Manager: manager})
	}
	return pkgs
}

// parseBunOutdated reads bun's box-drawn outdated table. Data rows look
// like "| zod | 3.22.0 | 3.22.4 | 3.23.8 |" once the frame is stripped.
func parseBunOutdated(out, manager string) []domain.Package {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || !strings.ContainsAny(line, "|│") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == '|' || r == '│' })
		var cells []string
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				cells = append(cells, f)
			}
		}
		if len(cells) < 4 || cells[0] == "Package" || strings.HasPrefix(cells[0], "-") {
			continue
		}
		pkgs = append(pkgs, domain.Package{
			Name:          cells[0],
			Version:       cells[1],
			Manager:       manager,
			Outdated:      true,
			LatestVersion: cells[3],
		})
	}
	return pkgs
}
