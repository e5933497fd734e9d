package managers

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// yarnManager targets classic yarn, whose JSON surfaces are line-delimited
// event streams rather than single documents.
type yarnManager struct {
	base
	scope domain.Scope
}

func newYarn(deps Deps, scope domain.Scope) *yarnManager {
	return &yarnManager{
		base: newBase("yarn", scope.Qualify("yarn"),
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

func (m *yarnManager) args(rest ...string) []string {
	out := []string{"yarn"}
	if m.scope.Global {
		out = append(out, "global")
	}
	return append(out, rest...)
}

func (m *yarnManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "yarn", "--version")
}

func (m *yarnManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.output(ctx, m.args("list", "--json", "--depth=0")...)
		if err != nil {
			return nil, err
		}
		return parseYarnList(out, "yarn")
	})
}

func (m *yarnManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	// yarn has no search of its own; the npm registry answer is identical.
	out, err := m.run.run(ctx, "npm", "search", "--json", query)
	if err != nil {
		return nil, err
	}
	return parseNpmSearch(out, "yarn")
}

func (m *yarnManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "yarn", "info", name, "--json")
	if err != nil {
		return nil, err
	}
	return parseYarnInfo(out, "yarn", name)
}

func (m *yarnManager) Install(ctx context.Context, name, version string, force bool) error {
	if _, err := m.run.run(ctx, m.args("add", versionedName(name, version, "@"))...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *yarnManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, m.args("upgrade", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *yarnManager) Uninstall(ctx context.Context, name string, force bool) error {
	if _, err := m.run.run(ctx, m.args("remove", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *yarnManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	// yarn outdated exits 1 when anything is outdated.
	out, err := m.run.output(ctx, m.args("outdated", "--json")...)
	if err != nil {
		return nil, err
	}
	return parseYarnOutdated(out, "yarn")
}

func (m *yarnManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "yarn", "cache", "clean")
	return err
}

func (m *yarnManager) ListDependencies(ctx context.Context, name string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "npm", "view", name, "dependencies", "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmDependencies(out, "yarn")
}

type yarnEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// yarnTreeData is the payload of a {"type":"tree"} event from yarn list.
type yarnTreeData struct {
	Trees []struct {
		Name string `json:"name"`
	} `json:"trees"`
}

func parseYarnList(out, manager string) ([]domain.Package, error) {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev yarnEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, &domain.ParseError{Manager: manager, Input: line}
		}
		if ev.Type != "tree" {
			continue
		}
		var tree yarnTreeData
		if err := json.Unmarshal(ev.Data, &tree); err != nil {
			return nil, &domain.ParseError{Manager: manager, Input: line}
		}
		for _, node := range tree.Trees {
			// Tree names carry the resolved version: "left-pad@1.3.0",
			// "@types/node@20.1.0".
			name, version := splitNameVersion(node.Name)
			if name == "" {
				continue
			}
			pkgs = append(pkgs, domain.Package{Name: name, Version: version, Manager: manager})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}
	return pkgs, nil
}

func parseYarnInfo(out, manager, name string) (*domain.Package, error) {
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev yarnEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, &domain.ParseError{Manager: manager, Input: line}
		}
		if ev.Type != "inspect" {
			continue
		}
		pkg, err := parseNpmInfo(string(ev.Data), manager, name)
		if err != nil {
			return nil, err
		}
		return pkg, nil
	}
	return nil, &domain.PackageNotFoundError{Manager: manager, Package: name}
}

// yarnOutdatedData is the payload of a {"type":"table"} event from yarn
// outdated. Rows are positional: name, current, wanted, latest, ...
type yarnOutdatedData struct {
	Body [][]string `json:"body"`
}

func parseYarnOutdated(out, manager string) ([]domain.Package, error) {
	var pkgs []domain.Package
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ev yarnEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, &domain.ParseError{Manager: manager, Input: line}
		}
		if ev.Type != "table" {
			continue
		}
		var table yarnOutdatedData
		if err := json.Unmarshal(ev.Data, &table); err != nil {
			return nil, &domain.ParseError{Manager: manager, Input: line}
		}
		for _, row := range table.Body {
			if len(row) < 4 {
				continue
			}
			pkgs = append(pkgs, domain.Package{
				Name:          row[0],
				Version:       row[1],
				Manager:       manager,
				Outdated:      true,
				LatestVersion: row[3],
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}
	return pkgs, nil
}

// splitNameVersion splits "name@version", keeping the leading @ of scoped
// npm packages attached to the name.
func splitNameVersion(s string) (string, string) {
	idx := strings.LastIndex(s, "@")
	if idx <= 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
