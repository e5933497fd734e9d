package managers

import (
	"context"
	"encoding/json"

	"github.com/ljiulong/boxyy/internal/domain"
)

// npmManager drives npm in either global or per-project scope. Local
// instances run inside the scope's working directory and cache under a
// directory-qualified key so projects never shadow each other.
type npmManager struct {
	base
	scope domain.Scope
}

func newNpm(deps Deps, scope domain.Scope) *npmManager {
	return &npmManager{
		base: newBase("npm", scope.Qualify("npm"),
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

// args prepends -g in global scope, matching how npm selects its tree.
func (m *npmManager) args(rest ...string) []string {
	out := []string{"npm"}
	if m.scope.Global {
		out = append(out, "-g")
	}
	return append(out, rest...)
}

func (m *npmManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "npm", "--version")
}

func (m *npmManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		// npm ls exits non-zero on peer-dependency noise while still
		// printing the full tree.
		out, err := m.run.output(ctx, m.args("ls", "--json", "--depth=0")...)
		if err != nil {
			return nil, err
		}
		return parseNpmList(out, "npm")
	})
}

func (m *npmManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "npm", "search", "--json", query)
	if err != nil {
		return nil, err
	}
	return parseNpmSearch(out, "npm")
}

func (m *npmManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "npm", "view", name, "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmInfo(out, "npm", name)
}

func (m *npmManager) Install(ctx context.Context, name, version string, force bool) error {
	rest := []string{"install", versionedName(name, version, "@")}
	if force {
		rest = append(rest, "--force")
	}
	if _, err := m.run.run(ctx, m.args(rest...)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *npmManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, m.args("update", name)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *npmManager) Uninstall(ctx context.Context, name string, force bool) error {
	rest := []string{"uninstall", name}
	if force {
		rest = append(rest, "--force")
	}
	if _, err := m.run.run(ctx, m.args(rest...)...); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

func (m *npmManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	// npm outdated exits 1 whenever something is outdated.
	out, err := m.run.output(ctx, m.args("outdated", "--json")...)
	if err != nil {
		return nil, err
	}
	return parseNpmOutdated(out, "npm")
}

func (m *npmManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "npm", "cache", "clean", "--force")
	return err
}

func (m *npmManager) ListDependencies(ctx context.Context, name string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "npm", "view", name, "dependencies", "--json")
	if err != nil {
		return nil, err
	}
	return parseNpmDependencies(out, "npm")
}

type npmListOutput struct {
	Dependencies map[string]struct {
		Version string `json:"version"`
	} `json:"dependencies"`
}

func parseNpmList(out, manager string) ([]domain.Package, error) {
	var listed npmListOutput
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}

	pkgs := make([]domain.Package, 0, len(listed.Dependencies))
	for name, dep := range listed.Dependencies {
		pkgs = append(pkgs, domain.Package{
			Name:    name,
			Version: dep.Version,
			Manager: manager,
		})
	}
	return pkgs, nil
}

// parseNpmSearch accepts every shape npm and its clones emit: a bare
// array, {objects: [{package: ...}]}, or {results: [...]}.
func parseNpmSearch(out, manager string) ([]domain.Package, error) {
	var raw any
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}

	items, ok := raw.([]any)
	if !ok {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, &domain.ParseError{Manager: manager, Input: out}
		}
		if list, ok := obj["objects"].([]any); ok {
			items = list
		} else if list, ok := obj["results"].([]any); ok {
			items = list
		}
	}

	var pkgs []domain.Package
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if wrapped, ok := entry["package"].(map[string]any); ok {
			entry = wrapped
		}
		name, _ := entry["name"].(string)
		version, _ := entry["version"].(string)
		if name == "" {
			continue
		}
		desc, _ := entry["description"].(string)
		pkgs = append(pkgs, domain.Package{
			Name:        name,
			Version:     version,
			Manager:     manager,
			Description: desc,
		})
	}
	return pkgs, nil
}

type npmInfoOutput struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
	License     string `json:"license"`
}

func parseNpmInfo(out, manager, name string) (*domain.Package, error) {
	var info npmInfoOutput
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}
	if info.Name == "" {
		return nil, &domain.PackageNotFoundError{Manager: manager, Package: name}
	}
	return &domain.Package{
		Name:        info.Name,
		Version:     info.Version,
		Manager:     manager,
		Description: info.Description,
		Homepage:    info.Homepage,
		License:     info.License,
	}, nil
}

type npmOutdatedEntry struct {
	Current string `json:"current"`
	Latest  string `json:"latest"`
}

func parseNpmOutdated(out, manager string) ([]domain.Package, error) {
	if out == "" || out == "{}" {
		return nil, nil
	}
	var outdated map[string]npmOutdatedEntry
	if err := json.Unmarshal([]byte(out), &outdated); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}

	var pkgs []domain.Package
	for name, entry := range outdated {
		pkgs = append(pkgs, domain.Package{
			Name:          name,
			Version:       entry.Current,
			Manager:       manager,
			Outdated:      true,
			LatestVersion: entry.Latest,
		})
	}
	return pkgs, nil
}

func parseNpmDependencies(out, manager string) ([]domain.Package, error) {
	if out == "" {
		return nil, nil
	}
	var deps map[string]string
	if err := json.Unmarshal([]byte(out), &deps); err != nil {
		return nil, &domain.ParseError{Manager: manager, Input: out}
	}

	var pkgs []domain.Package
	for name, version := range deps {
		pkgs = append(pkgs, domain.Package{Name: name, Version: version, Manager: manager})
	}
	return pkgs, nil
}
