package managers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ljiulong/boxyy/internal/domain"
)

// brewManager drives Homebrew. Formula commands are tried first; on
// failure the cask variant is attempted, since the caller rarely knows
// which kind a name refers to.
type brewManager struct {
	base
}

func newBrew(deps Deps) *brewManager {
	return &brewManager{
		base: newBase("brew", "brew",
			[]domain.Capability{domain.CapListInstalled, domain.CapSearchRemote, domain.CapVersionSelection},
			deps, ""),
	}
}

func (m *brewManager) CheckAvailable(ctx context.Context) (bool, error) {
	return m.run.probe(ctx, "brew", "--version")
}

func (m *brewManager) ListInstalled(ctx context.Context) ([]domain.Package, error) {
	return m.listCached(ctx, func(ctx context.Context) ([]domain.Package, error) {
		out, err := m.run.run(ctx, "brew", "list", "--versions")
		if err != nil {
			return nil, err
		}
		pkgs := parseBrewVersions(out)

		// Casks are listed separately; a brew without any casks errors
		// here, which is fine to ignore.
		if caskOut, err := m.run.run(ctx, "brew", "list", "--cask", "--versions"); err == nil {
			pkgs = append(pkgs, parseBrewVersions(caskOut)...)
		}
		return pkgs, nil
	})
}

func (m *brewManager) Search(ctx context.Context, query string) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "brew", "search", query)
	if err != nil {
		return nil, err
	}

	var pkgs []domain.Package
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || strings.HasPrefix(name, "==>") {
			continue
		}
		pkgs = append(pkgs, domain.Package{Name: name, Manager: "brew"})
	}
	return pkgs, nil
}

func (m *brewManager) GetInfo(ctx context.Context, name string) (*domain.Package, error) {
	out, err := m.run.run(ctx, "brew", "info", "--json=v2", name)
	if err != nil {
		out, err = m.run.run(ctx, "brew", "info", "--json=v2", "--cask", name)
		if err != nil {
			return nil, err
		}
	}
	return parseBrewInfo(out, name)
}

func (m *brewManager) Install(ctx context.Context, name, version string, force bool) error {
	target := versionedName(name, version, "@")
	if _, err := m.run.run(ctx, "brew", "install", target); err != nil {
		if _, caskErr := m.run.run(ctx, "brew", "install", "--cask", name); caskErr != nil {
			return err
		}
	}
	m.invalidate()
	return nil
}

func (m *brewManager) Upgrade(ctx context.Context, name string) error {
	if _, err := m.run.run(ctx, "brew", "upgrade", name); err != nil {
		if _, caskErr := m.run.run(ctx, "brew", "upgrade", "--cask", name); caskErr != nil {
			return err
		}
	}
	m.invalidate()
	return nil
}

func (m *brewManager) Uninstall(ctx context.Context, name string, force bool) error {
	args := []string{"brew", "uninstall"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, name)
	if _, err := m.run.run(ctx, args...); err != nil {
		caskArgs := []string{"brew", "uninstall", "--cask"}
		if force {
			caskArgs = append(caskArgs, "--force")
		}
		caskArgs = append(caskArgs, name)
		if _, caskErr := m.run.run(ctx, caskArgs...); caskErr != nil {
			return err
		}
	}
	m.invalidate()
	return nil
}

func (m *brewManager) CheckOutdated(ctx context.Context) ([]domain.Package, error) {
	out, err := m.run.run(ctx, "brew", "outdated", "--verbose")
	if err != nil {
		return nil, err
	}
	return parseBrewOutdated(out), nil
}

func (m *brewManager) CleanCache(ctx context.Context) error {
	_, err := m.run.run(ctx, "brew", "cleanup")
	return err
}

// parseBrewVersions reads "name v1 [v2 ...]" lines from
// brew list --versions, keeping the first (current) version.
func parseBrewVersions(out string) []domain.Package {
	var pkgs []domain.Package
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}
		pkgs = append(pkgs, domain.Package{
			Name:    fields[0],
			Version: fields[1],
			Manager: "brew",
		})
	}
	return pkgs
}

// parseBrewOutdated reads "name (current) < latest" lines from
// brew outdated --verbose.
func parseBrewOutdated(out string) []domain.Package {
	var pkgs []domain.Package
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		pkg := domain.Package{Name: fields[0], Manager: "brew", Outdated: true}
		if len(fields) >= 4 && fields[2] == "<" {
			pkg.Version = strings.Trim(fields[1], "()")
			pkg.LatestVersion = fields[3]
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

type brewInfoOutput struct {
	Formulae []struct {
		Name     string `json:"name"`
		Desc     string `json:"desc"`
		Homepage string `json:"homepage"`
		License  string `json:"license"`
		Versions struct {
			Stable string `json:"stable"`
		} `json:"versions"`
		Installed []struct {
			InstalledSize int64 `json:"installed_size"`
		} `json:"installed"`
	} `json:"formulae"`
	Casks []struct {
		Token         string          `json:"token"`
		Desc          string          `json:"desc"`
		Homepage      string          `json:"homepage"`
		Version       json.RawMessage `json:"version"`
		InstalledSize int64           `json:"installed_size"`
	} `json:"casks"`
}

func parseBrewInfo(out, name string) (*domain.Package, error) {
	var info brewInfoOutput
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, &domain.ParseError{Manager: "brew", Input: out}
	}

	if len(info.Formulae) > 0 {
		f := info.Formulae[0]
		pkg := &domain.Package{
			Name:        f.Name,
			Version:     f.Versions.Stable,
			Manager:     "brew",
			Description: f.Desc,
			Homepage:    f.Homepage,
			License:     f.License,
		}
		if pkg.Name == "" {
			pkg.Name = name
		}
		if len(f.Installed) > 0 {
			pkg.Size = f.Installed[0].InstalledSize * 1024
		}
		return pkg, nil
	}

	if len(info.Casks) > 0 {
		c := info.Casks[0]
		var version string
		if err := json.Unmarshal(c.Version, &version); err != nil {
			var versions []string
			if json.Unmarshal(c.Version, &versions) == nil {
				version = strings.Join(versions, ", ")
			}
		}
		pkg := &domain.Package{
			Name:        c.Token,
			Version:     version,
			Manager:     "brew",
			Description: c.Desc,
			Homepage:    c.Homepage,
			Size:        c.InstalledSize * 1024,
		}
		if pkg.Name == "" {
			pkg.Name = name
		}
		return pkg, nil
	}

	return nil, &domain.PackageNotFoundError{Manager: "brew", Package: name}
}
