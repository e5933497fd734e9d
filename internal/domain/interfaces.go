package domain

import (
	"context"
	"slices"
)

// PackageManager is the fixed capability surface every backend adapter
// implements. Adapters invoke their native command-line tool and parse its
// output; the engine never speaks any manager's wire format itself.
type PackageManager interface {
	Name() string

	// CacheKey identifies this manager+scope's cached listing.
	CacheKey() string

	// CheckAvailable probes whether the native tool is usable. Probes are
	// time-boxed far tighter than substantive operations.
	CheckAvailable(ctx context.Context) (bool, error)

	ListInstalled(ctx context.Context) ([]Package, error)
	Search(ctx context.Context, query string) ([]Package, error)
	GetInfo(ctx context.Context, name string) (*Package, error)
	Install(ctx context.Context, name, version string, force bool) error
	Upgrade(ctx context.Context, name string) error
	Uninstall(ctx context.Context, name string, force bool) error
	CheckOutdated(ctx context.Context) ([]Package, error)

	// CleanCache clears the native tool's own cache. Backends without an
	// equivalent return an UnsupportedOperationError.
	CleanCache(ctx context.Context) error

	// ListDependencies resolves a package's dependency list where the
	// backend can; otherwise UnsupportedOperationError.
	ListDependencies(ctx context.Context, name string) ([]Package, error)

	Capabilities() []Capability
}

// Supports reports whether the manager advertises the capability.
func Supports(m PackageManager, c Capability) bool {
	return slices.Contains(m.Capabilities(), c)
}
