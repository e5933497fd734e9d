package managers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljiulong/boxyy/internal/domain"
)

func TestNewKnowsEveryRegisteredName(t *testing.T) {
	deps := testDeps(t, newFakeExec())
	for _, name := range Names {
		mgr, err := New(name, deps, domain.GlobalScope)
		require.NoError(t, err, name)
		assert.Equal(t, name, mgr.Name())
	}
}

func TestNewUnknownManager(t *testing.T) {
	_, err := New("nixpkgs", testDeps(t, newFakeExec()), domain.GlobalScope)
	var nf *domain.ManagerNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nixpkgs", nf.Name)
}

func TestListInstalledPopulatesAndServesCache(t *testing.T) {
	fx := newFakeExec()
	fx.stub("brew list --versions", "ripgrep 14.1.0\n")
	fx.stub("brew list --cask --versions", "")
	deps := testDeps(t, fx)

	mgr, err := New("brew", deps, domain.GlobalScope)
	require.NoError(t, err)

	first, err := mgr.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second listing must come from the cache, not another shell-out.
	second, err := mgr.ListInstalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fx.called("brew list --versions"))
}

func TestInstallInvalidatesListing(t *testing.T) {
	fx := newFakeExec()
	fx.stub("brew list --versions", "ripgrep 14.1.0\n")
	fx.stub("brew list --cask --versions", "")
	fx.stub("brew install fd", "")
	deps := testDeps(t, fx)

	mgr, err := New("brew", deps, domain.GlobalScope)
	require.NoError(t, err)

	_, err = mgr.ListInstalled(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Install(context.Background(), "fd", "", false))

	var cached []domain.Package
	hit, err := deps.Cache.Get(mgr.CacheKey(), &cached)
	require.NoError(t, err)
	assert.False(t, hit, "a mutation must drop the cached listing")
}

func TestNpmScopeChangesArgsAndKey(t *testing.T) {
	fx := newFakeExec()
	fx.stub("npm -g ls --json --depth=0", `{"dependencies":{"typescript":{"version":"5.4.2"}}}`)
	deps := testDeps(t, fx)

	global, err := New("npm", deps, domain.GlobalScope)
	require.NoError(t, err)
	assert.Equal(t, "npm-global", global.CacheKey())

	pkgs, err := global.ListInstalled(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	dir := t.TempDir()
	scope, err := domain.ParseScope("local", dir)
	require.NoError(t, err)
	local, err := New("npm", deps, scope)
	require.NoError(t, err)
	assert.NotEqual(t, global.CacheKey(), local.CacheKey())
	assert.Contains(t, local.CacheKey(), "npm-local-")
}

func TestDefaultUnsupportedOperations(t *testing.T) {
	deps := testDeps(t, newFakeExec())

	mas, err := New("mas", deps, domain.GlobalScope)
	require.NoError(t, err)
	assert.True(t, domain.IsUnsupported(mas.CleanCache(context.Background())))
	_, err = mas.ListDependencies(context.Background(), "497799835")
	assert.True(t, domain.IsUnsupported(err))

	pipx, err := New("pipx", deps, domain.GlobalScope)
	require.NoError(t, err)
	_, err = pipx.Search(context.Background(), "black")
	assert.True(t, domain.IsUnsupported(err))
	_, err = pipx.CheckOutdated(context.Background())
	assert.True(t, domain.IsUnsupported(err))
}

func TestCapabilitySets(t *testing.T) {
	deps := testDeps(t, newFakeExec())

	npm, err := New("npm", deps, domain.GlobalScope)
	require.NoError(t, err)
	assert.True(t, domain.Supports(npm, domain.CapQueryDependencies))

	mas, err := New("mas", deps, domain.GlobalScope)
	require.NoError(t, err)
	assert.False(t, domain.Supports(mas, domain.CapVersionSelection))
	assert.True(t, domain.Supports(mas, domain.CapSearchRemote))
}
