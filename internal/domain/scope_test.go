package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScopeGlobal(t *testing.T) {
	for _, in := range []string{"", "global", "Global", " GLOBAL "} {
		scope, err := ParseScope(in, "")
		require.NoError(t, err, in)
		assert.True(t, scope.Global)
	}
}

func TestParseScopeLocal(t *testing.T) {
	dir := t.TempDir()
	scope, err := ParseScope("local", dir)
	require.NoError(t, err)
	assert.False(t, scope.Global)
	assert.Equal(t, dir, scope.Dir)
}

func TestParseScopeLocalRequiresDir(t *testing.T) {
	_, err := ParseScope("local", "")
	assert.Error(t, err)

	_, err = ParseScope("local", "/definitely/not/a/real/dir")
	assert.Error(t, err)
}

func TestParseScopeUnknown(t *testing.T) {
	_, err := ParseScope("workspace", "")
	assert.Error(t, err)
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "npm-global", GlobalScope.Qualify("npm"))

	a := Scope{Dir: "/home/dev/projecta"}.Qualify("npm")
	b := Scope{Dir: "/home/dev/projectb"}.Qualify("npm")
	assert.NotEqual(t, a, b, "different directories must not share a key")
	assert.Contains(t, a, "npm-local-")

	again := Scope{Dir: "/home/dev/projecta"}.Qualify("npm")
	assert.Equal(t, a, again, "keys must be deterministic")
}
