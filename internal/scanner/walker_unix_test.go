//go:build !windows

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameDevice(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	rootInfo := getPlatformRootInfo(root)
	require.True(t, rootInfo.ok)

	info, err := os.Stat(sub)
	require.NoError(t, err)
	assert.True(t, sameDevice(info, rootInfo))

	// Another device is rejected
	assert.False(t, sameDevice(info, platformRootInfo{dev: rootInfo.dev + 1, ok: true}))

	// Without root info nothing is rejected
	assert.True(t, sameDevice(info, getPlatformRootInfo(filepath.Join(root, "gone"))))
}

func TestDirIdentity(t *testing.T) {
	root := t.TempDir()
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(root, link))

	direct, err := os.Stat(root)
	require.NoError(t, err)
	viaLink, err := os.Stat(link)
	require.NoError(t, err)

	a, ok := dirIdentity(direct)
	require.True(t, ok)
	b, ok := dirIdentity(viaLink)
	require.True(t, ok)
	assert.Equal(t, a, b)
}
