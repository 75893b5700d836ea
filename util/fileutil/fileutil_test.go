package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouch(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "touched")
	err := Touch(path)
	require.NoError(t, err)

	exists, err := Exists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	// Touching an existing file must not fail
	err = Touch(path)
	require.NoError(t, err)
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	exists, err := Exists(filepath.Join(tmpDir, "nope"))
	require.NoError(t, err)
	assert.False(t, exists)

	err = os.WriteFile(filepath.Join(tmpDir, "yes"), []byte("x"), 0644)
	require.NoError(t, err)
	exists, err = Exists(filepath.Join(tmpDir, "yes"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIsDir(t *testing.T) {
	tmpDir := t.TempDir()
	assert.True(t, IsDir(tmpDir))

	path := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.False(t, IsDir(path))
	assert.False(t, IsDir(filepath.Join(tmpDir, "missing")))
}

func TestCopyFile(t *testing.T) {
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "src")
	dest := filepath.Join(tmpDir, "dest")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))

	err := CopyFile(src, dest, 0644)
	require.NoError(t, err)

	bytes, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content", string(bytes))
}
