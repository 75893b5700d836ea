package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-atlanta/incbench/util/fileutil"
)

func TestFindConfigDir(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	err := os.MkdirAll(nested, 0o755)
	require.NoError(t, err)
	err = fileutil.Touch(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		err = os.Chdir(cwd)
		require.NoError(t, err)
	}()
	err = os.Chdir(nested)
	require.NoError(t, err)

	configDir, err := FindConfigDir()
	require.NoError(t, err)
	canonical, err := fileutil.CanonicalPath(dir)
	require.NoError(t, err)
	assert.Equal(t, canonical, configDir)
}

func TestFindConfigDir_NotFound(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		err = os.Chdir(cwd)
		require.NoError(t, err)
	}()
	err = os.Chdir(t.TempDir())
	require.NoError(t, err)

	_, err = FindConfigDir()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestIsValidKey(t *testing.T) {
	assert.True(t, isValidKey("registry"))
	assert.True(t, isValidKey("oss-fuzz-dir"))
	assert.True(t, isValidKey("source-dir"))
	assert.True(t, isValidKey("sanitizers"))
	assert.True(t, isValidKey("force-rebuild"))
	assert.False(t, isValidKey("registryy"))
	assert.False(t, isValidKey(""))
}
