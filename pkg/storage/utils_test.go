package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOutDir(t *testing.T) {
	fs := NewMemFileSystem()
	outDir, err := GetOutDir("/logs", fs)
	assert.NoError(t, err)

	exists, err := fs.Exists(outDir)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestGetOutDir_Default(t *testing.T) {
	fs := NewMemFileSystem()
	outDir, err := GetOutDir("", fs)
	assert.NoError(t, err)

	cwd, err := os.Getwd()
	assert.NoError(t, err)
	assert.Equal(t, cwd, outDir)
}

func TestGetOutDir_NoPerm(t *testing.T) {
	fs := NewReadOnlyFileSystem()

	outDir, err := GetOutDir("/logs", fs)
	assert.Error(t, err)
	assert.Equal(t, "/logs", outDir)

	// directory should not exist
	exists, err := fs.Exists("/logs")
	assert.NoError(t, err)
	assert.False(t, exists)
}
