package storage

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// GetOutDir resolves the directory a bench run writes its logs and
// summary to. An empty request means the current working directory,
// anything else is created on demand and returned as an absolute path
// so log paths stay valid after a later chdir.
func GetOutDir(requestedDir string, fs *afero.Afero) (string, error) {
	if requestedDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.WithStack(err)
		}
		return cwd, nil
	}

	absDir, err := filepath.Abs(requestedDir)
	if err != nil {
		return requestedDir, errors.WithStack(err)
	}
	if err := fs.MkdirAll(absDir, 0o755); err != nil {
		return absDir, errors.WithStack(err)
	}
	return absDir, nil
}
