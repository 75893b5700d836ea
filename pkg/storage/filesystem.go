package storage

import (
	"github.com/spf13/afero"
)

// WrapFileSystem returns a wrapper for the os/host file system
func WrapFileSystem() *afero.Afero {
	return &afero.Afero{Fs: afero.NewOsFs()}
}

// NewMemFileSystem gives access to a memory based file system for using in tests
func NewMemFileSystem() *afero.Afero {
	return &afero.Afero{Fs: afero.NewMemMapFs()}
}

// NewReadOnlyFileSystem gives access to a read-only in-memory file
// system for testing error paths
func NewReadOnlyFileSystem() *afero.Afero {
	return &afero.Afero{Fs: afero.NewReadOnlyFs(afero.NewMemMapFs())}
}
