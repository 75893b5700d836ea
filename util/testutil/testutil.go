package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/otiai10/copy"
	"github.com/stretchr/testify/require"
)

// RegisterTestDeps ensures that the test calling this function is rerun (despite caching) if any of the files and
// directories (and their recursive contents) under the provided paths change.
func RegisterTestDeps(path ...string) {
	// Workaround for https://github.com/golang/go/issues/53053
	// Explicitly stat all data dirs and files so that the Go test runner picks up the data dependency and knows how to
	// rerun the test if the data dir contents change. Without this explicit recursive walk, changes to files in
	// subdirectories aren't picked up automatically.
	for _, p := range path {
		err := filepath.Walk(p, func(path string, info fs.FileInfo, _ error) error {
			_, err := os.Stat(path)
			if err != nil {
				// Fail hard if the declared test dep does not exist.
				panic(err)
			}
			return nil
		})
		if err != nil {
			panic(err)
		}
	}
}

// CopyTestdataDir copies testdata/<name> into a fresh temp directory so
// tests can mutate the tree without touching the checked-in fixture.
func CopyTestdataDir(t *testing.T, name string) string {
	src := filepath.Join("testdata", name)
	RegisterTestDeps(src)

	dir := t.TempDir()
	err := copy.Copy(src, dir)
	require.NoError(t, err)
	return dir
}

// WriteFileTree creates the given relative-path -> content files below
// root, creating parent directories as needed.
func WriteFileTree(t *testing.T, root string, files map[string]string) {
	for rel, content := range files {
		path := filepath.Join(root, rel)
		err := os.MkdirAll(filepath.Dir(path), 0755)
		require.NoError(t, err)
		err = os.WriteFile(path, []byte(content), 0644)
		require.NoError(t, err)
	}
}
