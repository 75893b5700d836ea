package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	err := os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("hello\n"), 0o644)
	require.NoError(t, err)
	require.NoError(t, CommitAll(dir, "initial commit"))
	return dir
}

func TestIsRepository(t *testing.T) {
	dir := initRepo(t)
	assert.True(t, IsRepository(dir))
	assert.False(t, IsRepository(t.TempDir()))

	// a .git regular file (worktree pointer) is not a checkout root
	linked := t.TempDir()
	err := os.WriteFile(filepath.Join(linked, ".git"), []byte("gitdir: elsewhere\n"), 0o644)
	require.NoError(t, err)
	assert.False(t, IsRepository(linked))
}

func TestIsDirtyAndResetHard(t *testing.T) {
	dir := initRepo(t)
	assert.False(t, IsDirty(dir))

	err := os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("changed\n"), 0o644)
	require.NoError(t, err)
	assert.True(t, IsDirty(dir))

	files, err := DiffNameOnly(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting.txt"}, files)

	require.NoError(t, ResetHard(dir, ""))
	assert.False(t, IsDirty(dir))

	content, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestResetHardToRef(t *testing.T) {
	dir := initRepo(t)
	first, err := Commit(dir)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "greeting.txt"), []byte("second\n"), 0o644)
	require.NoError(t, err)
	require.NoError(t, CommitAll(dir, "second commit"))

	second, err := Commit(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, ResetHard(dir, first))
	head, err := Commit(dir)
	require.NoError(t, err)
	assert.Equal(t, first, head)
}

func TestApply(t *testing.T) {
	dir := initRepo(t)

	patch := `--- a/greeting.txt
+++ b/greeting.txt
@@ -1 +1 @@
-hello
+goodbye
`
	patchPath := filepath.Join(t.TempDir(), "fix.diff")
	require.NoError(t, os.WriteFile(patchPath, []byte(patch), 0o644))

	require.NoError(t, Apply(dir, patchPath))

	content, err := os.ReadFile(filepath.Join(dir, "greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "goodbye\n", string(content))
}
