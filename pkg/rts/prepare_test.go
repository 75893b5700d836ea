package rts

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-atlanta/incbench/pkg/vcs"
)

// initMavenProject lays out a minimal built Maven tree inside a git
// repository: one committed source file plus compiled classes.
func initMavenProject(t *testing.T) string {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}

	dir := t.TempDir()
	cmd := exec.Command("git", "init", "-q")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	sources := []string{
		"src/main/java/com/example/Greeter.java",
		"src/test/java/com/example/GreeterTest.java",
	}
	classes := []string{
		"target/classes/com/example/Greeter.class",
		"target/classes/RootClass.class",
		"target/test-classes/com/example/GreeterTest.class",
	}
	for _, name := range sources {
		writeProjectFile(t, dir, name, "package com.example;\npublic class Thing {}\n")
	}
	for _, name := range classes {
		writeProjectFile(t, dir, name, "\xca\xfe\xba\xbe")
	}
	require.NoError(t, vcs.CommitAll(dir, "initial commit"))
	return dir
}

func writeProjectFile(t *testing.T, dir, name, content string) {
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readConfigFile(t *testing.T, projectDir, name string) string {
	content, err := os.ReadFile(filepath.Join(projectDir, jcgConfigDirName, name))
	require.NoError(t, err)
	return string(content)
}

func TestPrepare_JcgEksGeneratesConfig(t *testing.T) {
	projectDir := initMavenProject(t)

	// An uncommitted change is what the selection tool must pick up.
	greeter := filepath.Join(projectDir, "src", "main", "java", "com", "example", "Greeter.java")
	err := os.WriteFile(greeter, []byte("package com.example;\npublic class Greeter { int x; }\n"), 0644)
	require.NoError(t, err)

	require.NoError(t, Prepare(projectDir, ToolJcgEks))

	config := readConfigFile(t, projectDir, "config.properties")
	assert.Contains(t, config, "parse.method.call.type.value=true\n")
	assert.Contains(t, config, "output.root.path="+projectDir+"\n")
	assert.Contains(t, config, "output.file.ext=\n")

	jarDirs := readConfigFile(t, projectDir, "jar_dir.properties")
	assert.Equal(t, filepath.Join(projectDir, "target", "classes")+"\n"+
		filepath.Join(projectDir, "target", "test-classes")+"\n", jarDirs)

	assert.Equal(t, "\n", readConfigFile(t, projectDir, "packages.properties"))

	// RootClass.class lives in the default package, which is recorded as
	// a bare slash.
	packages := readConfigFile(t, projectDir, "package_list.txt")
	assert.Equal(t, "/\ncom/example/\n", packages)

	modified := readConfigFile(t, projectDir, "java_modify.txt")
	assert.Equal(t, "com/example/Greeter\n", modified)
}

func TestPrepare_JcgEksReplacesPreviousConfig(t *testing.T) {
	projectDir := initMavenProject(t)

	stale := filepath.Join(projectDir, jcgConfigDirName, "stale.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	require.NoError(t, Prepare(projectDir, ToolJcgEks))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(projectDir, jcgConfigDirName, "config.properties"))
}

func TestPrepare_EkstaziRemovesStaleExcludes(t *testing.T) {
	projectDir := t.TempDir()

	excludesFile := excludesFilePath(filepath.Base(projectDir), ToolEkstazi)
	require.NoError(t, os.WriteFile(excludesFile, []byte("**/Excluded.java\n"), 0644))
	t.Cleanup(func() { _ = os.Remove(excludesFile) })

	require.NoError(t, Prepare(projectDir, ToolEkstazi))

	_, err := os.Stat(excludesFile)
	assert.True(t, os.IsNotExist(err))
}

func TestPrepare_OpenCloverAndBinaryRTSAreNoops(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, Prepare(projectDir, ToolOpenClover))
	require.NoError(t, Prepare(projectDir, ToolBinaryRTS))
	require.NoError(t, Prepare(projectDir, ToolNone))
}

func TestPrepare_UnknownTool(t *testing.T) {
	err := Prepare(t.TempDir(), "mysteryrts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown RTS tool")
}

func TestCleanup_RemovesTrackerDirs(t *testing.T) {
	projectDir := t.TempDir()

	for _, sub := range []string{".ekstazi", "module/.jcg", "diffLog", "jcg_config", "src/main"} {
		dir := filepath.Join(projectDir, filepath.FromSlash(sub))
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "state.bin"), []byte("x"), 0644))
	}

	require.NoError(t, Cleanup(projectDir))

	for _, sub := range []string{".ekstazi", "module/.jcg", "diffLog", "jcg_config"} {
		_, err := os.Stat(filepath.Join(projectDir, filepath.FromSlash(sub)))
		assert.True(t, os.IsNotExist(err), "%s should be removed", sub)
	}
	// Everything else stays untouched.
	assert.FileExists(t, filepath.Join(projectDir, "src", "main", "state.bin"))
}

func TestPackageOfClassFile(t *testing.T) {
	testCases := []struct {
		classFile string
		pkg       string
		found     bool
	}{
		{"/p/target/classes/com/example/Foo.class", "com/example/", true},
		{"/p/target/test-classes/com/example/FooTest.class", "com/example/", true},
		{"/p/target/classes/Root.class", "/", true},
		{"/p/build/com/example/Foo.class", "", false},
	}
	for _, tc := range testCases {
		pkg, found := packageOfClassFile(tc.classFile)
		assert.Equal(t, tc.found, found, tc.classFile)
		assert.Equal(t, tc.pkg, pkg, tc.classFile)
	}
}

func TestInject_BinaryRTSNeedsNoProjectSetup(t *testing.T) {
	err := Inject(&InjectOptions{ProjectDir: t.TempDir(), Tool: ToolBinaryRTS})
	require.NoError(t, err)
}

func TestInject_FailsWithoutPOMFiles(t *testing.T) {
	err := Inject(&InjectOptions{ProjectDir: t.TempDir(), Tool: ToolJcgEks})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pom.xml files")
}

func TestInject_UnknownTool(t *testing.T) {
	err := Inject(&InjectOptions{ProjectDir: t.TempDir(), Tool: "mysteryrts"})
	require.Error(t, err)
}
