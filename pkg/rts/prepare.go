package rts

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/vcs"
	"github.com/team-atlanta/incbench/util/fileutil"
)

const jcgConfigDirName = "jcg_config"

// Fixed call graph parser settings for JcgEks. Only the output root is
// project specific.
var jcgParserSettings = []string{
	"parse.method.call.type.value=true",
	"first.parse.init.method.type=true",
	"continue.when.error=true",
	"debug.print=false",
}

// Prepare refreshes the per-run state of the selection tool. It runs
// after a patch is applied and before the test suite, so the tool sees
// the current set of modified sources. Patches are expected to be
// applied without a commit, uncommitted changes are what counts as
// modified.
func Prepare(projectDir, tool string) error {
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return errors.WithStack(err)
	}
	if !fileutil.IsDir(projectDir) {
		return errors.Errorf("project directory %s does not exist", projectDir)
	}

	switch tool {
	case ToolJcgEks:
		return generateJcgConfig(projectDir)
	case ToolEkstazi:
		removeStaleExcludesFile(projectDir, tool)
		return nil
	case ToolOpenClover:
		// Selection state lives in ${user.home}/.clover/clover.snapshot
		// and is managed by the plugin itself.
		return nil
	case ToolBinaryRTS, ToolNone:
		return nil
	default:
		return errors.Errorf("unknown RTS tool: %s", tool)
	}
}

func removeStaleExcludesFile(projectDir, tool string) {
	excludesFile := excludesFilePath(filepath.Base(projectDir), tool)
	err := os.Remove(excludesFile)
	if err == nil {
		log.Debugf("Removed stale excludes file %s", excludesFile)
	}
}

// generateJcgConfig rebuilds the jcg_config directory JcgEks reads its
// settings from. The config describes where compiled classes live, which
// packages exist and which classes the current patch touched.
func generateJcgConfig(projectDir string) error {
	removeStaleExcludesFile(projectDir, ToolJcgEks)

	configDir := filepath.Join(projectDir, jcgConfigDirName)
	err := os.RemoveAll(configDir)
	if err != nil {
		return errors.WithStack(err)
	}
	err = os.MkdirAll(configDir, 0755)
	if err != nil {
		return errors.WithStack(err)
	}

	err = writeConfigProperties(configDir, projectDir)
	if err != nil {
		return err
	}
	err = writeJarDirProperties(configDir, projectDir)
	if err != nil {
		return err
	}
	err = os.WriteFile(filepath.Join(configDir, "packages.properties"), []byte("\n"), 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	err = writePackageList(configDir, projectDir)
	if err != nil {
		return err
	}
	return writeModifiedClassList(configDir, projectDir)
}

func writeConfigProperties(configDir, projectDir string) error {
	lines := append([]string{}, jcgParserSettings...)
	lines = append(lines,
		"output.root.path="+projectDir,
		"output.file.ext=",
	)
	err := os.WriteFile(filepath.Join(configDir, "config.properties"),
		[]byte(strings.Join(lines, "\n")+"\n"), 0644)
	return errors.WithStack(err)
}

// writeJarDirProperties lists all target/classes and target/test-classes
// directories, classes first.
func writeJarDirProperties(configDir, projectDir string) error {
	classDirs, err := zglob.Glob(filepath.Join(projectDir, "**", "target", "classes"))
	if err != nil {
		return errors.WithStack(err)
	}
	testClassDirs, err := zglob.Glob(filepath.Join(projectDir, "**", "target", "test-classes"))
	if err != nil {
		return errors.WithStack(err)
	}

	var sb strings.Builder
	for _, dir := range classDirs {
		if strings.Contains(dir, "test-classes") || !fileutil.IsDir(dir) {
			continue
		}
		sb.WriteString(dir + "\n")
	}
	for _, dir := range testClassDirs {
		if !fileutil.IsDir(dir) {
			continue
		}
		sb.WriteString(dir + "\n")
	}

	err = os.WriteFile(filepath.Join(configDir, "jar_dir.properties"), []byte(sb.String()), 0644)
	return errors.WithStack(err)
}

func writePackageList(configDir, projectDir string) error {
	classFiles, err := zglob.Glob(filepath.Join(projectDir, "**", "*.class"))
	if err != nil {
		return errors.WithStack(err)
	}

	packages := make(map[string]struct{})
	for _, classFile := range classFiles {
		pkg, ok := packageOfClassFile(filepath.ToSlash(classFile))
		if ok {
			packages[pkg] = struct{}{}
		}
	}

	names := make([]string, 0, len(packages))
	for pkg := range packages {
		names = append(names, pkg)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, pkg := range names {
		sb.WriteString(pkg + "\n")
	}
	log.Debugf("Found %d package(s) below %s", len(names), projectDir)

	err = os.WriteFile(filepath.Join(configDir, "package_list.txt"), []byte(sb.String()), 0644)
	return errors.WithStack(err)
}

// packageOfClassFile maps a compiled class below target/classes or
// target/test-classes to its package directory with a trailing slash.
// Classes in the default package map to "/".
func packageOfClassFile(classFile string) (string, bool) {
	for _, marker := range []string{"target/test-classes/", "target/classes/"} {
		_, rel, found := strings.Cut(classFile, marker)
		if !found {
			continue
		}
		pkg := path.Dir(rel)
		if pkg == "." {
			return "/", true
		}
		return pkg + "/", true
	}
	return "", false
}

// writeModifiedClassList records the class paths of uncommitted .java
// changes, e.g. src/main/java/com/example/MyClass.java becomes
// com/example/MyClass. Outside a git repository the list is empty and
// the tool falls back to running everything.
func writeModifiedClassList(configDir, projectDir string) error {
	var classPaths []string

	changedFiles, err := vcs.DiffNameOnly(projectDir)
	if err != nil {
		log.Debugf("Could not determine modified files: %v", err)
	}
	for _, file := range changedFiles {
		if !strings.HasSuffix(file, ".java") {
			continue
		}
		parts := strings.Split(file, "/java/")
		if len(parts) < 2 {
			continue
		}
		classPaths = append(classPaths, strings.TrimSuffix(parts[len(parts)-1], ".java"))
	}

	var sb strings.Builder
	for _, classPath := range classPaths {
		sb.WriteString(classPath + "\n")
	}
	log.Debugf("Found %d modified Java file(s)", len(classPaths))

	err = os.WriteFile(filepath.Join(configDir, "java_modify.txt"), []byte(sb.String()), 0644)
	return errors.WithStack(err)
}
