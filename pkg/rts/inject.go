package rts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/vcs"
	"github.com/team-atlanta/incbench/util/fileutil"
	"github.com/team-atlanta/incbench/util/sliceutil"
)

// TestScriptPath is where the build containers stage the project's test
// driver script after the source sync.
const TestScriptPath = "/built-src/test.sh"

// Directories the selection tools leave behind between runs. Stale state
// invalidates their change tracking, so injection starts from a clean
// slate.
var trackerDirs = []string{".ekstazi", ".jcg", "diffLog", "classes-javacg_merged.jar-output_javacg"}

type InjectOptions struct {
	ProjectDir string
	// Project names the per-project surefire exclude file. Defaults to
	// the base name of ProjectDir.
	Project string
	Tool    string
	// TestScript is scanned for INCLUDE_TESTS/EXCLUDE_TESTS declarations.
	// Defaults to TestScriptPath.
	TestScript string
}

// Inject configures the selection tool in all Maven build descriptors
// below the project directory and commits the result, so later patch
// diffs stay scoped to the patch. Tools which are provisioned with the
// runner image need no per-project setup and return immediately.
func Inject(opts *InjectOptions) error {
	switch opts.Tool {
	case ToolNone:
		log.Debugf("RTS disabled, nothing to inject")
		return nil
	case ToolBinaryRTS:
		log.Infof("%s is provisioned with the runner image, no project setup required", opts.Tool)
		return nil
	}
	if !IsMavenTool(opts.Tool) {
		return errors.Errorf("unknown RTS tool: %s", opts.Tool)
	}

	projectDir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return errors.WithStack(err)
	}
	if !fileutil.IsDir(projectDir) {
		return errors.Errorf("project directory %s does not exist", projectDir)
	}
	project := opts.Project
	if project == "" {
		project = filepath.Base(projectDir)
	}
	testScript := opts.TestScript
	if testScript == "" {
		testScript = TestScriptPath
	}

	pomFiles, err := FindPOMFiles(projectDir)
	if err != nil {
		return err
	}
	if len(pomFiles) == 0 {
		return errors.Errorf("no pom.xml files found in %s", projectDir)
	}
	log.Infof("Configuring %s in %d pom.xml file(s)", opts.Tool, len(pomFiles))

	removeDirsNamed(projectDir, trackerDirs)

	if opts.Tool != ToolOpenClover {
		err = InstallMavenArtifacts(opts.Tool)
		if err != nil {
			return err
		}
	}

	for _, pomPath := range pomFiles {
		err = InjectPOM(pomPath, project, opts.Tool)
		if err != nil {
			log.Warnf("Failed to configure %s: %v", pomPath, err)
		}
	}

	includes, excludes := ParseTestScriptPatterns(testScript)
	if opts.Tool == ToolOpenClover {
		excludes = append(excludes, openCloverExcludePattern)
	}
	for _, pomPath := range pomFiles {
		err = AddSurefireIncludes(pomPath, includes)
		if err != nil {
			log.Warnf("Failed to add includes to %s: %v", pomPath, err)
		}
		err = AddSurefireExcludes(pomPath, excludes)
		if err != nil {
			log.Warnf("Failed to add excludes to %s: %v", pomPath, err)
		}
	}

	return vcs.CommitAll(projectDir, fmt.Sprintf("[RTS] Configure %s for regression test selection", opts.Tool))
}

// Cleanup removes all selection tool state from the project tree.
func Cleanup(projectDir string) error {
	if !fileutil.IsDir(projectDir) {
		return errors.Errorf("project directory %s does not exist", projectDir)
	}
	removeDirsNamed(projectDir, append(trackerDirs, jcgConfigDirName))
	return nil
}

// FindPOMFiles returns all Maven build descriptors below dir, skipping
// build output and hidden directories.
func FindPOMFiles(dir string) ([]string, error) {
	matches, err := zglob.Glob(filepath.Join(dir, "**", "pom.xml"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var pomFiles []string
	for _, match := range matches {
		rel, err := filepath.Rel(dir, match)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if inSkippedDir(rel) {
			continue
		}
		pomFiles = append(pomFiles, match)
	}
	sort.Strings(pomFiles)
	return pomFiles, nil
}

func inSkippedDir(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	for _, part := range parts[:len(parts)-1] {
		if part == "target" || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func removeDirsNamed(root string, names []string) {
	var doomed []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != root && d.IsDir() && sliceutil.Contains(names, d.Name()) {
			doomed = append(doomed, path)
			return filepath.SkipDir
		}
		return nil
	})
	for _, path := range doomed {
		log.Debugf("Removing %s", path)
		err := os.RemoveAll(path)
		if err != nil {
			log.Warnf("Failed to remove %s: %v", path, err)
		}
	}
}
