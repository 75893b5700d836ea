package vcs

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/fileutil"
)

// Commit returns the full SHA of the current commit of the Git
// repository at dir.
func Commit(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	commit, err := cmd.Output()
	if err != nil {
		return "", errors.WithStack(err)
	}
	log.Debugf("Current Git commit in %s: %s", dir, string(commit))
	return strings.TrimSpace(string(commit)), nil
}

// Branch returns the name of the current branch of the Git repository
// at dir.
func Branch(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	branch, err := cmd.Output()
	if err != nil {
		return "", errors.WithStack(err)
	}
	log.Debugf("Current Git branch in %s: %s", dir, string(branch))
	return strings.TrimSpace(string(branch)), nil
}

// IsDirty returns true if and only if the Git repository at dir has
// uncommitted changes and/or untracked files.
func IsDirty(dir string) bool {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Debugf("failed to run git status --porcelain: %+v", err)
	}
	return len(strings.TrimSpace(string(out))) != 0
}

// IsRepository returns true if dir is the root of a Git checkout.
func IsRepository(dir string) bool {
	return fileutil.IsDir(filepath.Join(dir, ".git"))
}

// Clone clones repoURL into destDir, including shallow submodules.
// When useGitCache is set, the clone goes through the gitcache wrapper
// so repeated benchmark runs against the same project don't hit the
// network every time.
func Clone(repoURL, destDir string, useGitCache bool) error {
	args := []string{"clone", repoURL, "--shallow-submodules", "--recurse-submodules", destDir}
	var cmd *exec.Cmd
	if useGitCache {
		cmd = exec.Command("gitcache", append([]string{"git"}, args...)...)
	} else {
		cmd = exec.Command("git", args...)
	}
	log.Debugf("Command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}

// ResetHard discards all uncommitted changes in the repository at dir.
// A non-empty ref also moves HEAD there.
func ResetHard(dir, ref string) error {
	args := []string{"reset", "--hard"}
	if ref != "" {
		args = append(args, ref)
	}
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	log.Debugf("Command: %s (in %s)", cmd.String(), dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}

// Apply applies the patch file at patchPath to the repository at dir.
func Apply(dir, patchPath string) error {
	cmd := exec.Command("git", "apply", patchPath)
	cmd.Dir = dir
	log.Debugf("Command: %s (in %s)", cmd.String(), dir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}

// DiffNameOnly returns the paths of all files that differ from HEAD in
// the repository at dir.
func DiffNameOnly(dir string) ([]string, error) {
	cmd := exec.Command("git", "diff", "HEAD", "--name-only")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	var files []string
	for _, line := range strings.Split(string(output), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// CommitAll stages every change in the repository at dir and commits it
// with the given message. The author is fixed so commits made inside
// build containers don't depend on a user-level Git config.
func CommitAll(dir, message string) error {
	addCmd := exec.Command("git", "add", "-A")
	addCmd.Dir = dir
	log.Debugf("Command: %s (in %s)", addCmd.String(), dir)
	output, err := addCmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), addCmd)
	}

	commitCmd := exec.Command("git",
		"-c", "user.name=incbench",
		"-c", "user.email=incbench@localhost",
		"commit", "-m", message)
	commitCmd.Dir = dir
	log.Debugf("Command: %s (in %s)", commitCmd.String(), dir)
	output, err = commitCmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), commitCmd)
	}
	return nil
}
