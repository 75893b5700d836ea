package docker

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/executil"
)

// ImageExists reports whether the image is present in the local Docker
// daemon.
func ImageExists(ctx context.Context, image string) bool {
	cmd := exec.CommandContext(ctx, "docker", "image", "inspect", image)
	return cmd.Run() == nil
}

// RemoteImageExists reports whether the image can be resolved in its
// registry without pulling it.
func RemoteImageExists(ctx context.Context, image string) bool {
	cmd := exec.CommandContext(ctx, "docker", "manifest", "inspect", image)
	return cmd.Run() == nil
}

// Tag adds the target tag to an existing local image.
func Tag(ctx context.Context, source, target string) error {
	cmd := exec.CommandContext(ctx, "docker", "tag", source, target)
	log.Debugf("Command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}

// Push uploads the image to its registry. Progress output is streamed
// to the given writers so long-running pushes stay observable.
func Push(ctx context.Context, image string, stdout, stderr io.Writer) error {
	cmd := executil.CommandContext(ctx, "docker", "push", image)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.Debugf("Command: %s", cmd.String())
	err := cmd.Run()
	if err != nil {
		return cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
	}
	return nil
}

// Pull fetches the image from its registry.
func Pull(ctx context.Context, image string, stdout, stderr io.Writer) error {
	cmd := executil.CommandContext(ctx, "docker", "pull", image)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.Debugf("Command: %s", cmd.String())
	err := cmd.Run()
	if err != nil {
		return cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
	}
	return nil
}

// FixOwnership restores ownership of files a root container wrote
// below path. Containerized builds leave root-owned artifacts behind,
// which the next git reset or rm would choke on.
func FixOwnership(ctx context.Context, path string) error {
	uid := os.Getuid()
	if uid < 0 {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.WithStack(err)
	}

	owner := strconv.Itoa(uid) + ":" + strconv.Itoa(os.Getgid())
	cmd := exec.CommandContext(ctx, "docker", "run", "--rm", "--privileged",
		"-v", absPath+":/target",
		"alpine:latest",
		"chown", "-R", owner, "/target")
	log.Debugf("Command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}
