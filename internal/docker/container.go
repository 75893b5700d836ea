package docker

import (
	"context"
	"io"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/envutil"
	"github.com/team-atlanta/incbench/util/executil"
)

// RunOptions describe a container run from a builder image.
type RunOptions struct {
	// Name of the container. Optional for one-shot runs.
	Name  string
	Image string
	// Env entries in KEY=VALUE form.
	Env []string
	// Binds in host:container form.
	Binds []string
}

// Container is a detached container kept alive with a sleeping
// entrypoint, so the snapshot steps can run against the same
// filesystem one docker exec at a time.
type Container struct {
	Name string
}

func runArgs(opts *RunOptions, detached bool) []string {
	args := []string{"run"}
	if detached {
		args = append(args, "-d", "--entrypoint", "sleep")
	} else {
		args = append(args, "--rm")
	}
	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}
	args = append(args, envutil.ToDockerArgs(opts.Env)...)
	for _, bind := range opts.Binds {
		args = append(args, "-v", bind)
	}
	args = append(args, opts.Image)
	if detached {
		args = append(args, "infinity")
	}
	return args
}

// StartDetached starts a detached container from the given image that
// idles until it is removed.
func StartDetached(ctx context.Context, opts *RunOptions) (*Container, error) {
	cmd := exec.CommandContext(ctx, "docker", runArgs(opts, true)...)
	log.Debugf("Command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return nil, cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return &Container{Name: opts.Name}, nil
}

// Run executes a one-shot container that is removed when the command
// finishes. Output is streamed to the given writers.
func Run(ctx context.Context, opts *RunOptions, stdout, stderr io.Writer, command ...string) error {
	args := append(runArgs(opts, false), command...)
	cmd := executil.CommandContext(ctx, "docker", args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.Debugf("Command: %s", cmd.String())
	err := cmd.Run()
	if err != nil {
		return cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
	}
	return nil
}

// Exec runs a command inside the container and streams its output to
// the given writers.
func (c *Container) Exec(ctx context.Context, stdout, stderr io.Writer, env []string, command ...string) error {
	args := []string{"exec"}
	args = append(args, envutil.ToDockerArgs(env)...)
	args = append(args, c.Name)
	args = append(args, command...)

	cmd := executil.CommandContext(ctx, "docker", args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.Debugf("Command: %s", cmd.String())
	err := cmd.Run()
	if err != nil {
		return cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
	}
	return nil
}

// CopyTo copies a file from the host into the container. The file
// keeps its mode bits.
func (c *Container) CopyTo(ctx context.Context, hostPath, containerPath string) error {
	cmd := exec.CommandContext(ctx, "docker", "cp", hostPath, c.Name+":"+containerPath)
	log.Debugf("Command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}

// Commit captures the container filesystem as a new image. The changes
// are Dockerfile directives ("ENV X=1", "WORKDIR /built-src", ...)
// applied to the committed image config.
func (c *Container) Commit(ctx context.Context, image string, changes []string) error {
	args := []string{"container", "commit"}
	for _, change := range changes {
		args = append(args, "--change", change)
	}
	args = append(args, c.Name, image)

	cmd := exec.CommandContext(ctx, "docker", args...)
	log.Debugf("Command: %s", cmd.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Print(string(output))
		return cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return nil
}

// Remove force-removes the container. Failures are logged as a
// warning, there is nothing callers can do about them during cleanup.
func (c *Container) Remove() {
	cmd := exec.Command("docker", "rm", "-f", c.Name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warnf("Failed to remove container %s: %s", c.Name, string(output))
	}
}
