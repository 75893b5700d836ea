package bench

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/team-atlanta/incbench/internal/docker"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/executil"
)

// ProjectBuilder abstracts the project-specific build, test and
// reproduce commands the benchmark drives. The benchmark never knows
// how a project compiles, it only measures how long the collaborator
// takes.
type ProjectBuilder interface {
	// PrepareImage creates the project's builder image.
	PrepareImage(ctx context.Context) error
	// Build compiles the fuzzers, either from scratch or by replaying
	// the source diff on top of the snapshot image. Output is streamed
	// to logPath as it arrives.
	Build(ctx context.Context, sanitizer string, useSnapshot bool, logPath string) error
	// RunTests runs the project's test driver script. Output is
	// streamed to logPath.
	RunTests(ctx context.Context, rtsEnabled, useSnapshot bool, logPath string) error
	// Reproduce feeds the PoV input to the harness and returns the
	// run's output and exit code.
	Reproduce(ctx context.Context, harness, povPath string) (stdout, stderr string, exitCode int, err error)
}

// helperBuilder drives builds through the OSS-Fuzz helper script and
// the snapshot images. It is the default ProjectBuilder.
type helperBuilder struct {
	project   *ossfuzz.Project
	config    *ossfuzz.ProjectConfig
	sourceDir string
	rtsTool   string
	// snapshotSanitizer selects which per-sanitizer snapshot image the
	// test runs use.
	snapshotSanitizer string

	stdout io.Writer
	stderr io.Writer
}

func (b *helperBuilder) PrepareImage(ctx context.Context) error {
	log.Infof("Building project builder image for %s", b.project.Name)
	cmd := executil.CommandContext(ctx, "python3", b.project.HelperScript(),
		"build_image", "--no-pull", b.project.Name)
	cmd.Dir = b.project.OSSFuzzDir
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr
	log.Debugf("Command: %s", cmd.String())
	err := cmd.Run()
	if err != nil {
		return cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
	}
	return nil
}

func (b *helperBuilder) Build(ctx context.Context, sanitizer string, useSnapshot bool, logPath string) error {
	logFile, err := os.Create(logPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer logFile.Close()
	stdout := io.MultiWriter(b.stdout, logFile)
	stderr := io.MultiWriter(b.stderr, logFile)

	if !useSnapshot {
		cmd := executil.CommandContext(ctx, "python3", b.project.HelperScript(),
			"build_fuzzers", "--sanitizer", sanitizer, b.project.Name, b.sourceDir)
		cmd.Dir = b.project.OSSFuzzDir
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		log.Debugf("Command: %s", cmd.String())
		err = cmd.Run()
		if err != nil {
			return cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
		}
		return nil
	}

	image, err := b.project.IncrementalImageName(sanitizer)
	if err != nil {
		return err
	}
	workdir, err := b.project.Workdir()
	if err != nil {
		return err
	}

	// The snapshot image's entrypoint replays the checkout's
	// uncommitted diff before compiling, so mounting the checkout is
	// all a rebuild needs.
	return docker.Run(ctx, &docker.RunOptions{
		Image: image,
		Env: []string{
			"SANITIZER=" + sanitizer,
			"FUZZING_LANGUAGE=" + b.config.Language,
		},
		Binds: []string{
			b.sourceDir + ":" + workdir,
			b.project.OutDir() + ":/out",
		},
	}, stdout, stderr, "compile")
}

func (b *helperBuilder) RunTests(ctx context.Context, rtsEnabled, useSnapshot bool, logPath string) error {
	logFile, err := os.Create(logPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer logFile.Close()
	stdout := io.MultiWriter(b.stdout, logFile)
	stderr := io.MultiWriter(b.stderr, logFile)

	workdir, err := b.project.Workdir()
	if err != nil {
		return err
	}

	env := []string{
		"SANITIZER=" + b.snapshotSanitizer,
		"FUZZING_LANGUAGE=" + b.config.Language,
	}

	if !useSnapshot {
		// Baseline run: full compile plus the whole suite in the plain
		// builder image.
		image, err := b.project.BuilderImageName()
		if err != nil {
			return err
		}
		script := fmt.Sprintf("cd %s && ./test.sh", shellescape.Quote(workdir))
		return docker.Run(ctx, &docker.RunOptions{
			Image: image,
			Env:   append(env, "RTS_ON=0"),
			Binds: []string{b.sourceDir + ":" + workdir},
		}, stdout, stderr, "bash", "-c", script)
	}

	image, err := b.project.IncrementalImageName(b.snapshotSanitizer)
	if err != nil {
		return err
	}
	if rtsEnabled {
		env = append(env, "RTS_ON=1", "RTS_TOOL="+b.rtsTool)
	} else {
		env = append(env, "RTS_ON=0")
	}

	// Replay the diff, regenerate the per-run RTS configuration and
	// run the (selected) tests from the snapshot's warm state.
	script := "compile > /dev/null && cd $SRC"
	if rtsEnabled {
		script += " && incbench rts prepare $SRC"
	}
	script += " && ./test.sh"
	return docker.Run(ctx, &docker.RunOptions{
		Image: image,
		Env:   env,
		Binds: []string{b.sourceDir + ":" + workdir},
	}, stdout, stderr, "bash", "-c", script)
}

func (b *helperBuilder) Reproduce(ctx context.Context, harness, povPath string) (string, string, int, error) {
	cmd := executil.CommandContext(ctx, "python3", b.project.HelperScript(),
		"reproduce", b.project.Name, harness, povPath)
	cmd.Dir = b.project.OSSFuzzDir
	log.Debugf("Command: %s", cmd.String())

	var stdout, stderr strings.Builder
	stdoutPipe, err := cmd.StdoutTeePipe(&stdout)
	if err != nil {
		return "", "", 0, err
	}
	stderrPipe, err := cmd.StderrTeePipe(&stderr)
	if err != nil {
		return "", "", 0, err
	}

	err = cmd.Start()
	if err != nil {
		return "", "", 0, err
	}

	// Drain both pipes concurrently so the harness can't block on a
	// full pipe buffer while we read the other stream. Wait closes the
	// write ends, which lets the pumps run into EOF.
	errgrp := errgroup.Group{}
	for _, pipe := range []io.ReadCloser{stdoutPipe, stderrPipe} {
		pipe := pipe
		errgrp.Go(func() error {
			scanner := bufio.NewScanner(pipe)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				log.Debug(scanner.Text())
			}
			return pipe.Close()
		})
	}

	err = cmd.Wait()
	if pumpErr := errgrp.Wait(); pumpErr != nil {
		log.Warnf("Failed to drain reproduce output: %v", pumpErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A crashing reproduction exits non-zero on purpose.
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return stdout.String(), stderr.String(), 0, cmdutils.WrapExecError(errors.WithStack(err), cmd.Cmd)
	}
	return stdout.String(), stderr.String(), 0, nil
}

var _ ProjectBuilder = (*helperBuilder)(nil)
