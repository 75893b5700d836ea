package snapshot

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/internal/docker"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/internal/registry"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/rts"
	"github.com/team-atlanta/incbench/util/fileutil"
)

// builtSrcDir is where the snapshot keeps its private copy of the
// source tree. Compiling from a copy instead of the bind mount lets
// the committed image carry the compiled state while the host checkout
// stays pristine.
const builtSrcDir = "/built-src"

type Options struct {
	OSSFuzzDir string
	Project    string
	// SourceDir is the host checkout of the project's main repository.
	// It is bind-mounted into the build container.
	SourceDir string
	Sanitizer string
	// RTSTool enables regression test selection inside the snapshot.
	// rts.ToolNone builds a plain incremental snapshot.
	RTSTool string
	// RunTests warms the test caches by running the test driver once
	// before the commit. Required for RTS snapshots, the selection
	// state has to exist in the image.
	RunTests bool
	// ForceRebuild builds a fresh snapshot even when the image tag
	// already exists.
	ForceRebuild bool
	// Registry is consulted for an existing snapshot before a rebuild.
	// Empty disables the registry lookup.
	Registry string
	// LogDir receives build_<sanitizer>.log with the streamed build
	// output.
	LogDir string

	Stdout io.Writer
	Stderr io.Writer
}

func (opts *Options) Validate() error {
	if !fileutil.IsDir(opts.SourceDir) {
		return errors.Errorf("source directory %s does not exist", opts.SourceDir)
	}
	if opts.Sanitizer == "" {
		opts.Sanitizer = ossfuzz.DefaultSanitizer
	}
	if opts.RTSTool == "" {
		opts.RTSTool = rts.ToolNone
	}
	if opts.LogDir == "" {
		opts.LogDir = "."
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return nil
}

// Builder creates the per-sanitizer incremental build snapshot image
// of one project.
type Builder struct {
	*Options
	project *ossfuzz.Project
	entropy io.Reader
}

func NewBuilder(opts *Options) (*Builder, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	project := ossfuzz.NewProject(opts.OSSFuzzDir, opts.Project)
	err = project.Validate()
	if err != nil {
		return nil, err
	}

	return &Builder{
		Options: opts,
		project: project,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Ensure returns the snapshot image for the configured sanitizer,
// building it only when necessary: an existing local image wins, then
// a registry copy is retagged, and only then a fresh build runs.
func (b *Builder) Ensure(ctx context.Context) (string, error) {
	image, err := b.project.IncrementalImageName(b.Sanitizer)
	if err != nil {
		return "", err
	}

	if !b.ForceRebuild {
		if docker.ImageExists(ctx, image) {
			log.Infof("Snapshot image already exists: %s", image)
			return image, nil
		}
		if b.Registry != "" {
			remote := registry.SnapshotImageRef(b.Registry, b.project.Name, "inc-"+b.Sanitizer)
			if docker.RemoteImageExists(ctx, remote) {
				log.Infof("Pulling snapshot image from registry: %s", remote)
				err = docker.Pull(ctx, remote, b.Stdout, b.Stderr)
				if err == nil {
					err = docker.Tag(ctx, remote, image)
				}
				if err == nil {
					return image, nil
				}
				log.Warnf("Failed to reuse registry snapshot %s: %v", remote, err)
			}
		}
	}

	err = b.Build(ctx)
	if err != nil {
		return "", err
	}
	return image, nil
}

// Build creates the snapshot: it compiles the project once inside a
// container started from the builder image, optionally wires up the
// RTS tool and warms the test caches, and commits the container
// filesystem as <builder-image>:inc-<sanitizer>. The committed image
// replays any uncommitted diff of the mounted checkout before
// compiling, so one snapshot serves every candidate patch.
func (b *Builder) Build(ctx context.Context) (finalErr error) {
	config, err := b.project.Config()
	if err != nil {
		return err
	}
	image, err := b.project.IncrementalImageName(b.Sanitizer)
	if err != nil {
		return err
	}
	baseImage, err := b.project.BuilderImageName()
	if err != nil {
		return err
	}
	workdir, err := b.project.Workdir()
	if err != nil {
		return err
	}
	newWorkdir := strings.Replace(workdir, "/src", builtSrcDir, 1)

	rtsEnabled := b.RTSTool != rts.ToolNone

	logPath := filepath.Join(b.LogDir, fmt.Sprintf("build_%s.log", b.Sanitizer))
	logFile, err := os.Create(logPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer logFile.Close()
	stdout := io.MultiWriter(b.Stdout, logFile)
	stderr := io.MultiWriter(b.Stderr, logFile)

	containerName := fmt.Sprintf("incbench-%s-%s",
		b.project.SimpleName(), strings.ToLower(ulid.MustNew(ulid.Now(), b.entropy).String()))
	container, err := docker.StartDetached(ctx, &docker.RunOptions{
		Name:  containerName,
		Image: baseImage,
		Env: []string{
			"SANITIZER=" + b.Sanitizer,
			"FUZZING_LANGUAGE=" + config.Language,
		},
		Binds: []string{b.SourceDir + ":" + workdir},
	})
	if err != nil {
		return err
	}
	defer container.Remove()
	defer func() {
		// The container wrote to the bind-mounted checkout as root.
		err := docker.FixOwnership(ctx, b.SourceDir)
		if err != nil {
			log.Warnf("Failed to fix ownership of %s: %v", b.SourceDir, err)
		}
	}()

	err = b.installPatchedCompile(ctx, container)
	if err != nil {
		return err
	}

	syncAndCompile := fmt.Sprintf(
		"rsync -a --exclude /out $SRC/ %s && export SRC=%s && cd %s && compile",
		builtSrcDir, builtSrcDir, shellescape.Quote(newWorkdir))

	if rtsEnabled && rts.IsMavenTool(b.RTSTool) {
		err = b.injectRTS(ctx, container, stdout, stderr)
		if err != nil {
			return err
		}
	}

	log.Infof("Warming build caches for %s (sanitizer=%s)", b.Project, b.Sanitizer)
	err = container.Exec(ctx, stdout, stderr, b.rtsEnv(), "bash", "-c", syncAndCompile)
	if err != nil {
		log.Errorf(err, "Snapshot compile failed, see %s", logPath)
		return err
	}

	if b.RunTests {
		log.Infof("Warming test caches for %s", b.Project)
		runTests := fmt.Sprintf("cd %s && ./test.sh", shellescape.Quote(builtSrcDir))
		err = container.Exec(ctx, stdout, stderr, b.rtsEnv(), "bash", "-c", runTests)
		if err != nil {
			// A failing warm-up run doesn't invalidate the snapshot,
			// the caches it managed to write are still useful.
			log.Warnf("Test warm-up run failed, see %s", logPath)
		}
	}

	log.Infof("Committing snapshot image: %s", image)
	err = container.Commit(ctx, image, commitChanges(newWorkdir, b.RTSTool))
	if err != nil {
		return err
	}

	log.Successf("Created snapshot image %s", image)
	return nil
}

// installPatchedCompile replaces /usr/local/bin/compile inside the
// container with a version that captures the mounted checkout's
// uncommitted diff and applies it to the built source before
// compiling.
func (b *Builder) installPatchedCompile(ctx context.Context, container *docker.Container) error {
	compilePath := filepath.Join(b.OSSFuzzDir, "infra", "base-images", "base-builder", "compile")
	content, err := os.ReadFile(compilePath)
	if err != nil {
		return errors.Wrapf(err, "compile script not found in %s", compilePath)
	}

	patched, err := patchCompileScript(string(content))
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "incbench-compile-")
	if err != nil {
		return errors.WithStack(err)
	}
	defer fileutil.Cleanup(tmpDir)

	patchedPath := filepath.Join(tmpDir, "compile")
	err = os.WriteFile(patchedPath, []byte(patched), 0o755)
	if err != nil {
		return errors.WithStack(err)
	}

	return container.CopyTo(ctx, patchedPath, "/usr/local/bin/compile")
}

// injectRTS copies the running incbench executable into the container
// and uses it to configure the selection tool against the synced
// source, so the Maven plugin installation ends up in the image's
// local repository cache.
func (b *Builder) injectRTS(ctx context.Context, container *docker.Container, stdout, stderr io.Writer) error {
	exe, err := os.Executable()
	if err != nil {
		return errors.WithStack(err)
	}
	err = container.CopyTo(ctx, exe, "/usr/local/bin/incbench")
	if err != nil {
		return err
	}

	// The source has to exist at /built-src before the descriptors can
	// be rewritten.
	sync := fmt.Sprintf("rsync -a --exclude /out $SRC/ %s", builtSrcDir)
	err = container.Exec(ctx, stdout, stderr, nil, "bash", "-c", sync)
	if err != nil {
		return err
	}

	log.Infof("Configuring %s inside the snapshot container", b.RTSTool)
	return container.Exec(ctx, stdout, stderr, b.rtsEnv(),
		"incbench", "rts", "inject", "--tool", b.RTSTool, "--project", b.project.SimpleName(), builtSrcDir)
}

func (b *Builder) rtsEnv() []string {
	if b.RTSTool == rts.ToolNone {
		return []string{"RTS_ON=0"}
	}
	return []string{"RTS_ON=1", "RTS_TOOL=" + b.RTSTool}
}

// commitChanges returns the Dockerfile directives baked into the
// committed snapshot. REPLAY_ENABLED marks the image as carrying the
// diff-replaying compile script.
func commitChanges(workdir, rtsTool string) []string {
	rtsEnabled := "0"
	if rtsTool != rts.ToolNone {
		rtsEnabled = "1"
	}
	return []string{
		"ENV REPLAY_ENABLED=1",
		"ENV SRC=" + builtSrcDir,
		"ENV RTS_ENABLED=" + rtsEnabled,
		"ENV RTS_TOOL=" + rtsTool,
		"WORKDIR " + workdir,
		`CMD ["compile"]`,
	}
}
