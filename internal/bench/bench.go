package bench

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/alexflint/go-filemutex"
	"github.com/gookit/color"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/internal/build/snapshot"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/parser/crash"
	"github.com/team-atlanta/incbench/pkg/parser/testlog"
	"github.com/team-atlanta/incbench/pkg/rts"
	"github.com/team-atlanta/incbench/util/fileutil"
	"github.com/team-atlanta/incbench/util/sliceutil"
)

type Options struct {
	OSSFuzzDir string
	Project    string
	// SourceDir is the checkout of the project's main repository the
	// whole run mutates. It is treated as exclusively owned for the
	// run's duration.
	SourceDir string
	// LogDir receives summary.txt and all build/test logs.
	LogDir string
	// RTSTool overrides the project's rts_mode. Empty resolves from
	// the project configuration or the language default.
	RTSTool string
	// TestMode selects the log parser for C/C++ test suites
	// (googletest, ctest, autotools). Empty defaults to autotools.
	TestMode string
	// Registry is consulted for existing snapshot images.
	Registry string
	// ForceRebuild rebuilds snapshot images even when they exist.
	ForceRebuild bool
	// KeepGoing records PoV validation failures instead of aborting on
	// the first one.
	KeepGoing bool

	Stdout io.Writer
	Stderr io.Writer
}

func (opts *Options) Validate() error {
	if !fileutil.IsDir(opts.SourceDir) {
		return errors.Errorf("source directory %s does not exist", opts.SourceDir)
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

// Snapshotter provides the per-sanitizer snapshot image a run builds
// on.
type Snapshotter interface {
	// Ensure returns the snapshot image for the sanitizer, building it
	// when it doesn't exist yet.
	Ensure(ctx context.Context, sanitizer string) (string, error)
}

type snapshotAdapter struct {
	opts *Options
}

func (a *snapshotAdapter) Ensure(ctx context.Context, sanitizer string) (string, error) {
	builder, err := snapshot.NewBuilder(&snapshot.Options{
		OSSFuzzDir:   a.opts.OSSFuzzDir,
		Project:      a.opts.Project,
		SourceDir:    a.opts.SourceDir,
		Sanitizer:    sanitizer,
		RTSTool:      a.opts.RTSTool,
		RunTests:     true,
		ForceRebuild: a.opts.ForceRebuild,
		Registry:     a.opts.Registry,
		LogDir:       a.opts.LogDir,
		Stdout:       a.opts.Stdout,
		Stderr:       a.opts.Stderr,
	})
	if err != nil {
		return "", err
	}
	return builder.Ensure(ctx)
}

// Checker drives one benchmarking run: baseline build and test,
// snapshot, incremental rebuild, the per-PoV regression loop, and the
// summary. Strictly sequential, the source checkout and the Docker
// namespace are shared mutable state.
type Checker struct {
	*Options

	project *ossfuzz.Project
	config  *ossfuzz.ProjectConfig

	// Builder, Snapshots and Source are replaceable for tests.
	Builder   ProjectBuilder
	Snapshots Snapshotter
	Source    SourceControl

	povs              []*ossfuzz.PoV
	snapshotSanitizer string

	lock *filemutex.FileMutex
}

func NewChecker(opts *Options) (*Checker, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	project := ossfuzz.NewProject(opts.OSSFuzzDir, opts.Project)
	err = project.Validate()
	if err != nil {
		return nil, err
	}
	config, err := project.Config()
	if err != nil {
		return nil, err
	}

	opts.RTSTool, err = rts.ResolveTool(opts.RTSTool, config.RTSMode, config.Language)
	if err != nil {
		return nil, err
	}
	if !config.IncBuild {
		return nil, errors.Errorf("incremental builds are disabled for %s (inc_build: false in project.yaml)", opts.Project)
	}

	povs, err := project.FindPoVs()
	if err != nil {
		return nil, err
	}
	if len(povs) == 0 {
		return nil, errors.Errorf("no PoVs found below %s", project.AIXCCDir())
	}

	c := &Checker{
		Options:           opts,
		project:           project,
		config:            config,
		povs:              povs,
		snapshotSanitizer: ossfuzz.SnapshotSanitizer(povs),
		Snapshots:         &snapshotAdapter{opts: opts},
		Source:            &gitSourceControl{project: project, sourceDir: opts.SourceDir},
	}
	c.Builder = &helperBuilder{
		project:           project,
		config:            config,
		sourceDir:         opts.SourceDir,
		rtsTool:           opts.RTSTool,
		snapshotSanitizer: c.snapshotSanitizer,
		stdout:            opts.Stdout,
		stderr:            opts.Stderr,
	}
	return c, nil
}

// WithRTS reports whether this run benchmarks regression test
// selection on top of the incremental build.
func (c *Checker) WithRTS() bool {
	return c.RTSTool != rts.ToolNone
}

// sanitizers returns the distinct sanitizers the run needs snapshots
// for, the snapshot sanitizer first.
func (c *Checker) sanitizers() []string {
	result := []string{c.snapshotSanitizer}
	for _, pov := range c.povs {
		result = sliceutil.AppendUnique(result, pov.Sanitizer)
	}
	return result
}

// Run executes the full benchmark and returns its summary. The first
// unrecoverable failure aborts the run; cleanup (lock release,
// ownership fix-up) still happens.
func (c *Checker) Run(ctx context.Context) (*Summary, error) {
	err := c.acquireLock()
	if err != nil {
		return nil, err
	}
	defer c.releaseLock()

	summary := &Summary{
		Project:           c.Project,
		RTSTool:           c.RTSTool,
		WithRTS:           c.WithRTS(),
		SnapshotSanitizer: c.snapshotSanitizer,
		StartedAt:         time.Now(),
	}
	for _, pov := range c.povs {
		if pov.Sanitizer != c.snapshotSanitizer {
			summary.Mismatches = append(summary.Mismatches, SanitizerMismatch{
				PovID: pov.ID(), Sanitizer: pov.Sanitizer,
			})
		}
	}

	log.Infof("Benchmarking %s (%d PoV(s), sanitizer=%s, rts=%s)",
		c.Project, len(c.povs), c.snapshotSanitizer, c.RTSTool)

	err = c.Builder.PrepareImage(ctx)
	if err != nil {
		return nil, err
	}

	// Baseline build: full compile without any snapshot involvement.
	log.Infof("Measuring baseline build time")
	buildLog := filepath.Join(c.LogDir, "build.log")
	start := time.Now()
	err = c.Builder.Build(ctx, c.snapshotSanitizer, false, buildLog)
	if err != nil {
		log.Errorf(err, "Baseline build failed, check out logs in %s", buildLog)
		return nil, err
	}
	summary.BuildTimeBaseline = time.Since(start).Seconds()
	log.Infof("Baseline build time: %.2fs", summary.BuildTimeBaseline)
	err = c.Source.Reset(ctx)
	if err != nil {
		return nil, err
	}

	// Baseline test run: the whole suite, no selection.
	log.Infof("Measuring baseline test time")
	baselineLog := filepath.Join(c.LogDir, "test_baseline.log")
	start = time.Now()
	err = c.Builder.RunTests(ctx, false, false, baselineLog)
	if err != nil {
		log.Errorf(err, "Baseline test run failed, check out logs in %s", baselineLog)
		return nil, err
	}
	summary.BaselineTestTime = time.Since(start).Seconds()
	summary.BaselineStats, err = testlog.Analyze(baselineLog, c.config.Language, c.TestMode)
	if err != nil {
		return nil, err
	}
	log.Infof("Baseline test time: %.2fs (%d tests)", summary.BaselineTestTime, summary.BaselineStats.TestsRun)
	err = c.Source.Reset(ctx)
	if err != nil {
		return nil, err
	}

	// Snapshot per sanitizer. Most projects use a single one, but PoVs
	// can require others, each needs its own image before the loop.
	for _, sanitizer := range c.sanitizers() {
		_, err = c.Snapshots.Ensure(ctx, sanitizer)
		if err != nil {
			return nil, err
		}
	}

	log.Infof("Measuring rebuild time with the snapshot")
	incBuildLog := filepath.Join(c.LogDir, fmt.Sprintf("build_%s.log", c.snapshotSanitizer))
	start = time.Now()
	err = c.Builder.Build(ctx, c.snapshotSanitizer, true, incBuildLog)
	if err != nil {
		log.Errorf(err, "Snapshot rebuild failed, check out logs in %s", incBuildLog)
		return nil, err
	}
	summary.BuildTimeSnapshot = time.Since(start).Seconds()
	log.Infof("Rebuild time with the snapshot: %.2fs", summary.BuildTimeSnapshot)
	err = c.Source.Reset(ctx)
	if err != nil {
		return nil, err
	}

	// PoV regression loop.
	for _, pov := range c.povs {
		result, err := c.checkPov(ctx, pov)
		if result != nil {
			summary.Results = append(summary.Results, result)
		}
		if err != nil {
			if !c.KeepGoing {
				return nil, err
			}
			log.Warnf("Continuing despite failed PoV %s: %v", pov.ID(), err)
		}
	}

	err = c.writeSummary(summary)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// checkPov validates the incremental build against one PoV: the
// unpatched snapshot build must reproduce the crash, the patched one
// must not, and the test suite runs afterwards for the timing
// comparison.
func (c *Checker) checkPov(ctx context.Context, pov *ossfuzz.PoV) (*PovResult, error) {
	err := c.Source.Reset(ctx)
	if err != nil {
		return nil, err
	}

	if pov.Sanitizer != c.snapshotSanitizer {
		log.Warnf("PoV %q requires sanitizer %q but the snapshot was built with %q. Results may be inaccurate.",
			pov.ID(), pov.Sanitizer, c.snapshotSanitizer)
	}

	result := &PovResult{
		PovID:      pov.ID(),
		Sanitizer:  pov.Sanitizer,
		ErrorToken: pov.ErrorToken,
	}

	log.Infof("Checking %q for a crash before the patch (sanitizer=%s)", pov.ID(), pov.Sanitizer)
	buildLog := filepath.Join(c.LogDir, fmt.Sprintf("build_%s.log", pov.Sanitizer))
	err = c.Builder.Build(ctx, pov.Sanitizer, true, buildLog)
	if err != nil {
		return result, err
	}
	stdout, _, exitCode, err := c.Builder.Reproduce(ctx, pov.Harness, pov.Path)
	if err != nil {
		return result, err
	}
	result.CrashBefore = exitCode != 0 && crash.Detect(stdout, c.config.Language, pov.ErrorToken)
	if !result.CrashBefore {
		log.Print(color.Red.Sprintf("✗ crash is not detected for %q", pov.ID()))
		log.Print(stdout)
		return result, errors.Errorf("crash is not detected for %q", pov.ID())
	}

	err = c.Source.Apply(ctx, pov.PatchPath)
	if err != nil {
		return result, err
	}

	log.Infof("Rebuilding %q with patch %s (sanitizer=%s)", pov.ID(), filepath.Base(pov.PatchPath), pov.Sanitizer)
	start := time.Now()
	err = c.Builder.Build(ctx, pov.Sanitizer, true, buildLog)
	if err != nil {
		return result, err
	}
	result.PatchedRebuildTime = time.Since(start).Seconds()
	log.Infof("Rebuild time with patch: %.2fs", result.PatchedRebuildTime)

	stdout, _, exitCode, err = c.Builder.Reproduce(ctx, pov.Harness, pov.Path)
	if err != nil {
		return result, err
	}
	result.CrashAfter = exitCode != 0 && crash.Detect(stdout, c.config.Language, pov.ErrorToken)
	if result.CrashAfter {
		log.Print(color.Red.Sprintf("✗ crash is still detected for %q with patch %s", pov.ID(), pov.PatchPath))
		return result, errors.Errorf("crash is still detected for %q with patch %s", pov.ID(), pov.PatchPath)
	}
	log.Print(color.Green.Sprintf("✔ incremental build for %q has been validated", pov.ID()))

	// Timed test run from the snapshot's warm state.
	testLog := filepath.Join(c.LogDir, fmt.Sprintf("test_inc_%s_%s.log", pov.Harness, pov.Name))
	log.Infof("Measuring test time (%s) for %q", c.testLabel(), pov.ID())
	start = time.Now()
	err = c.Builder.RunTests(ctx, c.WithRTS(), true, testLog)
	if err != nil {
		log.Errorf(err, "Test run failed for %q, check out logs in %s", pov.ID(), testLog)
		return result, err
	}
	result.TestTime = time.Since(start).Seconds()
	log.Infof("Test time (%s, %s): %.2fs", c.testLabel(), pov.ID(), result.TestTime)

	exists, err := fileutil.Exists(testLog)
	if err != nil {
		return result, err
	}
	if exists {
		result.Stats, err = testlog.Analyze(testLog, c.config.Language, c.TestMode)
		if err != nil {
			return result, err
		}
		log.Infof("Tests run (%s): %d, total time: %.2fs", pov.ID(), result.Stats.TestsRun, result.Stats.TotalTimeSeconds)
	}

	return result, nil
}

func (c *Checker) testLabel() string {
	if c.WithRTS() {
		return "with RTS"
	}
	return "with inc build"
}

func (c *Checker) writeSummary(summary *Summary) error {
	err := summary.Render(c.Stdout)
	if err != nil {
		return err
	}
	summaryPath := filepath.Join(c.LogDir, "summary.txt")
	err = summary.WriteFile(summaryPath)
	if err != nil {
		return err
	}
	log.Successf("Summary saved to %s", summaryPath)
	return nil
}

// acquireLock takes a file lock next to the source checkout. The run
// resets and mutates the checkout repeatedly, a concurrent run against
// the same checkout would corrupt both.
func (c *Checker) acquireLock() error {
	lockPath := filepath.Join(filepath.Dir(c.SourceDir), "."+filepath.Base(c.SourceDir)+".incbench.lock")
	lock, err := filemutex.New(lockPath)
	if err != nil {
		return errors.WithStack(err)
	}
	err = lock.Lock()
	if err != nil {
		return errors.WithStack(err)
	}
	c.lock = lock
	return nil
}

func (c *Checker) releaseLock() {
	if c.lock == nil {
		return
	}
	err := c.lock.Unlock()
	if err != nil {
		log.Warnf("Failed to release the source checkout lock: %v", err)
	}
	c.lock = nil
}
