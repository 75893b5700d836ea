package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hokaccha/go-prettyjson"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/team-atlanta/incbench/internal/bench"
	"github.com/team-atlanta/incbench/internal/completion"
	"github.com/team-atlanta/incbench/internal/history"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/internal/registry"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/dependencies"
	"github.com/team-atlanta/incbench/pkg/desktop"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/storage"
	"github.com/team-atlanta/incbench/util/fileutil"
)

type options struct {
	bench.Options

	useGitCache bool
	printJSON   bool
}

func (opts *options) validate() error {
	if opts.OSSFuzzDir == "" {
		err := errors.New("An OSS-Fuzz checkout is required, set it via --oss-fuzz-dir, INCBENCH_OSS_FUZZ_DIR or incbench.yaml.")
		log.Print(err.Error())
		return cmdutils.WrapIncorrectUsageError(err)
	}
	if !fileutil.IsDir(opts.OSSFuzzDir) {
		err := errors.Errorf("OSS-Fuzz directory %s does not exist", opts.OSSFuzzDir)
		log.Error(err, err.Error())
		return cmdutils.WrapSilentError(err)
	}
	return nil
}

type benchCmd struct {
	*cobra.Command
	opts *options
}

func New() *cobra.Command {
	return newWithOptions(&options{})
}

func newWithOptions(opts *options) *cobra.Command {
	var bindFlags func()
	cmd := &cobra.Command{
		Use:   "bench [flags] <project>",
		Short: "Benchmark incremental builds and test selection for a project",
		Long: `Runs the full benchmark for one OSS-Fuzz project: a baseline build and
test run, an incremental build snapshot, and a validation loop over the
project's PoVs. Each PoV must crash the unpatched build and must not
crash the patched one; the rebuild and test times of both variants are
compared in the final summary.

The results are written to the log directory as summary.txt, together
with all build and test logs of the run.`,
		ValidArgsFunction: completion.Projects,
		Args:              cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind viper keys to flags. We can't do this in the New
			// function, because that would re-bind viper keys which
			// were bound to the flags of other commands before.
			bindFlags()

			opts.OSSFuzzDir = viper.GetString("oss-fuzz-dir")
			opts.SourceDir = viper.GetString("source-dir")
			opts.Registry = viper.GetString("registry")
			opts.RTSTool = viper.GetString("rts-tool")
			opts.LogDir = viper.GetString("log-dir")
			opts.ForceRebuild = viper.GetBool("force-rebuild")
			opts.printJSON = viper.GetBool("print-json")
			opts.Project = args[0]
			if opts.Registry == "" {
				opts.Registry = registry.DefaultRegistry
			}

			depsOk, err := dependencies.Check([]dependencies.Key{
				dependencies.DOCKER, dependencies.GIT,
			}, dependencies.Default)
			if err != nil {
				log.Error(err)
				return cmdutils.WrapSilentError(err)
			}
			if !depsOk {
				err := errors.New("Unmet dependencies")
				log.Error(err)
				return cmdutils.WrapSilentError(err)
			}

			return opts.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			opts.Stdout = c.OutOrStdout()
			opts.Stderr = c.OutOrStderr()
			cmd := benchCmd{Command: c, opts: opts}
			return cmd.run()
		},
	}

	bindFlags = cmdutils.AddFlags(cmd,
		cmdutils.AddOSSFuzzDirFlag,
		cmdutils.AddSourceDirFlag,
		cmdutils.AddRegistryFlag,
		cmdutils.AddRTSToolFlag,
		cmdutils.AddLogDirFlag,
		cmdutils.AddPrintJSONFlag,
		cmdutils.AddForceRebuildFlag,
	)
	cmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false,
		"Continue with the remaining PoVs when one fails validation.")
	cmd.Flags().StringVar(&opts.TestMode, "test-mode", "",
		"Test log format for C/C++ projects: \"googletest\", \"ctest\" or \"autotools\".")
	cmd.Flags().BoolVar(&opts.useGitCache, "git-cache", false,
		"Use the local git mirror cache when cloning the project repository.")

	return cmd
}

func (c *benchCmd) run() error {
	fs := storage.WrapFileSystem()
	logDir, err := storage.GetOutDir(c.opts.LogDir, fs)
	if err != nil {
		return err
	}
	c.opts.LogDir = logDir

	// Tee all log output of the run into the artifact directory, the
	// summary alone doesn't explain a failed run.
	err = log.WithFileSink(filepath.Join(logDir, "incbench.log"))
	if err != nil {
		log.Warnf("Failed to set up the run transcript: %v", err)
	}
	defer log.CloseFileSink()

	if c.opts.SourceDir == "" {
		project := ossfuzz.NewProject(c.opts.OSSFuzzDir, c.opts.Project)
		sourceDir, err := os.MkdirTemp("", "incbench-src-")
		if err != nil {
			return errors.WithStack(err)
		}
		defer fileutil.Cleanup(sourceDir)

		err = project.PullSource(sourceDir, c.opts.useGitCache)
		if err != nil {
			return err
		}
		c.opts.SourceDir = sourceDir
	}

	checker, err := bench.NewChecker(&c.opts.Options)
	if err != nil {
		return err
	}
	summary, err := checker.Run(c.Context())
	if err != nil {
		desktop.Notify("incbench", fmt.Sprintf("Benchmark of %s failed", c.opts.Project))
		return err
	}

	c.recordRun(summary)

	if c.opts.printJSON {
		out, err := prettyjson.Marshal(summary)
		if err != nil {
			return errors.WithStack(err)
		}
		fmt.Fprintln(c.OutOrStdout(), string(out))
	}

	desktop.Notify("incbench", fmt.Sprintf("Benchmark of %s finished", c.opts.Project))
	return nil
}

// recordRun stores the run in the history database. History is a
// convenience, a failure here must not fail a finished benchmark.
func (c *benchCmd) recordRun(summary *bench.Summary) {
	store, err := history.Open(c.opts.LogDir)
	if err != nil {
		log.Warnf("Failed to open the run history: %v", err)
		return
	}
	defer store.Close()

	err = store.Record(&history.Run{
		Project:      summary.Project,
		RTSTool:      summary.RTSTool,
		StartedAt:    summary.StartedAt.UTC().Truncate(time.Second),
		BuildSpeedup: summary.BuildSpeedup(),
		TestSpeedup:  summary.TestSpeedup(),
		NumPovs:      len(summary.Results),
		SummaryPath:  filepath.Join(c.opts.LogDir, "summary.txt"),
	})
	if err != nil {
		log.Warnf("Failed to record the run in the history: %v", err)
	}
}
