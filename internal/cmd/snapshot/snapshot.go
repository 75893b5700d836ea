package snapshot

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/team-atlanta/incbench/internal/build/snapshot"
	"github.com/team-atlanta/incbench/internal/completion"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/dependencies"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/fileutil"
)

type options struct {
	ossFuzzDir   string
	project      string
	sourceDir    string
	sanitizers   []string
	rtsTool      string
	registry     string
	logDir       string
	forceRebuild bool
	runTests     bool
	useGitCache  bool
}

func (opts *options) validate() error {
	if opts.ossFuzzDir == "" {
		err := errors.New("An OSS-Fuzz checkout is required, set it via --oss-fuzz-dir, INCBENCH_OSS_FUZZ_DIR or incbench.yaml.")
		log.Print(err.Error())
		return cmdutils.WrapIncorrectUsageError(err)
	}
	return nil
}

func New() *cobra.Command {
	return newWithOptions(&options{})
}

func newWithOptions(opts *options) *cobra.Command {
	var bindFlags func()
	cmd := &cobra.Command{
		Use:   "snapshot [flags] <project>",
		Short: "Build incremental build snapshot images for a project",
		Long: `Builds one snapshot image per sanitizer for the given OSS-Fuzz project.
A snapshot image contains the fully built source tree, so later builds
only have to replay the current source diff instead of compiling from
scratch. Images are tagged <builder-image>:inc-<sanitizer>.

Existing snapshot images are reused; pass --force-rebuild to rebuild
them. When a registry holds a published snapshot it is pulled and
retagged instead of being rebuilt.`,
		ValidArgsFunction: completion.Projects,
		Args:              cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags()

			opts.ossFuzzDir = viper.GetString("oss-fuzz-dir")
			opts.sourceDir = viper.GetString("source-dir")
			opts.sanitizers = viper.GetStringSlice("sanitizers")
			opts.rtsTool = viper.GetString("rts-tool")
			opts.registry = viper.GetString("registry")
			opts.logDir = viper.GetString("log-dir")
			opts.forceRebuild = viper.GetBool("force-rebuild")
			opts.project = args[0]

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
			return run(c, opts)
		},
	}

	bindFlags = cmdutils.AddFlags(cmd,
		cmdutils.AddOSSFuzzDirFlag,
		cmdutils.AddSourceDirFlag,
		cmdutils.AddSanitizerFlag,
		cmdutils.AddRTSToolFlag,
		cmdutils.AddRegistryFlag,
		cmdutils.AddLogDirFlag,
		cmdutils.AddForceRebuildFlag,
	)
	err := cmd.RegisterFlagCompletionFunc("sanitizer", completion.Sanitizers)
	if err != nil {
		panic(err)
	}
	err = cmd.RegisterFlagCompletionFunc("rts-tool", completion.RTSTools)
	if err != nil {
		panic(err)
	}
	cmd.Flags().BoolVar(&opts.runTests, "run-tests", true,
		"Warm up the snapshot's test state by running the test suite once.")
	cmd.Flags().BoolVar(&opts.useGitCache, "git-cache", false,
		"Use the local git mirror cache when cloning the project repository.")

	return cmd
}

func run(c *cobra.Command, opts *options) error {
	project := ossfuzz.NewProject(opts.ossFuzzDir, opts.project)
	err := project.Validate()
	if err != nil {
		return err
	}

	sanitizers := opts.sanitizers
	if len(sanitizers) == 0 {
		config, err := project.Config()
		if err != nil {
			return err
		}
		sanitizers = config.Sanitizers
	}
	if len(sanitizers) == 0 {
		sanitizers = []string{ossfuzz.DefaultSanitizer}
	}

	sourceDir := opts.sourceDir
	if sourceDir == "" {
		sourceDir, err = os.MkdirTemp("", "incbench-src-")
		if err != nil {
			return errors.WithStack(err)
		}
		defer fileutil.Cleanup(sourceDir)

		err = project.PullSource(sourceDir, opts.useGitCache)
		if err != nil {
			return err
		}
	}

	for _, sanitizer := range sanitizers {
		builder, err := snapshot.NewBuilder(&snapshot.Options{
			OSSFuzzDir:   opts.ossFuzzDir,
			Project:      opts.project,
			SourceDir:    sourceDir,
			Sanitizer:    sanitizer,
			RTSTool:      opts.rtsTool,
			RunTests:     opts.runTests,
			ForceRebuild: opts.forceRebuild,
			Registry:     opts.registry,
			LogDir:       opts.logDir,
			Stdout:       c.OutOrStdout(),
			Stderr:       c.OutOrStderr(),
		})
		if err != nil {
			return err
		}
		image, err := builder.Ensure(c.Context())
		if err != nil {
			return err
		}
		log.Successf("Snapshot image ready: %s", image)
	}
	return nil
}
