package publish

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/team-atlanta/incbench/internal/completion"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/internal/registry"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/dependencies"
	"github.com/team-atlanta/incbench/pkg/dialog"
	"github.com/team-atlanta/incbench/pkg/log"
)

type options struct {
	ossFuzzDir  string
	project     string
	registryURL string
	sanitizers  []string
	pushMode    string
	force       bool
	yes         bool
}

func New() *cobra.Command {
	return newWithOptions(&options{})
}

func newWithOptions(opts *options) *cobra.Command {
	var bindFlags func()
	cmd := &cobra.Command{
		Use:   "publish [flags] <project>",
		Short: "Push builder and snapshot images to a registry",
		Long: `Tags the project's builder image and its incremental snapshot images
and pushes them to a container registry, so other machines can pull a
ready-made snapshot instead of rebuilding it.

Images that already exist in the registry are skipped unless --force is
given. Pushing requires prior authentication via "docker login".`,
		ValidArgsFunction: completion.Projects,
		Args:              cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags()

			opts.ossFuzzDir = viper.GetString("oss-fuzz-dir")
			opts.registryURL = viper.GetString("registry")
			opts.sanitizers = viper.GetStringSlice("sanitizers")
			opts.project = args[0]
			if opts.registryURL == "" {
				opts.registryURL = registry.DefaultRegistry
			}

			if opts.ossFuzzDir == "" {
				err := errors.New("An OSS-Fuzz checkout is required, set it via --oss-fuzz-dir, INCBENCH_OSS_FUZZ_DIR or incbench.yaml.")
				log.Print(err.Error())
				return cmdutils.WrapIncorrectUsageError(err)
			}

			depsOk, err := dependencies.Check([]dependencies.Key{
				dependencies.DOCKER,
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

			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			return run(c, opts)
		},
	}

	bindFlags = cmdutils.AddFlags(cmd,
		cmdutils.AddOSSFuzzDirFlag,
		cmdutils.AddRegistryFlag,
		cmdutils.AddSanitizerFlag,
	)
	cmd.Flags().StringVar(&opts.pushMode, "push-mode", string(registry.PushBoth),
		"Which images to push: \"base\", \"inc\" or \"both\".")
	err := cmd.RegisterFlagCompletionFunc("push-mode", completion.PushModes)
	if err != nil {
		panic(err)
	}
	cmd.Flags().BoolVar(&opts.force, "force", false,
		"Overwrite images that already exist in the registry.")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false,
		"Push without asking for confirmation.")

	return cmd
}

func run(c *cobra.Command, opts *options) error {
	mode, err := registry.ParsePushMode(opts.pushMode)
	if err != nil {
		log.Print(err.Error())
		return cmdutils.WrapIncorrectUsageError(err)
	}

	project := ossfuzz.NewProject(opts.ossFuzzDir, opts.project)
	err = project.Validate()
	if err != nil {
		return err
	}

	if !opts.yes {
		confirmed, err := dialog.Confirm(
			fmt.Sprintf("Push images of %s to %s?", opts.project, opts.registryURL),
			true, c.InOrStdin())
		if err != nil {
			return err
		}
		if !confirmed {
			log.Print("Aborted.")
			return nil
		}
	}

	publisher := &registry.Publisher{
		Project:    project,
		Registry:   opts.registryURL,
		Sanitizers: opts.sanitizers,
		Stdout:     c.OutOrStdout(),
		Stderr:     c.OutOrStderr(),
	}
	return publisher.Publish(c.Context(), mode, opts.force)
}
