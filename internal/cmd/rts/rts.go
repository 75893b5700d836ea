package rts

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/team-atlanta/incbench/internal/completion"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/rts"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rts",
		Short: "Manage regression test selection inside build containers",
		Long: `Configures and maintains regression test selection (RTS) tooling in a
project source tree. These commands normally run inside the snapshot
build containers, where the source tree lives at /built-src, but they
work on any checkout with Maven build descriptors.`,
	}

	cmd.AddCommand(newInjectCmd())
	cmd.AddCommand(newPrepareCmd())
	cmd.AddCommand(newCleanupCmd())

	return cmd
}

func newInjectCmd() *cobra.Command {
	var tool string
	var project string

	cmd := &cobra.Command{
		Use:   "inject [flags] <project-dir>",
		Short: "Configure the RTS tool in the project's build descriptors",
		Long: `Installs the selection tool's Maven artifacts and rewrites every
pom.xml below the project directory to run it, then commits the result
so later patch diffs stay scoped to the patch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			projectDir := args[0]
			if project == "" {
				project = filepath.Base(projectDir)
			}

			if rts.IsMavenTool(tool) {
				err := rts.InstallMavenArtifacts(tool)
				if err != nil {
					return err
				}
			}
			return rts.Inject(&rts.InjectOptions{
				ProjectDir: projectDir,
				Project:    project,
				Tool:       tool,
			})
		},
	}

	cmd.Flags().StringVar(&tool, "tool", rts.ToolNone, "RTS tool to configure.")
	err := cmd.RegisterFlagCompletionFunc("tool", completion.RTSTools)
	if err != nil {
		panic(err)
	}
	cmd.Flags().StringVar(&project, "project", "",
		"Project name used for the per-project excludes file.\n"+
			"Defaults to the base name of the project directory.")

	return cmd
}

func newPrepareCmd() *cobra.Command {
	var tool string
	var force bool

	cmd := &cobra.Command{
		Use:   "prepare [flags] <project-dir>",
		Short: "Generate the per-run RTS configuration",
		Long: `Regenerates the selection tool's per-run state before a test run:
stale excludes files are removed and tool configuration that depends on
the current build output, like the jcgeks class lists, is rewritten.

Runs as a no-op unless RTS_ON=1 is set in the environment, so the test
driver can call it unconditionally. The tool is taken from --tool or
the RTS_TOOL environment variable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if !force && os.Getenv("RTS_ON") != "1" {
				log.Debugf("RTS_ON is not set, skipping RTS preparation")
				return nil
			}
			if tool == "" {
				tool = os.Getenv("RTS_TOOL")
			}
			if tool == "" {
				err := errors.New("No RTS tool given, set --tool or RTS_TOOL.")
				log.Print(err.Error())
				return cmdutils.WrapIncorrectUsageError(err)
			}
			return rts.Prepare(args[0], tool)
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "RTS tool to prepare. Defaults to $RTS_TOOL.")
	err := cmd.RegisterFlagCompletionFunc("tool", completion.RTSTools)
	if err != nil {
		panic(err)
	}
	cmd.Flags().BoolVar(&force, "force", false, "Prepare even when RTS_ON is not set.")

	return cmd
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <project-dir>",
		Short: "Remove RTS tool state from the project directory",
		Long: `Removes the change tracking state the selection tools leave behind
(.ekstazi, .jcg, diffLog, jcg_config), so the next run starts from a
clean slate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return rts.Cleanup(args[0])
		},
	}
}
