package root

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	benchCmd "github.com/team-atlanta/incbench/internal/cmd/bench"
	publishCmd "github.com/team-atlanta/incbench/internal/cmd/publish"
	reportCmd "github.com/team-atlanta/incbench/internal/cmd/report"
	rtsCmd "github.com/team-atlanta/incbench/internal/cmd/rts"
	snapshotCmd "github.com/team-atlanta/incbench/internal/cmd/snapshot"
	"github.com/team-atlanta/incbench/internal/config"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
)

func New() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "incbench",
		Short: "Build and benchmark incremental build snapshots for OSS-Fuzz projects",
		// We are using our custom ErrSilent instead to support a more specific
		// error handling
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := cmdutils.Chdir()
			if err != nil {
				log.Error(err, err.Error())
				return cmdutils.ErrSilent
			}

			err = config.Init()
			if err != nil {
				log.Error(err, err.Error())
				return cmdutils.ErrSilent
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Show more verbose output, can be helpful for debugging problems")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().StringP("directory", "C", "",
		"Change the directory before performing any operations")
	viper.BindPFlag("directory", rootCmd.PersistentFlags().Lookup("directory"))

	rootCmd.PersistentFlags().Bool("no-notifications", false,
		"Turn off desktop notifications")
	viper.BindPFlag("no-notifications", rootCmd.PersistentFlags().Lookup("no-notifications"))

	rootCmd.AddCommand(benchCmd.New())
	rootCmd.AddCommand(snapshotCmd.New())
	rootCmd.AddCommand(publishCmd.New())
	rootCmd.AddCommand(rtsCmd.New())
	rootCmd.AddCommand(reportCmd.New())

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd := New()
	if cmd, err := rootCmd.ExecuteC(); err != nil {

		// Errors that are not ErrSilent are not expected and we want to show their full stacktrace
		var silentErr *cmdutils.SilentError
		if !errors.As(err, &silentErr) {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), pterm.Style{pterm.Bold, pterm.FgRed}.Sprintf("%+v\n", err))
		}

		// We only want to print the usage message if an ErrIncorrectUsage
		// was returned or it's an error produced by cobra which was
		// caused by incorrect usage
		var usageErr *cmdutils.IncorrectUsageError
		if errors.As(err, &usageErr) ||
			strings.HasPrefix(err.Error(), "required flag") ||
			strings.HasPrefix(err.Error(), "unknown command") ||
			regexp.MustCompile(`(accepts|requires).*arg\(s\)`).MatchString(err.Error()) {
			// Ensure that there is an extra newline between the error
			// and the usage message
			if !strings.HasSuffix(err.Error(), "\n") {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
		}

		var signalErr *cmdutils.SignalError
		if errors.As(err, &signalErr) {
			os.Exit(128 + int(signalErr.Signal))
		}

		os.Exit(1)
	}
}
