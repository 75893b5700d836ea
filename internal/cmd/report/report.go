package report

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/hokaccha/go-prettyjson"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/team-atlanta/incbench/internal/history"
	"github.com/team-atlanta/incbench/internal/report"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/storage"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Analyze finished benchmark runs",
	}

	cmd.AddCommand(newMineCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

func newMineCmd() *cobra.Command {
	var output string
	var bindFlags func()

	cmd := &cobra.Command{
		Use:   "mine [flags] <log-dir>",
		Short: "Mine benchmark logs into a CSV summary",
		Long: `Parses every benchmark log in the given directory (skipping sanity-*
files), writes the extracted metrics to a CSV and prints aggregate
min/avg/max speedup statistics.

By default the CSV is written next to the log directory as
<log-dir>_summary.csv.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags()
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			logDir := args[0]
			miner := report.NewMiner(storage.WrapFileSystem())

			metricsList, err := miner.Mine(logDir)
			if err != nil {
				return err
			}
			log.Infof("Parsed %d benchmark log(s) in %s", len(metricsList), logDir)

			if output == "" {
				output = report.DefaultCSVPath(logDir)
			}
			err = miner.WriteCSV(metricsList, output)
			if err != nil {
				return err
			}
			log.Successf("Wrote summary to: %s", output)

			if viper.GetBool("print-json") {
				out, err := prettyjson.Marshal(metricsList)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintln(c.OutOrStdout(), string(out))
				return nil
			}

			report.RenderStats(c.OutOrStdout(), metricsList)
			return nil
		},
	}

	bindFlags = cmdutils.AddFlags(cmd, cmdutils.AddPrintJSONFlag)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV file path.")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var project string
	var limit int
	var bindFlags func()

	cmd := &cobra.Command{
		Use:   "history [flags]",
		Short: "List past benchmark runs",
		Long: `Lists the benchmark runs recorded in the history database below the
log directory, newest first.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags()
			return nil
		},
		RunE: func(c *cobra.Command, args []string) error {
			logDir := viper.GetString("log-dir")
			if logDir == "" {
				logDir = "."
			}

			store, err := history.Open(logDir)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(project, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				log.Print("No recorded runs.")
				return nil
			}

			if viper.GetBool("print-json") {
				out, err := prettyjson.Marshal(runs)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintln(c.OutOrStdout(), string(out))
				return nil
			}

			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tPROJECT\tRTS TOOL\tPOVS\tBUILD SPEEDUP\tTEST SPEEDUP\tSUMMARY")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2fx\t%.2fx\t%s\n",
					run.StartedAt.Local().Format(time.DateTime), run.Project, run.RTSTool,
					run.NumPovs, run.BuildSpeedup, run.TestSpeedup, run.SummaryPath)
			}
			return errors.WithStack(w.Flush())
		},
	}

	bindFlags = cmdutils.AddFlags(cmd, cmdutils.AddLogDirFlag, cmdutils.AddPrintJSONFlag)
	cmd.Flags().StringVar(&project, "project", "", "Only list runs of this project.")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of runs to list, 0 for all.")

	return cmd
}
