package cmdutils

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func MarkFlagsRequired(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		err := cmd.MarkFlagRequired(flag)
		if err != nil {
			panic(err)
		}
	}
}

func ViperMustBindPFlag(key string, flag *pflag.Flag) {
	err := viper.BindPFlag(key, flag)
	if err != nil {
		panic(err)
	}
}

// AddFlags executes the specified Add*Flag functions and returns a
// function which binds all those flags to viper
func AddFlags(cmd *cobra.Command, funcs ...func(cmd *cobra.Command) func()) (bindFlags func()) { // nolint:nonamedreturns
	var bindFlagFuncs []func()
	for _, f := range funcs {
		bindFlagFunc := f(cmd)
		bindFlagFuncs = append(bindFlagFuncs, bindFlagFunc)
	}
	return func() {
		for _, f := range bindFlagFuncs {
			f()
		}
	}
}

func AddOSSFuzzDirFlag(cmd *cobra.Command) func() {
	cmd.Flags().String("oss-fuzz-dir", "",
		"Path to the OSS-Fuzz checkout containing the projects/ tree.\n"+
			"Defaults to the oss-fuzz-dir setting in incbench.yaml.")
	return func() {
		ViperMustBindPFlag("oss-fuzz-dir", cmd.Flags().Lookup("oss-fuzz-dir"))
	}
}

func AddSourceDirFlag(cmd *cobra.Command) func() {
	cmd.Flags().String("source-dir", "",
		"Path to an existing checkout of the project's main repository.\n"+
			"By default, the repository is cloned into a temporary directory.")
	return func() {
		ViperMustBindPFlag("source-dir", cmd.Flags().Lookup("source-dir"))
	}
}

func AddRegistryFlag(cmd *cobra.Command) func() {
	cmd.Flags().String("registry", "",
		"Container registry used for published snapshot images,\n"+
			"e.g. ghcr.io/team-atlanta.")
	return func() {
		ViperMustBindPFlag("registry", cmd.Flags().Lookup("registry"))
	}
}

func AddRTSToolFlag(cmd *cobra.Command) func() {
	cmd.Flags().String("rts-tool", "",
		"Regression test selection tool to use.\n"+
			"One of \"ekstazi\", \"jcgeks\", \"openclover\" (JVM),\n"+
			"\"binaryrts\" (C/C++) or \"none\".\n"+
			"Defaults to the project's rts_mode or the language default.")
	return func() {
		ViperMustBindPFlag("rts-tool", cmd.Flags().Lookup("rts-tool"))
	}
}

func AddSanitizerFlag(cmd *cobra.Command) func() {
	cmd.Flags().StringArray("sanitizer", nil,
		"Sanitizer to build a snapshot for, e.g. \"address\".\n"+
			"By default, all sanitizers from project.yaml are used.\n"+
			"This flag can be used multiple times.")
	return func() {
		ViperMustBindPFlag("sanitizers", cmd.Flags().Lookup("sanitizer"))
	}
}

func AddLogDirFlag(cmd *cobra.Command) func() {
	cmd.Flags().String("log-dir", "",
		"Directory where run artifacts (summary.txt, build and test logs)\n"+
			"are written. Defaults to the current working directory.")
	return func() {
		ViperMustBindPFlag("log-dir", cmd.Flags().Lookup("log-dir"))
	}
}

func AddPrintJSONFlag(cmd *cobra.Command) func() {
	cmd.Flags().Bool("json", false, "Print output as JSON")
	return func() {
		ViperMustBindPFlag("print-json", cmd.Flags().Lookup("json"))
	}
}

func AddForceRebuildFlag(cmd *cobra.Command) func() {
	cmd.Flags().Bool("force-rebuild", false,
		"Rebuild snapshot images even if they already exist.")
	return func() {
		ViperMustBindPFlag("force-rebuild", cmd.Flags().Lookup("force-rebuild"))
	}
}
