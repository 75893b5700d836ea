package completion

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/team-atlanta/incbench/pkg/rts"
)

// Sanitizers completes the --sanitizer flag with the sanitizers the
// OSS-Fuzz builder images support.
func Sanitizers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"address", "undefined", "memory", "none"}, cobra.ShellCompDirectiveNoFileComp
}

// RTSTools completes the --rts-tool flag.
func RTSTools(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return rts.Tools(), cobra.ShellCompDirectiveNoFileComp
}

// PushModes completes the --push-mode flag.
func PushModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"base", "inc", "both"}, cobra.ShellCompDirectiveNoFileComp
}

// Projects completes a <project> argument with the entries below the
// projects/ directory of the configured OSS-Fuzz checkout. Nested
// project names like aixcc/jvm/fuzzy are not expanded, completing the
// first level is enough to get going.
func Projects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ossFuzzDir := viper.GetString("oss-fuzz-dir")
	if ossFuzzDir == "" {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	entries, err := os.ReadDir(filepath.Join(ossFuzzDir, "projects"))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	return projects, cobra.ShellCompDirectiveNoFileComp
}
