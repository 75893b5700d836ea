package rts

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/util/sliceutil"
)

// Supported regression test selection tools. The JVM tools are injected
// into the Maven build of the target project, binaryrts ships with the
// C/C++ runner image and needs no per-project setup.
const (
	ToolJcgEks     = "jcgeks"
	ToolEkstazi    = "ekstazi"
	ToolOpenClover = "openclover"
	ToolBinaryRTS  = "binaryrts"
	ToolNone       = "none"
)

// MavenTool holds the Maven coordinates of a JVM selection plugin.
type MavenTool struct {
	GroupID    string
	ArtifactID string
	Version    string
}

var mavenTools = map[string]MavenTool{
	ToolJcgEks: {
		GroupID:    "org.jcgeks",
		ArtifactID: "jcgeks-maven-plugin",
		Version:    "1.0.0",
	},
	ToolEkstazi: {
		GroupID:    "org.ekstazi",
		ArtifactID: "ekstazi-maven-plugin",
		Version:    "5.3.0",
	},
	ToolOpenClover: {
		GroupID:    "org.openclover",
		ArtifactID: "clover-maven-plugin",
		Version:    "4.5.2",
	},
}

var toolsByLanguage = map[string][]string{
	"jvm": {ToolJcgEks, ToolEkstazi, ToolOpenClover},
	"c":   {ToolBinaryRTS},
	"c++": {ToolBinaryRTS},
}

// Tools returns the names of all supported selection tools.
func Tools() []string {
	return []string{ToolJcgEks, ToolEkstazi, ToolOpenClover, ToolBinaryRTS, ToolNone}
}

// ToolsForLanguage returns the selection tools which can be used with
// projects written in the given language.
func ToolsForLanguage(language string) []string {
	return toolsByLanguage[language]
}

// DefaultTool returns the selection tool used when neither the command
// line nor the project configuration names one.
func DefaultTool(language string) string {
	switch language {
	case "jvm":
		return ToolJcgEks
	case "c", "c++":
		return ToolBinaryRTS
	default:
		return ToolNone
	}
}

// ResolveTool picks the selection tool for a run. An explicit flag value
// wins over the rts_mode setting from the project configuration, which
// wins over the per-language default.
func ResolveTool(flagValue, projectMode, language string) (string, error) {
	tool := flagValue
	if tool == "" {
		tool = projectMode
	}
	if tool == "" {
		tool = DefaultTool(language)
	}

	if tool == ToolNone {
		return tool, nil
	}
	supported := toolsByLanguage[language]
	if !sliceutil.Contains(supported, tool) {
		return "", errors.Errorf("RTS tool %q is not supported for %s projects (supported: %s)",
			tool, language, strings.Join(append(supported, ToolNone), ", "))
	}
	return tool, nil
}

// IsMavenTool reports whether the tool is injected via the Maven build.
func IsMavenTool(tool string) bool {
	_, ok := mavenTools[tool]
	return ok
}
