package rts

import (
	"os"
	"regexp"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/fileutil"
	"github.com/team-atlanta/incbench/util/stringutil"
)

var (
	includeTestsPattern = regexp.MustCompile(`INCLUDE_TESTS=["']([^"']*)["']`)
	excludeTestsPattern = regexp.MustCompile(`EXCLUDE_TESTS=["']([^"']*)["']`)
)

// ParseTestScriptPatterns extracts the INCLUDE_TESTS and EXCLUDE_TESTS
// declarations from the project's test driver script. Both hold a
// comma-separated list of surefire patterns:
//
//	INCLUDE_TESTS="**/Test1.java,**/Test2.java"
//	EXCLUDE_TESTS="**/FailingTest.java"
//
// A missing script yields empty pattern lists.
func ParseTestScriptPatterns(scriptPath string) (includes []string, excludes []string) {
	exists, err := fileutil.Exists(scriptPath)
	if err != nil || !exists {
		log.Warnf("Test script not found: %s", scriptPath)
		return nil, nil
	}
	content, err := os.ReadFile(scriptPath)
	if err != nil {
		log.Warnf("Failed to read %s: %v", scriptPath, err)
		return nil, nil
	}

	includes = parsePatternList(includeTestsPattern, string(content))
	excludes = parsePatternList(excludeTestsPattern, string(content))
	return includes, excludes
}

func parsePatternList(pattern *regexp.Regexp, content string) []string {
	match := pattern.FindStringSubmatch(content)
	if match == nil {
		return nil
	}
	return stringutil.SplitCommaSeparated(match[1])
}
