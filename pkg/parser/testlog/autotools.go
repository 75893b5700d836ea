package testlog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/regexutil"
)

var (
	// Some harnesses emit color codes with the ESC byte stripped by the
	// capturing shell, so literal "[0;32m" sequences have to go too.
	autotoolsColorCodePattern = regexp.MustCompile(`(\x1b\[[0-9;]*m|\[[0-9;]*m)`)

	// PASS: test_check
	autotoolsTestPattern = regexp.MustCompile(`^(?P<status>PASS|FAIL|SKIP|XFAIL|XPASS|ERROR):\s+(?P<test>\S+)`)

	// # TOTAL: 19
	autotoolsSummaryPattern = regexp.MustCompile(`^#\s*(?P<status>TOTAL|PASS|FAIL|SKIP|XFAIL|XPASS|ERROR):\s*(?P<count>\d+)`)
)

// parseAutotools extracts test statistics from automake test harness
// output ("make check"). Counts come from the "# TOTAL:" summary block
// and accumulate across blocks, since recursive makefiles print one
// block per directory. Per-test result lines serve as a fallback for
// logs without a summary. Following the harness's own convention,
// XPASS counts as a pass and XFAIL as a skip, and the reported test
// count excludes skipped tests.
func parseAutotools(content string) *Stats {
	stats := newStats()

	var failedTests, skippedTests []string

	for _, line := range splitLines(content) {
		cleanLine := strings.TrimSpace(autotoolsColorCodePattern.ReplaceAllString(line, ""))

		if result, found := regexutil.FindNamedGroupsMatch(autotoolsTestPattern, cleanLine); found {
			testName := result["test"]
			stats.RunTests = append(stats.RunTests, testName)

			switch result["status"] {
			case "FAIL", "ERROR":
				failedTests = append(failedTests, testName)
			case "SKIP", "XFAIL":
				skippedTests = append(skippedTests, testName)
			}
			continue
		}

		if result, found := regexutil.FindNamedGroupsMatch(autotoolsSummaryPattern, cleanLine); found {
			count, _ := strconv.Atoi(result["count"])
			switch result["status"] {
			case "TOTAL":
				stats.TestsRun += count
			case "FAIL":
				stats.Failures += count
			case "ERROR":
				stats.Errors += count
			case "SKIP", "XFAIL":
				stats.Skipped += count
			}
			continue
		}

		if strings.Contains(line, "[RTS SELECTED]") {
			if result, found := regexutil.FindNamedGroupsMatch(rtsSelectedTestPattern, line); found {
				stats.SelectedTests[result["test"]] = struct{}{}
			}
		}
	}

	if stats.TestsRun == 0 && len(stats.RunTests) > 0 {
		stats.TestsRun = len(stats.RunTests)
	}
	if stats.Failures == 0 && len(failedTests) > 0 {
		stats.Failures = len(failedTests)
	}
	if stats.Skipped == 0 && len(skippedTests) > 0 {
		stats.Skipped = len(skippedTests)
	}

	stats.TestsRun -= stats.Skipped

	log.Debugf("Autotools: %d tests run (non-skipped), %d failures, %d skipped",
		stats.TestsRun, stats.Failures, stats.Skipped)
	return stats
}
