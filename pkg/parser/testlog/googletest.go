package testlog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/regexutil"
	"github.com/team-atlanta/incbench/util/sliceutil"
)

var (
	// [ RUN      ] FooTest.DoesAbc
	googleTestRunPattern = regexp.MustCompile(`\[ RUN\s+\]\s+(?P<test>\S+)`)
	// [  FAILED  ] FooTest.DoesXyz (10 ms)
	googleTestFailedPattern = regexp.MustCompile(`\[\s+FAILED\s+\]\s+(?P<test>\S+)\s+\(`)
	// [==========] 30 tests from 14 test suites ran. (1234 ms total)
	googleTestTotalTimePattern = regexp.MustCompile(`\((?P<time>\d+(?:\.\d+)?)\s*(?P<unit>ms|s)\s+total\)`)
	// [  FAILED  ] 2 tests, listed below:
	googleTestFailedCountPattern = regexp.MustCompile(`\[\s+FAILED\s+\]\s+(?P<count>\d+)\s+test`)
)

// parseGoogleTest extracts test statistics from GoogleTest output.
// Each "[ RUN ]" line counts as one test run. The failure count comes
// from the "listed below" summary when present, otherwise from the
// per-test FAILED lines printed during execution.
func parseGoogleTest(content string) *Stats {
	stats := newStats()

	var failedTests []string
	summaryFailures := 0

	for _, line := range splitLines(content) {
		switch {
		case strings.Contains(line, "[ RUN      ]"):
			if result, found := regexutil.FindNamedGroupsMatch(googleTestRunPattern, line); found {
				stats.RunTests = append(stats.RunTests, result["test"])
			}

		// Per-test FAILED lines carry timing info in parentheses,
		// which distinguishes them from the summary listing.
		case strings.Contains(line, "[  FAILED  ]") &&
			!strings.Contains(line, "tests, listed below") &&
			strings.Contains(line, "("):
			if result, found := regexutil.FindNamedGroupsMatch(googleTestFailedPattern, line); found {
				failedTests = sliceutil.AppendUnique(failedTests, result["test"])
			}

		case strings.Contains(line, "[==========]") && strings.Contains(line, "ran."):
			if result, found := regexutil.FindNamedGroupsMatch(googleTestTotalTimePattern, line); found {
				value, err := strconv.ParseFloat(result["time"], 64)
				if err == nil {
					if result["unit"] == "ms" {
						value /= 1000
					}
					stats.TotalTimeSeconds = value
				}
			}

		case strings.Contains(line, "[  FAILED  ]") && strings.Contains(line, "tests, listed below"):
			if result, found := regexutil.FindNamedGroupsMatch(googleTestFailedCountPattern, line); found {
				summaryFailures, _ = strconv.Atoi(result["count"])
			}

		case strings.Contains(line, "[RTS SELECTED]"):
			if result, found := regexutil.FindNamedGroupsMatch(rtsSelectedTestPattern, line); found {
				stats.SelectedTests[result["test"]] = struct{}{}
			}
		}
	}

	stats.TestsRun = len(stats.RunTests)
	stats.Failures = summaryFailures
	if stats.Failures == 0 && len(failedTests) > 0 {
		stats.Failures = len(failedTests)
	}

	log.Debugf("GoogleTest: %d tests, %d failures, %.2fs",
		stats.TestsRun, stats.Failures, stats.TotalTimeSeconds)
	return stats
}
