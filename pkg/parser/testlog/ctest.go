package testlog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/regexutil"
)

var (
	// Per-test result lines, tolerant of the format variations CTest
	// produces:
	//
	//	1/10 Test  #1: TestName ....   Passed    0.01 sec
	//	2/2 Test #2: test_crash .....***Exception: SegFault  0.01 sec
	//
	// The status may carry one extra word, like the signal name after
	// "***Exception:".
	ctestTestPattern = regexp.MustCompile(
		`^\s*\d+/\d+\s+Test\s+#?\d+:\s+(?P<test>\S+)\s+\.+` +
			`\s*(?P<status>Passed|\*{0,3}Failed|\*{0,3}Not Run|\*{0,3}Timeout|\*{0,3}Exception\S*(?:\s+\S+)?)` +
			`\s+(?P<time>[\d.]+)\s*sec`)

	// 100% tests passed, 0 tests failed out of 10
	ctestSummaryPattern = regexp.MustCompile(`(?P<percentage>\d+)%\s+tests\s+passed,\s+(?P<failed>\d+)\s+tests?\s+failed\s+out\s+of\s+(?P<total>\d+)`)

	// Total Test time (real) =   1.23 sec
	ctestTotalTimePattern = regexp.MustCompile(`Total Test time\s*\(real\)\s*=\s*(?P<time>[\d.]+)\s*sec`)
)

// parseCTest extracts test statistics from CTest output, in both normal
// and verbose (-V/-VV) mode. The failure count from the summary line is
// authoritative, the per-test statuses only serve as a fallback for
// truncated logs.
func parseCTest(content string) *Stats {
	stats := newStats()

	failedFromIndividual := 0
	skippedFromIndividual := 0

	for _, line := range splitLines(content) {
		if result, found := regexutil.FindNamedGroupsMatch(ctestTestPattern, line); found {
			stats.RunTests = append(stats.RunTests, result["test"])

			status := result["status"]
			switch {
			case strings.Contains(status, "Failed") ||
				strings.Contains(status, "Timeout") ||
				strings.Contains(status, "Exception"):
				failedFromIndividual++
			case strings.Contains(status, "Not Run"):
				skippedFromIndividual++
			}
			continue
		}

		if result, found := regexutil.FindNamedGroupsMatch(ctestSummaryPattern, line); found {
			stats.Failures, _ = strconv.Atoi(result["failed"])
			continue
		}

		if result, found := regexutil.FindNamedGroupsMatch(ctestTotalTimePattern, line); found {
			stats.TotalTimeSeconds, _ = strconv.ParseFloat(result["time"], 64)
			continue
		}

		if strings.Contains(line, "[RTS SELECTED]") {
			if result, found := regexutil.FindNamedGroupsMatch(rtsSelectedTestPattern, line); found {
				stats.SelectedTests[result["test"]] = struct{}{}
			}
		}
	}

	stats.TestsRun = len(stats.RunTests)

	// Truncated logs have no summary line, fall back to the per-test
	// statuses then.
	if stats.Failures == 0 && failedFromIndividual > 0 {
		stats.Failures = failedFromIndividual
	}
	if stats.Skipped == 0 && skippedFromIndividual > 0 {
		stats.Skipped = skippedFromIndividual
	}

	log.Debugf("CTest: %d tests, %d failures, %.2fs",
		stats.TestsRun, stats.Failures, stats.TotalTimeSeconds)
	return stats
}
