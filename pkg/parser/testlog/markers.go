package testlog

import (
	"regexp"
	"strconv"
	"strings"
)

// Standardized markers that a test driver can print to report RTS
// results regardless of the test framework in use:
//
//	[RTS] Total: 40
//	[RTS] Selected: 12
//	[RTS] Excluded: 28
var (
	rtsTotalPattern    = regexp.MustCompile(`\[RTS\]\s*Total:\s*(\d+)`)
	rtsSelectedPattern = regexp.MustCompile(`\[RTS\]\s*Selected:\s*(\d+)`)
	rtsExcludedPattern = regexp.MustCompile(`\[RTS\]\s*Excluded:\s*(\d+)`)

	// [RTS SELECTED] TestSuite.TestName, printed per selected test by
	// RTS-aware C/C++ test drivers
	rtsSelectedTestPattern = regexp.MustCompile(`\[RTS SELECTED\]\s+(?P<test>\S+)`)
)

func parseRTSMarkers(content string) (total, selected, excluded int) {
	for _, line := range splitLines(content) {
		if !strings.HasPrefix(line, "[RTS]") {
			continue
		}
		if match := rtsTotalPattern.FindStringSubmatch(line); match != nil {
			total, _ = strconv.Atoi(match[1])
		} else if match := rtsSelectedPattern.FindStringSubmatch(line); match != nil {
			selected, _ = strconv.Atoi(match[1])
		} else if match := rtsExcludedPattern.FindStringSubmatch(line); match != nil {
			excluded, _ = strconv.Atoi(match[1])
		}
	}
	return total, selected, excluded
}
