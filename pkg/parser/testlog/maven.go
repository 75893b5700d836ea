package testlog

import (
	"strconv"
	"strings"
)

// parseMaven extracts test statistics from Maven Surefire output.
// Counts come from the "Results:" summary blocks, whose
// "Tests run: N, Failures: N, Errors: N, Skipped: N" line appears a
// couple of lines further down. Reactor builds print one block per
// module, so counts accumulate.
func parseMaven(content string) *Stats {
	stats := newStats()
	lines := splitLines(content)

	for lineCount, line := range lines {
		switch {
		case strings.Contains(line, "Results :") || strings.Contains(line, "Results:"):
			counts, found := findMavenResultCounts(lines, lineCount+2)
			if !found {
				continue
			}
			stats.TestsRun += counts[0]
			stats.Failures += counts[1]
			stats.Errors += counts[2]
			stats.Skipped += counts[3]

		case strings.Contains(line, "Total time:"):
			timeStr := strings.ReplaceAll(strings.Split(line, "Total time:")[1], " ", "")
			stats.TotalTimeSeconds = timeToSeconds(timeStr)

		case strings.Contains(line, "Running "):
			stats.RunTests = append(stats.RunTests, strings.Split(line, "Running ")[1])

		case strings.Contains(line, "[RTS CHECK TAG]"):
			class := strings.Split(strings.ReplaceAll(line, "[RTS CHECK TAG] ", ""), " -> ")[0]
			// Inner classes map to their enclosing test class.
			if idx := strings.Index(class, "$"); idx != -1 {
				class = class[:idx]
			}
			stats.SelectedTests[class] = struct{}{}
		}
	}

	return stats
}

// findMavenResultCounts scans forward from startIdx for the
// "Tests run: ..." line that belongs to a "Results:" header and returns
// [run, failures, errors, skipped]. The scan stops at the next
// "[INFO] ---" divider so that an interrupted module can't swallow the
// summary of the following one.
func findMavenResultCounts(lines []string, startIdx int) ([4]int, bool) {
	var counts [4]int

	for idx := startIdx; idx < len(lines); idx++ {
		line := lines[idx]
		if strings.Contains(line, "[INFO] ---") {
			return counts, false
		}
		if !strings.Contains(line, "Tests run: ") {
			continue
		}

		fields := strings.Split(strings.ReplaceAll(line, " ", ""), ",")
		if len(fields) < 4 {
			return counts, false
		}
		for i := 0; i < 3; i++ {
			value, ok := countAfterColon(fields[i])
			if !ok {
				return counts, false
			}
			counts[i] = value
		}
		// The skipped count can carry trailing decoration such as
		// "<<< FAILURE!", keep the digits only.
		skipped, ok := digitsAfterColon(fields[3])
		if !ok {
			return counts, false
		}
		counts[3] = skipped
		return counts, true
	}

	return counts, false
}

func countAfterColon(field string) (int, bool) {
	parts := strings.Split(field, ":")
	if len(parts) < 2 {
		return 0, false
	}
	value, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return value, true
}

func digitsAfterColon(field string) (int, bool) {
	parts := strings.Split(field, ":")
	if len(parts) < 2 {
		return 0, false
	}
	var digits strings.Builder
	for _, ch := range parts[1] {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	value, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return value, true
}
