package testlog

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/fileutil"
)

// Test frameworks whose logs can be analyzed. TestModeAutotools is the
// fallback for C/C++ projects without an explicit test mode, because
// "make check" harnesses are the most common case there.
const (
	TestModeMaven      = "maven"
	TestModeGoogleTest = "googletest"
	TestModeCTest      = "ctest"
	TestModeAutotools  = "autotools"
)

// Stats is the normalized result of analyzing one test log, independent
// of the framework that produced it.
type Stats struct {
	// Number of tests that were run. For autotools harnesses this
	// excludes skipped tests.
	TestsRun int
	// Total wall time of the test run in seconds
	TotalTimeSeconds float64
	// Names of the tests that were run, in the order they appeared
	RunTests []string
	// Tests reported as selected by an RTS tool
	SelectedTests map[string]struct{}

	Failures int
	Errors   int
	Skipped  int
}

func newStats() *Stats {
	return &Stats{SelectedTests: map[string]struct{}{}}
}

// Analyze reads the log file at logPath and extracts test statistics.
// A nonexistent log file yields zero-valued stats, not an error, so
// callers don't have to special-case test runs which produced no log.
func Analyze(logPath, language, testMode string) (*Stats, error) {
	exists, err := fileutil.Exists(logPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Warnf("Log file does not exist: %s", logPath)
		return newStats(), nil
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	log.Debugf("Analyzing log file: %s (language=%s, test_mode=%s)", logPath, language, testMode)
	return AnalyzeContent(string(content), language, testMode), nil
}

// AnalyzeContent extracts test statistics from log content. The parser
// is chosen by language and testMode: JVM projects are always Maven,
// C/C++ projects dispatch on the test mode and default to the autotools
// parser. Unknown languages fall back to the Maven parser.
func AnalyzeContent(content, language, testMode string) *Stats {
	var stats *Stats

	switch {
	case language == "jvm" || testMode == TestModeMaven:
		stats = parseMaven(content)
	case language == "c" || language == "c++":
		switch testMode {
		case TestModeGoogleTest:
			stats = parseGoogleTest(content)
		case TestModeCTest:
			stats = parseCTest(content)
		case TestModeAutotools:
			stats = parseAutotools(content)
		default:
			log.Debugf("Unknown test mode %q for C, trying autotools parser", testMode)
			stats = parseAutotools(content)
		}
	default:
		log.Warnf("Unknown language %q, falling back to Maven parser", language)
		stats = parseMaven(content)
	}

	// Standardized [RTS] markers override the framework's own count.
	// They let a test driver script report selection at finer
	// granularity than the framework does, for example when test.sh
	// filters binaries before the framework ever sees them.
	total, selected, excluded := parseRTSMarkers(content)
	if selected > 0 || total > 0 {
		frameworkCount := stats.TestsRun
		if selected > 0 {
			stats.TestsRun = selected
		} else {
			stats.TestsRun = total
		}
		log.Debugf("[RTS] markers found: total=%d selected=%d excluded=%d (framework reported %d)",
			total, selected, excluded, frameworkCount)
	}

	return stats
}

func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
