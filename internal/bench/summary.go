package bench

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/parser/testlog"
	"github.com/team-atlanta/incbench/util/sliceutil"
)

// SanitizerMismatch flags a PoV whose sanitizer differs from the one
// the snapshot was built with.
type SanitizerMismatch struct {
	PovID     string `json:"pov_id"`
	Sanitizer string `json:"sanitizer"`
}

// Summary aggregates one benchmark run. Everything derived (averages,
// speedups) is computed on demand from the recorded raw values.
type Summary struct {
	Project           string               `json:"project"`
	RTSTool           string               `json:"rts_tool"`
	WithRTS           bool                 `json:"with_rts"`
	SnapshotSanitizer string               `json:"snapshot_sanitizer"`
	Mismatches        []SanitizerMismatch  `json:"sanitizer_mismatches,omitempty"`
	StartedAt         time.Time            `json:"started_at"`

	// BuildTimeBaseline is the full from-scratch build, in seconds.
	BuildTimeBaseline float64 `json:"build_time_baseline"`
	// BuildTimeSnapshot is the snapshot-based rebuild without a patch.
	BuildTimeSnapshot float64 `json:"build_time_snapshot"`

	BaselineTestTime float64        `json:"baseline_test_time"`
	BaselineStats    *testlog.Stats `json:"baseline_test_stats,omitempty"`

	Results []*PovResult `json:"results"`
}

// Speedup returns baseline/treatment, the "15x faster" form.
func Speedup(baseline, treatment float64) float64 {
	if treatment == 0 {
		return 0
	}
	return baseline / treatment
}

// ReductionPct returns how much of the baseline the treatment saved,
// in percent.
func ReductionPct(baseline, treatment float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (baseline - treatment) / baseline * 100
}

func (s *Summary) BuildSpeedup() float64 {
	return Speedup(s.BuildTimeBaseline, s.BuildTimeSnapshot)
}

// AvgPatchedRebuildTime averages the patched snapshot rebuilds across
// all PoVs.
func (s *Summary) AvgPatchedRebuildTime() float64 {
	if len(s.Results) == 0 {
		return 0
	}
	var total float64
	for _, r := range s.Results {
		total += r.PatchedRebuildTime
	}
	return total / float64(len(s.Results))
}

// AvgTestTime averages the post-validation test runs across all PoVs.
func (s *Summary) AvgTestTime() float64 {
	if len(s.Results) == 0 {
		return 0
	}
	var total float64
	for _, r := range s.Results {
		total += r.TestTime
	}
	return total / float64(len(s.Results))
}

func (s *Summary) TestSpeedup() float64 {
	return Speedup(s.BaselineTestTime, s.AvgTestTime())
}

// avgStats averages the analyzed test logs. PoVs without stats are
// excluded from the average instead of counting as zero: a missing log
// says nothing about how many tests ran, and zero-weighting it would
// drag the average down for unrelated reasons. The second return value
// is how many PoVs carried stats.
func (s *Summary) avgStats() (testsRun, totalTime, failures, errs, skipped float64, count int) {
	for _, r := range s.Results {
		if r.Stats == nil {
			continue
		}
		count++
		testsRun += float64(r.Stats.TestsRun)
		totalTime += r.Stats.TotalTimeSeconds
		failures += float64(r.Stats.Failures)
		errs += float64(r.Stats.Errors)
		skipped += float64(r.Stats.Skipped)
	}
	if count == 0 {
		return 0, 0, 0, 0, 0, 0
	}
	n := float64(count)
	return testsRun / n, totalTime / n, failures / n, errs / n, skipped / n, count
}

// AvgTestsRun is the average per-PoV test count, excluding PoVs
// without stats.
func (s *Summary) AvgTestsRun() float64 {
	testsRun, _, _, _, _, _ := s.avgStats()
	return testsRun
}

// uniqueTestCases returns the ordered union of all test names the
// per-PoV runs executed.
func (s *Summary) uniqueTestCases() []string {
	var union []string
	for _, r := range s.Results {
		if r.Stats == nil {
			continue
		}
		for _, name := range r.Stats.RunTests {
			union = sliceutil.AppendUnique(union, name)
		}
	}
	return union
}

// Warnings returns the anomalies worth flagging in the report.
func (s *Summary) Warnings() []string {
	var warnings []string

	if len(s.Mismatches) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d POV(s) require different sanitizer than snapshot (built with %q). Results may be inaccurate.",
			len(s.Mismatches), s.SnapshotSanitizer))
	}

	if s.WithRTS && s.BaselineStats != nil {
		avgTests, _, _, _, _, count := s.avgStats()
		baselineTests := float64(s.BaselineStats.TestsRun)
		switch {
		case count > 0 && avgTests == 0:
			warnings = append(warnings, "RTS selected 0 tests - all tests were skipped!")
		// tolerance for floating point comparison
		case count > 0 && baselineTests > 0 && math.Abs(avgTests-baselineTests) < 0.5:
			warnings = append(warnings, "RTS did not reduce test count - same as baseline!")
		}
	}

	return warnings
}

func (s *Summary) modeLabel() string {
	if s.WithRTS {
		return "with RTS"
	}
	return "with inc build"
}

// Render writes the human-readable benchmark report. The section
// headers and value formats are load-bearing: downstream log mining
// ("report mine") parses them.
func (s *Summary) Render(w io.Writer) error {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	divider := strings.Repeat("-", 60)
	mode := s.modeLabel()

	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Test Benchmark Results (%s):\n", mode)
	fmt.Fprintln(&b, line)

	fmt.Fprintln(&b, "[Sanitizer Configuration]")
	fmt.Fprintf(&b, "  Snapshot built with: %s\n", s.SnapshotSanitizer)
	if len(s.Mismatches) > 0 {
		fmt.Fprintf(&b, "  POVs with different sanitizers: %d\n", len(s.Mismatches))
		for _, mismatch := range s.Mismatches {
			fmt.Fprintf(&b, "    - %s: %s\n", mismatch.PovID, mismatch.Sanitizer)
		}
	} else {
		fmt.Fprintf(&b, "  All POVs use: %s\n", s.SnapshotSanitizer)
	}
	fmt.Fprintln(&b, divider)

	fmt.Fprintln(&b, "[Build Time Comparison]")
	fmt.Fprintf(&b, "  Build time (w/o inc build): %.2fs\n", s.BuildTimeBaseline)
	fmt.Fprintf(&b, "  Rebuild time (w/ inc build, w/o patch): %.2fs\n", s.BuildTimeSnapshot)
	if s.BuildTimeBaseline > 0 && s.BuildTimeSnapshot > 0 {
		fmt.Fprintf(&b, "  Time saved: %.2fs (%.2f%% reduction, %.2fx)\n",
			s.BuildTimeBaseline-s.BuildTimeSnapshot,
			ReductionPct(s.BuildTimeBaseline, s.BuildTimeSnapshot),
			s.BuildSpeedup())
	}
	if len(s.Results) > 0 {
		fmt.Fprintf(&b, "  Avg rebuild time (w/ inc build, w/ patch): %.2fs\n", s.AvgPatchedRebuildTime())
	}
	fmt.Fprintln(&b, divider)

	if len(s.Results) > 0 {
		fmt.Fprintln(&b, "[Per-POV Results]")
		for _, r := range s.Results {
			if r.Stats != nil {
				fmt.Fprintf(&b, "  %s: time=%.2fs, tests=%d, failures=%d, errors=%d\n",
					r.PovID, r.TestTime, r.Stats.TestsRun, r.Stats.Failures, r.Stats.Errors)
			} else {
				fmt.Fprintf(&b, "  %s: time=%.2fs (no stats)\n", r.PovID, r.TestTime)
			}
		}
		fmt.Fprintln(&b, divider)
	}

	numPovs := len(s.Results)
	avgTestTime := s.AvgTestTime()
	fmt.Fprintf(&b, "[Test Time Comparison] (avg over %d POV(s))\n", numPovs)
	fmt.Fprintf(&b, "  Baseline (before snapshot): %.2fs\n", s.BaselineTestTime)
	fmt.Fprintf(&b, "  %s (avg after snapshot): %.2fs\n", mode, avgTestTime)
	if s.BaselineTestTime > 0 && avgTestTime > 0 {
		fmt.Fprintf(&b, "  Avg time saved: %.2fs (%.2f%% reduction)\n",
			s.BaselineTestTime-avgTestTime, ReductionPct(s.BaselineTestTime, avgTestTime))
		fmt.Fprintf(&b, "  Avg speedup: %.2fx\n", s.TestSpeedup())
	}

	if s.BaselineStats != nil {
		avgTests, _, avgFailures, avgErrors, avgSkipped, statsCount := s.avgStats()
		baselineTests := float64(s.BaselineStats.TestsRun)

		fmt.Fprintln(&b, divider)
		fmt.Fprintf(&b, "[Test Count Comparison] (avg over %d POV(s), %d with stats)\n", numPovs, statsCount)
		fmt.Fprintf(&b, "  Baseline tests run: %.1f\n", baselineTests)
		fmt.Fprintf(&b, "  %s tests run (avg): %.1f\n", mode, avgTests)
		if s.WithRTS && baselineTests > avgTests {
			fmt.Fprintf(&b, "  Tests skipped (avg): %.1f\n", baselineTests-avgTests)
			if baselineTests > 0 {
				fmt.Fprintf(&b, "  Avg test selection rate: %.1f%%\n", avgTests/baselineTests*100)
			}
		}
		fmt.Fprintf(&b, "  Baseline test cases: %d\n", len(s.BaselineStats.RunTests))
		fmt.Fprintf(&b, "  %s test cases (total unique): %d\n", mode, len(s.uniqueTestCases()))

		fmt.Fprintln(&b, divider)
		fmt.Fprintln(&b, "[Test Results]")
		fmt.Fprintf(&b, "  Baseline - Total Runs: %.1f, Failures: %d, Errors: %d, Skipped: %d\n",
			baselineTests, s.BaselineStats.Failures, s.BaselineStats.Errors, s.BaselineStats.Skipped)
		fmt.Fprintf(&b, "  %s (avg) - Total Runs: %.1f, Failures: %.1f, Errors: %.1f, Skipped: %.1f\n",
			mode, avgTests, avgFailures, avgErrors, avgSkipped)
	}

	fmt.Fprintln(&b, divider)
	fmt.Fprintln(&b, "[Warnings]")
	warnings := s.Warnings()
	if len(warnings) == 0 {
		fmt.Fprintln(&b, "  No warnings.")
	}
	for _, warning := range warnings {
		fmt.Fprintf(&b, "  WARNING: %s\n", warning)
	}
	fmt.Fprintln(&b, line)

	_, err := io.WriteString(w, b.String())
	return errors.WithStack(err)
}

// WriteFile renders the report to path (summary.txt in the run's log
// directory).
func (s *Summary) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()
	return s.Render(file)
}
