package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/team-atlanta/incbench/pkg/log"
)

// Metrics holds everything mined from one benchmark log. Pointer fields
// distinguish "not found in the log" from a genuine zero.
type Metrics struct {
	BenchmarkName string `json:"benchmark_name"`

	BuildTimeWithoutInc     *float64 `json:"build_time_without_inc_s"`
	BuildTimeWithInc        *float64 `json:"build_time_with_inc_s"`
	BuildTimeSaved          *float64 `json:"build_time_saved_s"`
	BuildTimeReductionPct   *float64 `json:"build_time_reduction_pct"`
	BuildSpeedup            *float64 `json:"build_speedup"`
	AvgRebuildTimeWithPatch *float64 `json:"avg_rebuild_time_with_patch_s"`

	NumPovs              *int     `json:"num_povs"`
	BaselineTestTime     *float64 `json:"baseline_test_time_s"`
	RTSAvgTestTime       *float64 `json:"rts_avg_test_time_s"`
	TestTimeSaved        *float64 `json:"test_time_saved_s"`
	TestTimeReductionPct *float64 `json:"test_time_reduction_pct"`
	TestSpeedup          *float64 `json:"test_speedup"`

	BaselineTestsRun   *float64 `json:"baseline_tests_run"`
	RTSTestsRunAvg     *float64 `json:"rts_tests_run_avg"`
	BaselineTestCases  *int     `json:"baseline_test_cases"`
	RTSTestCasesUnique *int     `json:"rts_test_cases_unique"`
}

// The benchmark summary is repeated in the log whenever intermediate
// results are printed, the final occurrence wins. "with inc build" is
// the label benchmark runs without an RTS tool use.
var (
	buildSectionPattern = regexp.MustCompile(
		`(?s)\[Build Time Comparison\].*?` +
			`Build time \(w/o inc build\):\s*([\d.]+)s.*?` +
			`(?:Build time|Rebuild time) \(w/ inc build,.*?\):\s*([\d.]+)s.*?` +
			`Time saved:\s*([-\d.]+)s\s*\(([-\d.]+)%\s*reduction,\s*([\d.]+)x\)`)

	avgRebuildPattern = regexp.MustCompile(
		`Avg rebuild time \(w/ inc build, w/ patch\):\s*([\d.]+)s`)

	testSectionPattern = regexp.MustCompile(
		`(?s)\[Test Time Comparison\]\s*\(avg over (\d+) POV\(s\)\).*?` +
			`Baseline \(before snapshot\):\s*([\d.]+)s.*?` +
			`with (?:RTS|inc build) \(avg after snapshot\):\s*([\d.]+)s.*?` +
			`Avg time saved:\s*([-\d.]+)s\s*\(([-\d.]+)%\s*reduction\).*?` +
			`Avg speedup:\s*([\d.]+)x`)

	testCountPattern = regexp.MustCompile(
		`(?s)Baseline tests run:\s*([\d.]+).*?` +
			`with (?:RTS|inc build) tests run \(avg\):\s*([\d.]+).*?` +
			`Baseline test cases:\s*(\d+).*?` +
			`with (?:RTS|inc build) test cases \(total unique\):\s*(\d+)`)
)

func lastMatch(pattern *regexp.Regexp, content string) []string {
	matches := pattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	return matches[len(matches)-1]
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "s"), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

// ParseContent mines one log's content. Returns nil when the log holds
// no benchmark results at all.
func ParseContent(name, content string) *Metrics {
	metrics := &Metrics{BenchmarkName: name}

	if m := lastMatch(buildSectionPattern, content); m != nil {
		metrics.BuildTimeWithoutInc = parseFloat(m[1])
		metrics.BuildTimeWithInc = parseFloat(m[2])
		metrics.BuildTimeSaved = parseFloat(m[3])
		metrics.BuildTimeReductionPct = parseFloat(m[4])
		metrics.BuildSpeedup = parseFloat(m[5])
	}
	if m := lastMatch(avgRebuildPattern, content); m != nil {
		metrics.AvgRebuildTimeWithPatch = parseFloat(m[1])
	}
	if m := lastMatch(testSectionPattern, content); m != nil {
		metrics.NumPovs = parseInt(m[1])
		metrics.BaselineTestTime = parseFloat(m[2])
		metrics.RTSAvgTestTime = parseFloat(m[3])
		metrics.TestTimeSaved = parseFloat(m[4])
		metrics.TestTimeReductionPct = parseFloat(m[5])
		metrics.TestSpeedup = parseFloat(m[6])
	}
	if m := lastMatch(testCountPattern, content); m != nil {
		metrics.BaselineTestsRun = parseFloat(m[1])
		metrics.RTSTestsRunAvg = parseFloat(m[2])
		metrics.BaselineTestCases = parseInt(m[3])
		metrics.RTSTestCasesUnique = parseInt(m[4])
	}

	if metrics.BuildTimeWithoutInc == nil && metrics.BaselineTestTime == nil {
		return nil
	}
	return metrics
}

// Miner mines a directory of benchmark logs into a CSV plus aggregate
// statistics.
type Miner struct {
	fs *afero.Afero
}

func NewMiner(fs *afero.Afero) *Miner {
	return &Miner{fs: fs}
}

// Mine parses every *.log below logDir, skipping sanity-* files, sorted
// by benchmark name.
func (m *Miner) Mine(logDir string) ([]*Metrics, error) {
	isDir, err := m.fs.IsDir(logDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !isDir {
		return nil, errors.Errorf("%s is not a directory", logDir)
	}

	logFiles, err := afero.Glob(m.fs, filepath.Join(logDir, "*.log"))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var metricsList []*Metrics
	var skipped int
	for _, logFile := range logFiles {
		if strings.HasPrefix(filepath.Base(logFile), "sanity-") {
			skipped++
			continue
		}
		content, err := m.fs.ReadFile(logFile)
		if err != nil {
			log.Warnf("Could not read %s: %v", logFile, err)
			continue
		}
		name := strings.TrimSuffix(filepath.Base(logFile), filepath.Ext(logFile))
		metrics := ParseContent(name, string(content))
		if metrics == nil {
			log.Warnf("No metrics found in %s", filepath.Base(logFile))
			continue
		}
		metricsList = append(metricsList, metrics)
	}
	if skipped > 0 {
		log.Debugf("Skipped %d sanity-* files", skipped)
	}
	if len(logFiles) == 0 {
		return nil, errors.Errorf("no .log files found in %s", logDir)
	}

	sort.Slice(metricsList, func(i, j int) bool {
		return metricsList[i].BenchmarkName < metricsList[j].BenchmarkName
	})
	return metricsList, nil
}

// DefaultCSVPath places the CSV next to the log directory, named after
// it.
func DefaultCSVPath(logDir string) string {
	clean := filepath.Clean(logDir)
	return filepath.Join(filepath.Dir(clean), filepath.Base(clean)+"_summary.csv")
}

var csvHeader = []string{
	"benchmark_name",
	"build_time_without_inc_s",
	"build_time_with_inc_s",
	"build_time_saved_s",
	"build_time_reduction_pct",
	"build_speedup",
	"avg_rebuild_time_with_patch_s",
	"num_povs",
	"baseline_test_time_s",
	"rts_avg_test_time_s",
	"test_time_saved_s",
	"test_time_reduction_pct",
	"test_speedup",
	"baseline_tests_run",
	"rts_tests_run_avg",
	"baseline_test_cases",
	"rts_test_cases_unique",
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// WriteCSV writes the mined metrics with the fixed 17-column header.
func (m *Miner) WriteCSV(metricsList []*Metrics, path string) error {
	file, err := m.fs.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	err = writer.Write(csvHeader)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, metrics := range metricsList {
		err = writer.Write([]string{
			metrics.BenchmarkName,
			formatFloat(metrics.BuildTimeWithoutInc),
			formatFloat(metrics.BuildTimeWithInc),
			formatFloat(metrics.BuildTimeSaved),
			formatFloat(metrics.BuildTimeReductionPct),
			formatFloat(metrics.BuildSpeedup),
			formatFloat(metrics.AvgRebuildTimeWithPatch),
			formatInt(metrics.NumPovs),
			formatFloat(metrics.BaselineTestTime),
			formatFloat(metrics.RTSAvgTestTime),
			formatFloat(metrics.TestTimeSaved),
			formatFloat(metrics.TestTimeReductionPct),
			formatFloat(metrics.TestSpeedup),
			formatFloat(metrics.BaselineTestsRun),
			formatFloat(metrics.RTSTestsRunAvg),
			formatInt(metrics.BaselineTestCases),
			formatInt(metrics.RTSTestCasesUnique),
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}

// SpeedupStats is the min/avg/max aggregate over one speedup column.
type SpeedupStats struct {
	Min, Avg, Max float64
	Count         int
}

func aggregate(values []float64) *SpeedupStats {
	if len(values) == 0 {
		return nil
	}
	stats := &SpeedupStats{Min: values[0], Max: values[0], Count: len(values)}
	var sum float64
	for _, v := range values {
		sum += v
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	stats.Avg = sum / float64(len(values))
	return stats
}

// BuildSpeedupStats aggregates the build speedups of all mined logs
// that carried one.
func BuildSpeedupStats(metricsList []*Metrics) *SpeedupStats {
	var values []float64
	for _, m := range metricsList {
		if m.BuildSpeedup != nil {
			values = append(values, *m.BuildSpeedup)
		}
	}
	return aggregate(values)
}

// TestSpeedupStats aggregates the test speedups.
func TestSpeedupStats(metricsList []*Metrics) *SpeedupStats {
	var values []float64
	for _, m := range metricsList {
		if m.TestSpeedup != nil {
			values = append(values, *m.TestSpeedup)
		}
	}
	return aggregate(values)
}

// RenderStats prints the aggregate statistics block.
func RenderStats(w io.Writer, metricsList []*Metrics) {
	fmt.Fprintln(w, "--- Summary Statistics ---")
	if stats := BuildSpeedupStats(metricsList); stats != nil {
		fmt.Fprintf(w, "Build Speedup: avg=%.2fx, min=%.2fx, max=%.2fx\n",
			stats.Avg, stats.Min, stats.Max)
	}
	if stats := TestSpeedupStats(metricsList); stats != nil {
		fmt.Fprintf(w, "Test Speedup (RTS): avg=%.2fx, min=%.2fx, max=%.2fx\n",
			stats.Avg, stats.Min, stats.Max)
	}
}
