package bench

import (
	"github.com/team-atlanta/incbench/pkg/parser/testlog"
)

// PovResult records the regression check of one (harness, PoV) pair
// against the snapshot image. Results are appended in the order the
// PoVs are processed and never mutated afterwards.
type PovResult struct {
	// PovID is "<harness>/<pov-name>".
	PovID     string  `json:"pov_id"`
	Sanitizer string  `json:"sanitizer"`
	// ErrorToken identifies the crash in fuzzer output when the CPV
	// declares one.
	ErrorToken string `json:"error_token,omitempty"`
	// CrashBefore is whether the unpatched build reproduced the crash.
	CrashBefore bool `json:"crash_detected_before_patch"`
	// CrashAfter is whether the patched build still crashed. A
	// validated incremental build requires CrashBefore and !CrashAfter.
	CrashAfter bool `json:"crash_detected_after_patch"`
	// PatchedRebuildTime is the wall time of the snapshot-based
	// rebuild with the patch applied, in seconds.
	PatchedRebuildTime float64 `json:"patched_rebuild_time"`
	// TestTime is the wall time of the test run after validation, in
	// seconds.
	TestTime float64 `json:"test_time"`
	// Stats holds the analyzed test log. Nil when the run produced no
	// log.
	Stats *testlog.Stats `json:"test_stats,omitempty"`
}

// Validated reports whether the patch fixed the crash: present before,
// absent after.
func (r *PovResult) Validated() bool {
	return r.CrashBefore && !r.CrashAfter
}
