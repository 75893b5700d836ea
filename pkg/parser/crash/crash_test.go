package crash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asanLog = `INFO: Seed: 1234
INFO: Loaded 1 modules
==12345==ERROR: AddressSanitizer: heap-buffer-overflow on address 0x602000000011
READ of size 1 at 0x602000000011 thread T0
    #0 0x55e5 in LLVMFuzzerTestOneInput /src/fuzzer.c:23
`

const ubsanLog = `INFO: Seed: 1234
/src/lib/decode.c:102:13: runtime error: signed integer overflow: 2147483647 + 1 cannot be represented in type 'int'
    #0 0x55e5 in decode_frame /src/lib/decode.c:102
`

const jazzerLog = `INFO: Loaded 1 hooks
== Java Exception: com.code_intelligence.jazzer.api.FuzzerSecurityIssueHigh: OS Command Injection
	at jaz.Zer.reportFinding(Zer.java:108)
`

func TestSanitizerReport_ASan(t *testing.T) {
	report, found := SanitizerReport(asanLog)
	require.True(t, found)
	assert.True(t, len(report) > 0)
	assert.Contains(t, report, "heap-buffer-overflow")
	// The report starts at the ==pid== marker, not at the noise above it
	assert.NotContains(t, report, "INFO: Seed")
}

func TestSanitizerReport_UBSanIncludesSourceLocation(t *testing.T) {
	report, found := SanitizerReport(ubsanLog)
	require.True(t, found)
	// The line is kept from its start so the file:line prefix survives
	assert.Contains(t, report, "/src/lib/decode.c:102:13: runtime error:")
	assert.NotContains(t, report, "INFO: Seed")
}

func TestSanitizerReport_NoCrash(t *testing.T) {
	_, found := SanitizerReport("Done 1000 runs in 2 second(s)\n")
	assert.False(t, found)
}

func TestJavaExceptionReport(t *testing.T) {
	report, found := JavaExceptionReport(jazzerLog)
	require.True(t, found)
	assert.Contains(t, report, "FuzzerSecurityIssueHigh")
	assert.NotContains(t, report, "INFO: Loaded")

	_, found = JavaExceptionReport("all good\n")
	assert.False(t, found)
}

func TestDetect_C(t *testing.T) {
	assert.True(t, Detect(asanLog, "c", ""))
	assert.True(t, Detect(ubsanLog, "c++", ""))
	assert.False(t, Detect("Done 1000 runs\n", "c", ""))
}

func TestDetect_JVM(t *testing.T) {
	assert.True(t, Detect(jazzerLog, "jvm", ""))
	assert.True(t, Detect("==12== ERROR: libFuzzer: out-of-memory\n", "jvm", ""))
	assert.True(t, Detect("FuzzerSecurityIssueLow: Stack overflow\n", "jvm", ""))
	assert.False(t, Detect("BUILD SUCCESS\n", "jvm", ""))
}

func TestDetect_ErrorTokenTakesPrecedence(t *testing.T) {
	// No sanitizer report anywhere, but the PoV declares its own token
	assert.True(t, Detect("custom-oom-marker hit\n", "jvm", "custom-oom-marker"))
	assert.False(t, Detect("nothing to see\n", "jvm", "custom-oom-marker"))
}

func TestDetect_UnknownLanguage(t *testing.T) {
	assert.False(t, Detect(asanLog, "rust", ""))
}
