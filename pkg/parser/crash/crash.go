package crash

import (
	"regexp"
	"strings"
)

var (
	// ASan reports start with ==<pid>==, UBSan prints "runtime error:"
	sanitizerReportPattern = regexp.MustCompile(`(==\d+==|runtime error:)`)
	javaExceptionPattern   = regexp.MustCompile(`== Java Exception:`)
)

// SanitizerReport returns the trailing portion of the log starting at
// the first sanitizer report marker. For UBSan runtime errors the
// report starts at the beginning of the line, so the source location
// prefix is included.
func SanitizerReport(log string) (string, bool) {
	loc := sanitizerReportPattern.FindStringIndex(log)
	if loc == nil {
		return "", false
	}

	startIdx := loc[0]
	if strings.Contains(log[loc[0]:loc[1]], "runtime error:") {
		if lineStart := strings.LastIndex(log[:startIdx], "\n"); lineStart != -1 {
			startIdx = lineStart + 1
		} else {
			startIdx = 0
		}
	}

	return log[startIdx:], true
}

// JavaExceptionReport returns the trailing portion of the log starting
// at the Jazzer exception banner.
func JavaExceptionReport(log string) (string, bool) {
	loc := javaExceptionPattern.FindStringIndex(log)
	if loc == nil {
		return "", false
	}
	return log[loc[0]:], true
}

// Detect reports whether the reproducer output contains a crash for the
// given project language. An explicit error token from the PoV config
// takes precedence over the heuristics, which lets a PoV match crashes
// that produce no sanitizer report at all, like a Java OutOfMemoryError
// only visible in the libFuzzer summary.
func Detect(output, language, errorToken string) bool {
	if errorToken != "" && strings.Contains(output, errorToken) {
		return true
	}

	switch language {
	case "c", "c++":
		_, found := SanitizerReport(output)
		return found
	case "jvm":
		if strings.Contains(output, "ERROR: libFuzzer:") {
			return true
		}
		if strings.Contains(output, "FuzzerSecurityIssueLow: Stack overflow") {
			return true
		}
		if _, found := JavaExceptionReport(output); found {
			return true
		}
		_, found := SanitizerReport(output)
		return found
	default:
		return false
	}
}
