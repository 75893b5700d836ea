package testlog

import (
	"strconv"
	"strings"
)

// timeToSeconds converts the duration strings found in test logs to
// seconds. Maven alone prints "12.008 s", "01:30 min" and "1.5 h"
// depending on how long the build ran, GoogleTest prints "2000 ms".
// Unparseable input yields 0 so a mangled log never aborts analysis.
func timeToSeconds(timeStr string) float64 {
	timeStr = strings.TrimSpace(timeStr)

	parse := func(s string) (float64, bool) {
		value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return value, err == nil
	}

	switch {
	case strings.HasSuffix(timeStr, "ms"):
		if value, ok := parse(strings.TrimRight(timeStr, "ms")); ok {
			return value / 1000
		}
	case strings.HasSuffix(timeStr, "s"), strings.HasSuffix(timeStr, "S"):
		if value, ok := parse(strings.TrimRight(timeStr, "sS")); ok {
			return value
		}
	case strings.HasSuffix(timeStr, "min"):
		part := strings.TrimSpace(strings.ReplaceAll(timeStr, "min", ""))
		// Maven switches to "mm:ss min" after one minute.
		if strings.Contains(part, ":") {
			fields := strings.Split(part, ":")
			if len(fields) != 2 {
				return 0
			}
			minutes, ok := parse(fields[0])
			if !ok {
				return 0
			}
			seconds, ok := parse(fields[1])
			if !ok {
				return 0
			}
			return minutes*60 + seconds
		}
		if value, ok := parse(part); ok {
			return value * 60
		}
	case strings.HasSuffix(timeStr, "h"):
		part := strings.TrimSpace(strings.TrimRight(timeStr, "h"))
		if strings.Contains(part, ":") {
			fields := strings.Split(part, ":")
			if len(fields) != 2 {
				return 0
			}
			hours, ok := parse(fields[0])
			if !ok {
				return 0
			}
			minutes, ok := parse(fields[1])
			if !ok {
				return 0
			}
			return hours*3600 + minutes*60
		}
		if value, ok := parse(part); ok {
			return value * 3600
		}
	default:
		if value, ok := parse(timeStr); ok {
			return value
		}
	}

	return 0
}
