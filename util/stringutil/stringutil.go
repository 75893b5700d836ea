package stringutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

func ToJsonString(v interface{}) (string, error) {
	var bytes []byte
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(bytes), nil
}

func PrettyString(v interface{}) string {
	jsonString, err := ToJsonString(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return jsonString
}

// JoinNonEmpty does the same as strings.Join but omits empty elements
func JoinNonEmpty(elems []string, sep string) string {
	return strings.Join(NonEmpty(elems), sep)
}

// NonEmpty returns a slice with all empty strings removed
func NonEmpty(elems []string) []string {
	var res []string
	for _, e := range elems {
		if e != "" {
			res = append(res, e)
		}
	}
	return res
}

func Contains(slice []string, element string) bool {
	for _, e := range slice {
		if e == element {
			return true
		}
	}
	return false
}

var ansiEscapePattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripANSI removes ANSI color escape sequences, which test harnesses
// tend to leave in captured logs
func StripANSI(s string) string {
	return ansiEscapePattern.ReplaceAllString(s, "")
}

// SplitCommaSeparated splits a comma-separated pattern list and trims
// whitespace, dropping empty entries
func SplitCommaSeparated(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			res = append(res, part)
		}
	}
	return res
}
