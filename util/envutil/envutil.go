package envutil

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Setenv sets the value of the variable named by the key in the
// provided environment in "key=value" format, replacing an existing
// entry for the same key.
func Setenv(env []string, key, value string) ([]string, error) {
	if key == "" || strings.Contains(key, "=") {
		return nil, errors.Errorf("invalid environment variable name %q", key)
	}
	entry := fmt.Sprintf("%s=%s", key, value)
	for i, e := range env {
		if strings.HasPrefix(e, key+"=") {
			env[i] = entry
			return env, nil
		}
	}
	return append(env, entry), nil
}

// Getenv returns the value of the variable named by the key in the
// provided environment, or an empty string if it is not set.
func Getenv(env []string, key string) string {
	for _, e := range env {
		if strings.HasPrefix(e, key+"=") {
			return strings.TrimPrefix(e, key+"=")
		}
	}
	return ""
}

// ToDockerArgs renders an environment as a flat list of "-e" arguments
// for docker run/exec command lines.
func ToDockerArgs(env []string) []string {
	var args []string
	for _, e := range env {
		args = append(args, "-e", e)
	}
	return args
}
