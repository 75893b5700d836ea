package ossfuzz

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/team-atlanta/incbench/pkg/log"
)

// ProjectConfig holds the fields of projects/<name>/project.yaml the
// benchmark cares about. Everything else in the file is ignored.
type ProjectConfig struct {
	// Language is the project language, normalized to lower case
	// ("c", "c++", "jvm").
	Language string `yaml:"language"`
	// Sanitizers lists the sanitizers the project is built with.
	Sanitizers []string `yaml:"sanitizers"`
	// MainRepo is the upstream repository the project sources are
	// cloned from.
	MainRepo string `yaml:"main_repo"`
	// RTSMode optionally pins the RTS tool for this project. An empty
	// value means the tool is chosen from the language default.
	RTSMode string `yaml:"rts_mode"`
	// IncBuild disables the incremental build workflow for the
	// project when set to false. Defaults to true.
	IncBuild bool `yaml:"inc_build"`
}

// LoadProjectConfig reads project.yaml from projectDir. A missing file
// yields the defaults (language "c", address sanitizer, incremental
// build enabled) with a warning, so baseline-only projects without a
// descriptor still work.
func LoadProjectConfig(projectDir string) (*ProjectConfig, error) {
	config := &ProjectConfig{
		Language:   "c",
		Sanitizers: []string{DefaultSanitizer},
		IncBuild:   true,
	}

	path := filepath.Join(projectDir, "project.yaml")
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warnf("project.yaml not found: %s, using defaults", path)
			return config, nil
		}
		return nil, errors.WithStack(err)
	}

	err = yaml.Unmarshal(content, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	config.Language = strings.ToLower(strings.TrimSpace(config.Language))
	return config, nil
}
