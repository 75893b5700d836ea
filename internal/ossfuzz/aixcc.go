package ossfuzz

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/team-atlanta/incbench/pkg/log"
)

// AIXCCConfig is the parsed .aixcc/config.yaml of a project. It pins
// the source revision the benchmark runs against and describes the
// known vulnerabilities (CPVs) per fuzz harness.
type AIXCCConfig struct {
	FullMode     FullModeConfig  `yaml:"full_mode"`
	HarnessFiles []HarnessConfig `yaml:"harness_files"`
}

type FullModeConfig struct {
	BaseCommit string `yaml:"base_commit"`
}

type HarnessConfig struct {
	Name string      `yaml:"name"`
	CPVs []CPVConfig `yaml:"cpvs"`
}

// CPVConfig describes a single CPV: which sanitizer its PoV needs and,
// optionally, a token that identifies the crash in fuzzer output.
type CPVConfig struct {
	Name       string `yaml:"name"`
	Sanitizer  string `yaml:"sanitizer"`
	ErrorToken string `yaml:"error_token"`
}

// LoadAIXCCConfig reads .aixcc/config.yaml from the project directory.
// Projects without one are valid, in that case both return values are
// nil.
func LoadAIXCCConfig(projectDir string) (*AIXCCConfig, error) {
	path := filepath.Join(projectDir, ".aixcc", "config.yaml")
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	config := &AIXCCConfig{}
	err = yaml.Unmarshal(content, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return config, nil
}

// CPV looks up the CPV config for the given harness and CPV name. The
// returned copy has the sanitizer defaulted, so callers can use it
// directly. Returns nil when the pair is unknown.
func (c *AIXCCConfig) CPV(harnessName, cpvName string) *CPVConfig {
	for _, harness := range c.HarnessFiles {
		if harness.Name != harnessName {
			continue
		}
		for _, cpv := range harness.CPVs {
			if cpv.Name == cpvName {
				found := cpv
				if found.Sanitizer == "" {
					found.Sanitizer = DefaultSanitizer
				}
				return &found
			}
		}
	}
	return nil
}

// CPV returns the CPV config for the given harness and CPV name, or
// nil when the project has no .aixcc/config.yaml, the file is
// malformed or the pair is not listed.
func (p *Project) CPV(harnessName, cpvName string) *CPVConfig {
	config, err := LoadAIXCCConfig(p.Dir())
	if err != nil {
		log.Warnf("Failed to parse config.yaml: %v", err)
		return nil
	}
	if config == nil {
		return nil
	}
	return config.CPV(harnessName, cpvName)
}
