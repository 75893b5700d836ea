package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/team-atlanta/incbench/util/fileutil"
)

// ConfigFile is the name of the optional per-checkout configuration
// file. It is searched for by walking up from the working directory,
// so running incbench anywhere below the checkout picks it up.
const ConfigFile = "incbench.yaml"

// EnvPrefix is the prefix of environment variables which override
// configuration values, e.g. INCBENCH_REGISTRY.
const EnvPrefix = "INCBENCH"

// Keys which may be set in incbench.yaml. Everything else in the file
// is rejected to catch typos.
var validKeys = []string{
	"oss-fuzz-dir",
	"source-dir",
	"registry",
	"rts-tool",
	"sanitizers",
	"log-dir",
	"force-rebuild",
	"verbose",
}

// Init wires viper up for configuration lookup: values come from
// flags, INCBENCH_* environment variables and an optional incbench.yaml
// found by walking up from the working directory, in that order of
// precedence. A missing config file is fine.
func Init() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configDir, err := FindConfigDir()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	viper.SetConfigName(strings.TrimSuffix(ConfigFile, filepath.Ext(ConfigFile)))
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	err = viper.ReadInConfig()
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", filepath.Join(configDir, ConfigFile))
	}

	for _, key := range viper.AllKeys() {
		if !isValidKey(key) {
			return errors.Errorf("invalid key %q in %s", key, filepath.Join(configDir, ConfigFile))
		}
	}

	return nil
}

func isValidKey(key string) bool {
	for _, valid := range validKeys {
		if key == valid {
			return true
		}
	}
	return false
}

// FindConfigDir returns the closest directory at or above the working
// directory which contains an incbench.yaml. When there is none, the
// returned error wraps os.ErrNotExist so callers can treat the file as
// optional.
func FindConfigDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.WithStack(err)
	}
	configFileExists, err := fileutil.Exists(filepath.Join(dir, ConfigFile))
	if err != nil {
		return "", err
	}
	for !configFileExists {
		if dir == filepath.Dir(dir) {
			err := fmt.Errorf("no %s found (or in any of the parent directories): %w", ConfigFile, os.ErrNotExist)
			return "", errors.WithStack(err)
		}
		dir = filepath.Dir(dir)
		configFileExists, err = fileutil.Exists(filepath.Join(dir, ConfigFile))
		if err != nil {
			return "", err
		}
	}

	dir, err = fileutil.CanonicalPath(dir)
	if err != nil {
		return "", err
	}

	return dir, nil
}
