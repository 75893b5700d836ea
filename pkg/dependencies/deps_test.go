package dependencies

import (
	"testing"

	"github.com/Masterminds/semver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versionDep(key Key, min, current string) *Dependency {
	return &Dependency{
		Key:        key,
		MinVersion: *semver.MustParse(min),
		GetVersion: func(dep *Dependency) (*semver.Version, error) {
			return semver.NewVersion(current)
		},
		Installed: func(dep *Dependency) bool { return true },
	}
}

func TestCheckVersion(t *testing.T) {
	testCases := []struct {
		name    string
		min     string
		current string
		want    bool
	}{
		{"exact match", "20.10.0", "20.10.0", true},
		{"newer", "20.10.0", "24.0.7", true},
		{"older", "20.10.0", "19.3.0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dep := versionDep(DOCKER, tc.min, tc.current)
			assert.Equal(t, tc.want, dep.CheckVersion())
		})
	}
}

func TestCheck_UndefinedDependency(t *testing.T) {
	_, err := Check([]Key{"no-such-tool"}, Default)
	require.Error(t, err)
}

func TestCheck_NotInstalled(t *testing.T) {
	deps := Dependencies{
		GIT: {
			Key:        GIT,
			MinVersion: *semver.MustParse("2.25.0"),
			GetVersion: func(dep *Dependency) (*semver.Version, error) {
				return semver.NewVersion("2.40.0")
			},
			Installed: func(dep *Dependency) bool { return false },
		},
	}
	ok, err := Check([]Key{GIT}, deps)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtractVersion(t *testing.T) {
	version, err := extractVersion("Docker version 24.0.7, build afdd53b", dockerRegex, DOCKER)
	require.NoError(t, err)
	assert.Equal(t, "24.0.7", version.String())

	version, err = extractVersion("git version 2.39.2", gitRegex, GIT)
	require.NoError(t, err)
	assert.Equal(t, "2.39.2", version.String())

	version, err = extractVersion("Apache Maven 3.8.7 (b89d5959fcde851dcb1c8946a785a163f14e1e29)", mavenRegex, MAVEN)
	require.NoError(t, err)
	assert.Equal(t, "3.8.7", version.String())

	_, err = extractVersion("something else", dockerRegex, DOCKER)
	require.Error(t, err)
}
