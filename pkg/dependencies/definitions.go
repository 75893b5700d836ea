package dependencies

import (
	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

type Dependencies map[Key]*Dependency

var Default Dependencies

func init() {
	setDefaults()
}

func setDefaults() {
	deps, err := Define([]Key{
		DOCKER,
		GIT,
	})

	if err != nil {
		panic("Unable to define default dependencies")
	}
	Default = deps
}

func ResetDefaultsForTestsOnly() {
	setDefaults()
}

// Defines a set of dependencies
func Define(keys []Key) (Dependencies, error) {
	deps := Dependencies{}
	for _, key := range keys {
		if dep, found := all[key]; found {
			// make a copy of the dependency to be able to modify it
			// without side effects, for example in tests
			newDep := dep
			deps[key] = &newDep
			continue
		}
		return nil, errors.Errorf("Unknown dependency %s", key)
	}
	return deps, nil
}

// List of all known dependencies
var all = map[Key]Dependency{
	DOCKER: {
		Key:        DOCKER,
		MinVersion: *semver.MustParse("20.10.0"),
		GetVersion: dockerVersion,
		Installed: func(dep *Dependency) bool {
			return inPath("docker")
		},
	},
	GIT: {
		Key:        GIT,
		MinVersion: *semver.MustParse("2.25.0"),
		GetVersion: gitVersion,
		Installed: func(dep *Dependency) bool {
			return inPath("git")
		},
	},
	MAVEN: {
		Key:        MAVEN,
		MinVersion: *semver.MustParse("3.6.0"),
		GetVersion: mavenVersion,
		Installed: func(dep *Dependency) bool {
			return inPath("mvn")
		},
	},
	RSYNC: {
		Key: RSYNC,
		// rsync only needs to be present, any version works
		MinVersion: *semver.MustParse("0.0.0"),
		GetVersion: func(dep *Dependency) (*semver.Version, error) {
			return semver.NewVersion("0.0.0")
		},
		Installed: func(dep *Dependency) bool {
			return inPath("rsync")
		},
	},
}
